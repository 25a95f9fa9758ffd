package payments

import (
	"context"
	"errors"
	"time"

	"github.com/inscrevo/server/internal/metrics"
	"github.com/rs/zerolog"
)

// Notification is an inbound gateway webhook event. Signature verification
// happens at the HTTP boundary; the reconciler assumes the event is
// authentic.
type Notification struct {
	ChargeID       string
	ProviderStatus int
	OrderRef       string
	ReturnCode     string
	ReturnMessage  string
}

// Outcome reports what the reconciler did with a notification.
type Outcome string

const (
	OutcomeApplied       Outcome = "applied"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeUnknownCharge Outcome = "unknown_charge"
	OutcomeRejected      Outcome = "rejected" // illegal transition, logged no-op
)

// StatusNormalizer maps a raw provider status code to a local status.
// Implemented by the gateway client.
type StatusNormalizer func(providerStatus int) Status

// Reconciler applies asynchronous gateway notifications to the ledger. It
// never returns an error for a notification this system cannot act on
// (unknown charge, duplicate status): the provider retries aggressively on
// non-2xx, and retrying those cannot help.
type Reconciler struct {
	store     Store
	normalize StatusNormalizer
	ledger    *Ledger
	logger    zerolog.Logger
}

func NewReconciler(store Store, normalize StatusNormalizer, ledger *Ledger, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:     store,
		normalize: normalize,
		ledger:    ledger,
		logger:    logger.With().Str("component", "payment-reconciler").Logger(),
	}
}

// HandleNotification reconciles one webhook event against the ledger.
func (r *Reconciler) HandleNotification(ctx context.Context, n Notification) (Outcome, error) {
	payment, err := r.store.GetPaymentByTransactionID(ctx, n.ChargeID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			// The charge may belong to another system sharing the merchant
			// account, or to purged data. Log and drop.
			r.logger.Warn().
				Str("charge_id", n.ChargeID).
				Str("order_ref", n.OrderRef).
				Int("provider_status", n.ProviderStatus).
				Msg("notification for unknown charge dropped")
			metrics.WebhookNotificationsTotal.WithLabelValues(string(OutcomeUnknownCharge)).Inc()
			return OutcomeUnknownCharge, nil
		}
		metrics.WebhookNotificationsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	newStatus := r.normalize(n.ProviderStatus)
	if newStatus == payment.Status {
		r.logger.Debug().
			Str("payment_id", payment.ID).
			Str("status", string(newStatus)).
			Msg("notification already reconciled")
		metrics.WebhookNotificationsTotal.WithLabelValues(string(OutcomeDuplicate)).Inc()
		return OutcomeDuplicate, nil
	}

	_, applied, err := r.ledger.ApplyStatus(ctx, payment.ID, newStatus, Evidence{
		ProviderStatus: n.ProviderStatus,
		Source:         "webhook",
		ReturnCode:     n.ReturnCode,
		ReturnMessage:  n.ReturnMessage,
		ReconciledAt:   time.Now().UTC(),
	})
	if err != nil {
		metrics.WebhookNotificationsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	if !applied {
		metrics.WebhookNotificationsTotal.WithLabelValues(string(OutcomeRejected)).Inc()
		return OutcomeRejected, nil
	}

	metrics.WebhookNotificationsTotal.WithLabelValues(string(OutcomeApplied)).Inc()
	return OutcomeApplied, nil
}
