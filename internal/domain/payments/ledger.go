package payments

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/inscrevo/server/internal/audit"
	"github.com/inscrevo/server/internal/domain/registrations"
	"github.com/inscrevo/server/internal/metrics"
	"github.com/rs/zerolog"
)

// transitions is the closed set of legal status edges. PENDING is the only
// state with outgoing edges in normal flow; PAID can still be reversed.
var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusFailed},
	StatusPaid:    {StatusRefunded},
}

// CanTransition reports whether from → to is a legal status edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Ledger is the single transition authority for payment status. Every
// writer (confirm, poll, webhook, sweep) funnels through ApplyStatus.
type Ledger struct {
	store       Store
	auditLogger *audit.Logger
	logger      zerolog.Logger
}

func NewLedger(store Store, auditLogger *audit.Logger, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store:       store,
		auditLogger: auditLogger,
		logger:      logger.With().Str("component", "payment-ledger").Logger(),
	}
}

// ApplyStatus applies newStatus to the payment inside one transaction,
// holding a row lock so concurrent writers serialize. Returns the payment
// after the call and whether a transition was actually applied.
//
// Same-status application is an idempotent no-op. An illegal transition is
// a logged no-op returning the existing record, never an error, so replayed
// and out-of-order notifications are harmless. When the new status is PAID,
// the owning registration flips to CONFIRMED in the same transaction.
func (l *Ledger) ApplyStatus(ctx context.Context, paymentID string, newStatus Status, ev Evidence) (*Payment, bool, error) {
	var (
		result  *Payment
		applied bool
	)

	err := l.store.WithTx(ctx, func(ctx context.Context, s Store) error {
		payment, err := s.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		if payment.Status == newStatus {
			result = payment
			return nil
		}

		if !CanTransition(payment.Status, newStatus) {
			l.logger.Warn().
				Str("payment_id", payment.ID).
				Str("from", string(payment.Status)).
				Str("to", string(newStatus)).
				Str("source", ev.Source).
				Msg("illegal payment transition rejected")
			l.auditLogger.LogFailure("payment.transition_rejected", ev.Source, "payment", payment.ID, map[string]string{
				"from":            string(payment.Status),
				"to":              string(newStatus),
				"provider_status": strconv.Itoa(ev.ProviderStatus),
			})
			metrics.PaymentTransitionAnomaliesTotal.WithLabelValues(string(payment.Status), string(newStatus), ev.Source).Inc()
			result = payment
			return nil
		}

		from := payment.Status
		if ev.ReconciledAt.IsZero() {
			ev.ReconciledAt = time.Now().UTC()
		}
		payment.Metadata.Reconciliation = append(payment.Metadata.Reconciliation, ev)
		payment.Status = newStatus
		if newStatus == StatusPaid {
			paidAt := ev.ReconciledAt
			payment.PaidAt = &paidAt
		}

		if err := s.UpdatePayment(ctx, payment.ID, payment.Status, payment.Metadata, payment.PaidAt); err != nil {
			return fmt.Errorf("persist payment status: %w", err)
		}

		if newStatus == StatusPaid {
			if err := s.UpdateRegistrationStatus(ctx, payment.RegistrationID, registrations.StatusConfirmed); err != nil {
				return fmt.Errorf("confirm registration: %w", err)
			}
		}

		l.logger.Info().
			Str("payment_id", payment.ID).
			Str("from", string(from)).
			Str("to", string(newStatus)).
			Str("source", ev.Source).
			Msg("payment transition applied")
		l.auditLogger.LogSuccess("payment.transition", ev.Source, "payment", payment.ID, map[string]string{
			"from":            string(from),
			"to":              string(newStatus),
			"provider_status": strconv.Itoa(ev.ProviderStatus),
		})
		metrics.PaymentTransitionsTotal.WithLabelValues(string(from), string(newStatus), ev.Source).Inc()

		result = payment
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, applied, nil
}
