package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/inscrevo/server/internal/config"
	"github.com/inscrevo/server/internal/domain/payments"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

// ExpirePaymentsArgs fails out PENDING payments whose PIX or boleto
// artifacts expired past the grace window. Without this, an abandoned QR
// code would keep its registration un-payable forever (one payment per
// registration).
type ExpirePaymentsArgs struct{}

func (ExpirePaymentsArgs) Kind() string { return JobKindExpirePayments }

type ExpirePaymentsWorker struct {
	river.WorkerDefaults[ExpirePaymentsArgs]
	Store  payments.Store
	Ledger *payments.Ledger
	Cfg    config.JobsConfig
	Logger zerolog.Logger
}

func (ExpirePaymentsWorker) Kind() string { return JobKindExpirePayments }

func (w ExpirePaymentsWorker) Work(ctx context.Context, job *river.Job[ExpirePaymentsArgs]) error {
	if w.Store == nil || w.Ledger == nil {
		return fmt.Errorf("expire payments worker not configured")
	}

	now := time.Now()
	stale, err := w.Store.ListStalePending(ctx, now, w.Cfg.ReconcileBatchSize)
	if err != nil {
		return fmt.Errorf("list pending payments: %w", err)
	}

	logger := w.Logger.With().Str("component", "expire-payments").Logger()
	for _, payment := range stale {
		expiry, ok := payment.ArtifactExpiry()
		if !ok || now.Before(expiry.Add(w.Cfg.ExpireGrace)) {
			continue
		}

		_, applied, err := w.Ledger.ApplyStatus(ctx, payment.ID, payments.StatusFailed, payments.Evidence{
			Source:        "sweep",
			ReturnMessage: "payment artifact expired",
		})
		if err != nil {
			return fmt.Errorf("expire payment %s: %w", payment.ID, err)
		}
		if applied {
			logger.Info().
				Str("payment_id", payment.ID).
				Time("expired_at", expiry).
				Msg("expired pending payment failed out")
		}
	}

	return nil
}
