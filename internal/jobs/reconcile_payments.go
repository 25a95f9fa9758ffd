package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/inscrevo/server/internal/config"
	"github.com/inscrevo/server/internal/domain/payments"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// sweepConcurrency bounds parallel gateway polls inside one sweep.
const sweepConcurrency = 5

// ReconcileSweepArgs triggers one sweep of stale PENDING payments against
// the gateway. Webhooks are the fast path; the sweep catches payments whose
// notifications were lost.
type ReconcileSweepArgs struct{}

func (ReconcileSweepArgs) Kind() string { return JobKindReconcileSweep }

type ReconcileSweepWorker struct {
	river.WorkerDefaults[ReconcileSweepArgs]
	Store   payments.Store
	Gateway payments.Gateway
	Ledger  *payments.Ledger
	Cfg     config.JobsConfig
	Logger  zerolog.Logger
}

func (ReconcileSweepWorker) Kind() string { return JobKindReconcileSweep }

func (w ReconcileSweepWorker) Work(ctx context.Context, job *river.Job[ReconcileSweepArgs]) error {
	if w.Store == nil || w.Gateway == nil || w.Ledger == nil {
		return fmt.Errorf("reconcile sweep worker not configured")
	}

	cutoff := time.Now().Add(-w.Cfg.ReconcileMinAge)
	stale, err := w.Store.ListStalePending(ctx, cutoff, w.Cfg.ReconcileBatchSize)
	if err != nil {
		return fmt.Errorf("list stale pending payments: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	logger := w.Logger.With().Str("component", "reconcile-sweep").Logger()
	logger.Info().Int("count", len(stale)).Msg("sweeping stale pending payments")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, payment := range stale {
		g.Go(func() error {
			return w.reconcileOne(ctx, logger, payment)
		})
	}
	return g.Wait()
}

func (w ReconcileSweepWorker) reconcileOne(ctx context.Context, logger zerolog.Logger, payment payments.Payment) error {
	state, err := w.Gateway.GetCharge(ctx, payment.TransactionID)
	if err != nil {
		// Transient gateway trouble; the next sweep retries this payment.
		logger.Warn().Err(err).Str("payment_id", payment.ID).Msg("gateway poll failed")
		return nil
	}
	if state == nil {
		logger.Warn().
			Str("payment_id", payment.ID).
			Str("charge_id", payment.TransactionID).
			Msg("charge unknown at gateway")
		return nil
	}
	if state.Status == payment.Status {
		return nil
	}

	_, _, err = w.Ledger.ApplyStatus(ctx, payment.ID, state.Status, payments.Evidence{
		ProviderStatus: state.ProviderStatus,
		Source:         "sweep",
	})
	if err != nil {
		return fmt.Errorf("apply swept status to payment %s: %w", payment.ID, err)
	}
	return nil
}
