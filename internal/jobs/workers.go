package jobs

import (
	"github.com/inscrevo/server/internal/config"
	"github.com/inscrevo/server/internal/domain/payments"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

// NewWorkers registers all background workers.
func NewWorkers(store payments.Store, gateway payments.Gateway, ledger *payments.Ledger, cfg config.JobsConfig, logger zerolog.Logger) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker[ReconcileSweepArgs](workers, ReconcileSweepWorker{
		Store:   store,
		Gateway: gateway,
		Ledger:  ledger,
		Cfg:     cfg,
		Logger:  logger,
	})
	river.AddWorker[ExpirePaymentsArgs](workers, ExpirePaymentsWorker{
		Store:  store,
		Ledger: ledger,
		Cfg:    cfg,
		Logger: logger,
	})
	return workers
}
