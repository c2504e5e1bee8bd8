package session

import (
	"context"

	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideLedger(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Ledger {
	return NewLedger(db, cfg, logger.Named("session"))
}

func ProvidePurgeWorker(lc fx.Lifecycle, ledger *Ledger, cfg *config.Config) *PurgeWorker {
	worker := NewPurgeWorker(ledger, cfg.Session.CleanupInterval, cfg.Session.Retention)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			worker.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			worker.Stop()
			return nil
		},
	})

	return worker
}

var Options = fx.Options(
	fx.Provide(ProvideLedger),
)

// WorkerOptions runs the purge worker for the lifetime of the app.
var WorkerOptions = fx.Options(
	fx.Provide(ProvidePurgeWorker),
	fx.Invoke(func(*PurgeWorker) {}),
)
