package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PurgeWorker periodically deletes sessions that expired more than the
// retention window ago.
type PurgeWorker struct {
	ledger    *Ledger
	interval  time.Duration
	retention time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPurgeWorker(ledger *Ledger, interval, retention time.Duration) *PurgeWorker {
	return &PurgeWorker{
		ledger:    ledger,
		interval:  interval,
		retention: retention,
	}
}

func (w *PurgeWorker) Start() {
	if w.interval <= 0 || w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := w.ledger.PurgeExpired(ctx, w.retention); err != nil && ctx.Err() == nil {
					w.ledger.logger.Error("session purge failed", zap.Error(err))
				}
			}
		}
	}()

	w.ledger.logger.Info("started session purge worker",
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention))
}

func (w *PurgeWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.wg.Wait()
	w.cancel = nil
}
