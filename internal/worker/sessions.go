package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper purges stale sessions. claim.Manager implements it.
type Sweeper interface {
	Sweep(retention time.Duration) int
}

// StartSessionSweeper starts the worker that purges settled and abandoned claim sessions
func StartSessionSweeper(ctx context.Context, sessions Sweeper, interval, retention time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(retention); n > 0 {
					log.Info("claim sessions purged", zap.Int("count", n))
				}
			}
		}
	}()

	log.Info("session sweeper started", zap.Duration("interval", interval))
}
