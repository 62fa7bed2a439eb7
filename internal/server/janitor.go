package server

import (
	"context"
	"log/slog"
	"time"
)

// RunJanitor purges expired sessions every interval until ctx is cancelled.
func RunJanitor(ctx context.Context, store Store, interval time.Duration, logger *slog.Logger) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			n, err := store.PurgeExpired(ctx, now)
			if err != nil {
				logger.Error("purging expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", "count", n)
			}
		}
	}
}
