package echo

import (
	"context"
	"time"

	"goecho/internal/link"
	"goecho/util"
)

// StartIndicator launches the "still connecting" dot printer: a
// background task that polls the link read-only and prints a progress
// dot every interval until the link is up or stop is called.  The
// returned stop function is idempotent and waits for the goroutine to
// finish.
func StartIndicator(ctx context.Context, l link.Link, logger *util.Logger, interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if l.IsConnected() {
					return
				}
				logger.Progress(".")
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
