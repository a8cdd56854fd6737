package engine

import (
	"context"
	"time"
)

// RunCompletionSweep invokes ProcessCompletions every interval until
// the context is cancelled. Errors are logged and the loop keeps
// running; the sweep is idempotent so a failed pass is simply retried
// on the next tick.
func (e *Engine) RunCompletionSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	e.log.Info("completion sweep started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			e.log.Info("completion sweep stopped")
			return
		case <-ticker.C:
			n, err := e.ProcessCompletions(ctx)
			if err != nil {
				e.log.Error("completion sweep failed", "error", err)
				continue
			}
			if n > 0 {
				e.log.Info("bookings completed", "count", n)
			}
		}
	}
}
