// Package besteffort runs side effects whose failure must be logged and never
// returned to the caller.
package besteffort

import (
	"context"
	"log/slog"
	"time"
)

// Run executes fn synchronously and logs a failure.
func Run(ctx context.Context, log *slog.Logger, op string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		log.WarnContext(ctx, "best-effort operation failed", slog.String("op", op), slog.Any("err", err))
	}
}

// Go executes fn on its own goroutine, detached from the caller's cancellation,
// bounded by timeout. The returned channel is closed once fn has finished.
func Go(ctx context.Context, log *slog.Logger, op string, timeout time.Duration, fn func(context.Context) error) <-chan struct{} {
	done := make(chan struct{})
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	go func() {
		defer close(done)
		defer cancel()
		Run(detached, log, op, fn)
	}()
	return done
}
