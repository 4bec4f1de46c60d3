package main

import (
	"context"
	"io"
	"log/slog"
)

// shutdowner is anything drained with a deadline: the HTTP server and the
// telemetry providers.
type shutdowner interface {
	Shutdown(context.Context) error
}

// newCleanup returns the shutdown hook. Order matters: stop accepting
// requests, then close the store they use, then flush telemetry so the
// shutdown logs above are exported.
func newCleanup(ctx context.Context, server shutdowner, store io.Closer, telemetry shutdowner) func() {
	return func() {
		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to shut down HTTP server", "error", err)
			} else {
				slog.InfoContext(ctx, "HTTP server shutdown complete")
			}
		}

		if store != nil {
			if err := store.Close(); err != nil {
				slog.ErrorContext(ctx, "failed to close store", "error", err)
			}
		}

		if telemetry != nil {
			if err := telemetry.Shutdown(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to shut down telemetry", "error", err)
			}
		}
	}
}
