package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/application/ordering"
	"github.com/rezkam/boardly/internal/capacity"
	"github.com/rezkam/boardly/internal/config"
	httpserver "github.com/rezkam/boardly/internal/infrastructure/http"
	"github.com/rezkam/boardly/internal/infrastructure/http/handler"
	"github.com/rezkam/boardly/internal/infrastructure/observability"
	"github.com/rezkam/boardly/internal/infrastructure/persistence"
)

const defaultShutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		// slog may not be initialised when config fails.
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	// Root context for normal operation; cancelled on SIGTERM/SIGINT.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	telemetry, err := observability.Init(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	slog.SetDefault(telemetry.Log)

	store, err := persistence.Open(ctx, cfg.Storage)
	if err != nil {
		shutdownCtx, cancel := newShutdownContext(cfg.ShutdownTimeout)
		defer cancel()
		return errors.Join(fmt.Errorf("failed to open store: %w", err), telemetry.Shutdown(shutdownCtx))
	}

	limits, err := startCapacity(ctx, cfg.Capacity)
	if err != nil {
		shutdownCtx, cancel := newShutdownContext(cfg.ShutdownTimeout)
		defer cancel()
		return errors.Join(err, store.Close(), telemetry.Shutdown(shutdownCtx))
	}

	svc := board.NewService(store, board.Config{
		Limits: limits,
		Retry: ordering.RetryConfig{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
		},
		Meter: telemetry.AppMeter(),
	})

	api := httpserver.NewAPIServer(handler.NewRouter(svc), httpserver.ServerConfig{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
	})

	slog.InfoContext(ctx, "starting boardly service",
		"storage", persistence.Describe(cfg.Storage),
		"max_lists_per_board", limits.Current().MaxListsPerBoard,
		"max_cards_per_list", limits.Current().MaxCardsPerList)

	errResult := make(chan error, 1)
	go func() {
		if err := api.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errResult <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")
	case serveErr = <-errResult:
		cancel()
	}

	// ctx is already cancelled; cleanup gets its own deadline.
	shutdownCtx, cancelShutdown := newShutdownContext(cfg.ShutdownTimeout)
	defer cancelShutdown()
	newCleanup(shutdownCtx, api, store, telemetry)()

	return serveErr
}

// startCapacity builds the limit provider from env values, overlays the
// capacity file when configured and watches it until ctx is done.
func startCapacity(ctx context.Context, cfg config.CapacityConfig) (*capacity.Provider, error) {
	base := cfg.Limits()
	if cfg.File == "" {
		return capacity.NewProvider(base), nil
	}

	limits, err := capacity.LoadFile(cfg.File, base)
	if errors.Is(err, os.ErrNotExist) {
		slog.WarnContext(ctx, "capacity file not found, using environment limits", "path", cfg.File)
		limits = base
	} else if err != nil {
		return nil, err
	}

	provider := capacity.NewProvider(limits)
	go func() {
		if err := provider.Watch(ctx, cfg.File, base); err != nil {
			slog.ErrorContext(ctx, "capacity watcher stopped", "path", cfg.File, "error", err)
		}
	}()
	return provider, nil
}

// newShutdownContext returns a fresh deadline for cleanup. The main context
// is already cancelled at shutdown time.
func newShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}
