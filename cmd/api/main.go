package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chethana369/Auto-resume-checker/internal/bootstrap"
	"github.com/chethana369/Auto-resume-checker/internal/shared/config"
	"github.com/chethana369/Auto-resume-checker/internal/shared/server"
	"github.com/chethana369/Auto-resume-checker/internal/shared/telemetry"
)

const (
	pruneInterval   = 15 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, cfg)
	stop()
	_ = telemetry.Sync()
	if err != nil {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. Resources are released before it returns.
func run(ctx context.Context, cfg config.Config) error {
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() { _ = app.Close() }()

	go pruneSessions(ctx, app)

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			telemetry.Error("server.shutdown_failed", map[string]any{"error": err})
		}
	}()

	telemetry.Info("server.start", map[string]any{"addr": srv.Addr, "env": cfg.Env})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	telemetry.Info("server.stopped", nil)
	return nil
}

func pruneSessions(ctx context.Context, app *bootstrap.App) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.SessionsService.Prune(ctx); err != nil {
				telemetry.Warn("session.prune_failed", map[string]any{"error": err})
			}
			if _, err := app.AnalysesService.Prune(ctx); err != nil {
				telemetry.Warn("analysis.prune_failed", map[string]any{"error": err})
			}
		}
	}
}
