// cmd/server is the HTTP entry point.
// It wires together all layers and starts the HTTP server.
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

	"github.com/Shivanand-hulikatti/berletkezelo/internal/config"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/database"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/handler"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/logger"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/notify"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/repository"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New("berletkezelo-server", cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	log.Info("connected to PostgreSQL", "host", cfg.DB.Host, "db", cfg.DB.DBName)

	// ── 2. Wire up layers ────────────────────────────────────────────────
	sender, closeSender, err := notify.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("mail sender: %w", err)
	}
	defer func() { _ = closeSender() }()

	store := repository.NewPgStore(pool)
	mailer := notify.NewMailer(sender, cfg.Notifications, cfg.Timezone)
	svc := service.New(store, mailer, service.WithLocation(cfg.Timezone))
	router := handler.NewRouter(handler.New(svc), cfg.JWTSecret)

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}
