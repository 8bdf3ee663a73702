// cmd/sweep runs one notification sweep and exits. A scheduler (cron,
// systemd timer, Kubernetes CronJob) is expected to start it hourly.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/config"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/database"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/lock"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/logger"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/notify"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/repository"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/service"
)

func main() {
	cfg := config.Load()
	timeout := flag.Duration("timeout", cfg.Sweep.Timeout, "abort the sweep after this long")
	flag.Parse()

	log := logger.New("berletkezelo-sweep", cfg.Env).With("run_id", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *timeout, log,
		func(ctx context.Context) (func(), error) { return acquireLock(ctx, cfg, log) },
		func(ctx context.Context) error { return sweep(ctx, cfg, log) },
	)
	stop()
	if err != nil {
		log.Error("sweep failed", "error", err)
		os.Exit(1)
	}
}

// run holds the sweep lock around fn. The lock is released before run
// returns, also when fn is abandoned on timeout or signal.
func run(
	ctx context.Context,
	timeout time.Duration,
	log *slog.Logger,
	acquire func(context.Context) (func(), error),
	fn func(context.Context) error,
) error {
	release, err := acquire(ctx)
	if errors.Is(err, lock.ErrHeld) {
		log.Info("another sweep is running, skipping")
		return nil
	}
	if err != nil {
		return err
	}
	defer release()

	return runWithTimeout(ctx, timeout, fn)
}

// runWithTimeout runs fn under a deadline and gives up waiting once it
// passes.
func runWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- fn(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("sweep aborted (timeout %v): %w", timeout, ctx.Err())
	}
}

func sweep(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	pool, err := database.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	sender, closeSender, err := notify.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("mail sender: %w", err)
	}
	defer func() { _ = closeSender() }()

	mailer := notify.NewMailer(sender, cfg.Notifications, cfg.Timezone)
	sweeper := service.NewSweeper(repository.NewPgStore(pool), mailer)

	_, err = sweeper.Run(ctx, time.Now())
	return err
}

// acquireLock takes the sweep lock. When Redis is not configured or not
// reachable the sweep runs unguarded: the write-once flags still prevent
// double marking, only a concurrent duplicate send is possible.
func acquireLock(ctx context.Context, cfg config.Config, log *slog.Logger) (func(), error) {
	noop := func() {}
	if cfg.Redis.Addr == "" {
		return noop, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, running without lock", "addr", cfg.Redis.Addr, "error", err)
		_ = client.Close()
		return noop, nil
	}

	l, err := lock.New(client).Acquire(ctx, cfg.Sweep.LockKey, cfg.Sweep.LockTTL)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return func() {
		// The run context may already be done; release on a fresh one.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.Release(rctx); err != nil {
			log.Warn("failed to release sweep lock", "error", err)
		}
		_ = client.Close()
	}, nil
}
