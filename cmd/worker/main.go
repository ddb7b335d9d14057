// The worker binary runs the scheduled feed refreshes and retention sweeps.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/jdholdren/newsroom/internal/database"
	"github.com/jdholdren/newsroom/internal/logger"
	"github.com/jdholdren/newsroom/internal/retention"
	"github.com/jdholdren/newsroom/internal/sqlstore"
	newssync "github.com/jdholdren/newsroom/internal/sync"
	"github.com/jdholdren/newsroom/internal/worker"
)

type config struct {
	Database         string           `env:"DATABASE, required"`
	Dialect          database.Dialect `env:"DIALECT, default=sqlite"`
	TemporalHostPort string           `env:"TEMPORAL_HOST_PORT, required"`
	TemporalNS       string           `env:"TEMPORAL_NAMESPACE, default=default"`

	LogFormat string `env:"LOG_FORMAT, default=text"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	SyncInterval       time.Duration `env:"SYNC_INTERVAL, default=15m"`
	RetentionInterval  time.Duration `env:"RETENTION_INTERVAL, default=24h"`
	RetentionThreshold int           `env:"RETENTION_THRESHOLD, default=200"`
	RetentionDeadline  time.Duration `env:"RETENTION_DEADLINE, default=5m"`

	FetchTimeout      time.Duration `env:"FETCH_TIMEOUT, default=10s"`
	RequestsPerSecond float64       `env:"FETCH_REQUESTS_PER_SECOND, default=5"`
	UserAgent         string        `env:"USER_AGENT, default=newsroom/1.0"`
}

func main() {
	ctx := context.Background()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	l := logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(l)

	if err := runWorker(ctx, cfg, l); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func runWorker(ctx context.Context, cfg config, l *slog.Logger) error {
	if err := retention.CheckDeadline(cfg.RetentionDeadline); err != nil {
		return err
	}

	dbx, err := database.Open(ctx, cfg.Dialect, cfg.Database)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer dbx.Close()

	if err := database.RunMigrations(dbx, cfg.Dialect); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}

	// Retry until temporal is ready
	var temporalCli client.Client
	if err := retry.Fibonacci(ctx, 1*time.Second, func(ctx context.Context) error {
		c, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalHostPort,
			Namespace: cfg.TemporalNS,
			Logger:    tlog.NewStructuredLogger(l),
		})
		if err != nil {
			slog.WarnContext(ctx, "temporal not ready", "error", err)
			return retry.RetryableError(err)
		}
		temporalCli = c

		return nil
	}); err != nil {
		return fmt.Errorf("unable to create temporal client: %w", err)
	}
	defer temporalCli.Close()

	if err := worker.EnsureNamespace(ctx, temporalCli.WorkflowService(), cfg.TemporalNS, 72*time.Hour); err != nil {
		return err
	}

	var (
		repo    = sqlstore.New(dbx, cfg.Dialect)
		fetcher = newssync.NewFetcher(newssync.FetcherConfig{
			Timeout:           cfg.FetchTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			UserAgent:         cfg.UserAgent,
		})
		manager = retention.NewManager(repo, retention.WithDeadline(cfg.RetentionDeadline), retention.WithLogger(l))
	)

	w, err := worker.NewWorker(ctx, worker.Config{
		SyncInterval:       cfg.SyncInterval,
		RetentionInterval:  cfg.RetentionInterval,
		RetentionThreshold: cfg.RetentionThreshold,
		RetentionDeadline:  cfg.RetentionDeadline,
	}, temporalCli, repo, newssync.NewSyncer(repo, fetcher), manager)
	if err != nil {
		return err
	}

	var g run.Group
	{
		stop := make(chan any)
		g.Add(func() error {
			slog.Info("starting worker", "task_queue", worker.TaskQueue)
			return w.Run(stop)
		}, func(error) {
			close(stop)
		})
	}
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	if errors.Is(err, run.ErrSignal) {
		slog.Info("shutting down", "reason", err)
		return nil
	}

	return err
}
