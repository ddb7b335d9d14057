// The api binary serves the reader's JSON API.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/sethvargo/go-envconfig"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/jdholdren/newsroom/internal/api"
	"github.com/jdholdren/newsroom/internal/database"
	"github.com/jdholdren/newsroom/internal/logger"
	"github.com/jdholdren/newsroom/internal/news"
	"github.com/jdholdren/newsroom/internal/retention"
	"github.com/jdholdren/newsroom/internal/sqlstore"
	newssync "github.com/jdholdren/newsroom/internal/sync"
)

type config struct {
	Database string           `env:"DATABASE, required"`
	Dialect  database.Dialect `env:"DIALECT, default=sqlite"`

	Port       int    `env:"PORT, default=4444"`
	CorsOrigin string `env:"CORS_ORIGIN, default=*"`

	// Which format to use for logging: either text or json
	LogFormat string `env:"LOG_FORMAT, default=text"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	RetentionDeadline time.Duration `env:"RETENTION_DEADLINE, default=5m"`
	FetchTimeout      time.Duration `env:"FETCH_TIMEOUT, default=10s"`
	UserAgent         string        `env:"USER_AGENT, default=newsroom/1.0"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	l := logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(l)

	dbx, err := database.Open(ctx, cfg.Dialect, cfg.Database)
	if err != nil {
		log.Fatalf("error opening database: %s", err)
	}
	defer dbx.Close()

	// Run all migrations
	if err := database.RunMigrations(dbx, cfg.Dialect); err != nil {
		log.Fatalf("error running migrations: %s", err)
	}

	if err := retention.CheckDeadline(cfg.RetentionDeadline); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	var (
		repo    = sqlstore.New(dbx, cfg.Dialect)
		fetcher = newssync.NewFetcher(newssync.FetcherConfig{
			Timeout:   cfg.FetchTimeout,
			UserAgent: cfg.UserAgent,
		})
	)

	// Start the application
	fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.SlogLogger{Logger: l}
		}),
		fx.Supply(
			api.ServerConfig{
				Port:       cfg.Port,
				CorsOrigin: cfg.CorsOrigin,
			},
			fx.Annotate(repo, fx.As(new(news.Repository))),
			newssync.NewSyncer(repo, fetcher),
			retention.NewManager(repo, retention.WithDeadline(cfg.RetentionDeadline), retention.WithLogger(l)),
		),
		api.Module,
		fx.Invoke(func(*api.Server) {}), // Start the server
	).Run()
}
