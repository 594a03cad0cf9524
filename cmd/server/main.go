// Command server runs the blobgate file gateway.
//
// Configuration is read from a YAML file and environment variables; see
// package config for the full list. Commonly used variables:
//
//	BLOBGATE_CONFIG   - Path to the YAML config file
//	BLOBGATE_AUDIENCE - Expected token audience (required)
//	BLOBGATE_ISSUER   - Expected token issuer (required)
//	BLOBGATE_API_KEY  - Shared api key (optional)
//	BLOBGATE_STORAGE  - Storage type: "memory" or "postgres" (default: "memory")
//	PORT              - Listen port (default: 8080)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/rhuss/blobgate/pkg/config"
	"github.com/rhuss/blobgate/pkg/observability"
	"github.com/rhuss/blobgate/pkg/storage"
	"github.com/rhuss/blobgate/pkg/storage/memory"
	"github.com/rhuss/blobgate/pkg/storage/postgres"
	"github.com/rhuss/blobgate/pkg/transport"
	transporthttp "github.com/rhuss/blobgate/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := observability.InitLogging(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}

	ctx := context.Background()

	store, err := newStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	handler, err := newHandler(cfg, store, logger)
	if err != nil {
		return err
	}

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(":" + strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithReadTimeout(cfg.Server.ReadTimeout),
		transporthttp.WithWriteTimeout(cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	}

	if rl := cfg.Server.RateLimit; rl.Enabled() {
		limiter := transport.NewRateLimiter(rl.RequestsPerSecond, rl.Burst)
		stop := make(chan struct{})
		defer close(stop)
		go limiter.RunCleanup(time.Minute, stop)

		opts = append(opts, transporthttp.WithMiddleware(transport.RateLimit(limiter, logger)))
		logger.Info("rate limiting enabled",
			"requests_per_second", rl.RequestsPerSecond, "burst", rl.Burst)
	}

	srv := transporthttp.NewServer(handler, opts...)

	logger.Info("blobgate configured",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"api_key_enabled", cfg.Auth.APIKey != "",
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	return srv.ListenAndServe()
}

// newStore creates the configured file store.
func newStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.FileStore, error) {
	switch cfg.Type {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		logger.Info("storage enabled", "type", "postgres", "max_conns", cfg.Postgres.MaxConns)
		return store, nil
	default:
		logger.Info("storage enabled", "type", "memory", "max_size", cfg.MaxSize)
		return memory.New(cfg.MaxSize), nil
	}
}
