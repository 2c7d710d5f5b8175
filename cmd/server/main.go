package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/catalogsync/internal/config"
	"github.com/JonMunkholm/catalogsync/internal/core"
	"github.com/JonMunkholm/catalogsync/internal/core/domains"
	"github.com/JonMunkholm/catalogsync/internal/logging"
	"github.com/JonMunkholm/catalogsync/internal/metrics"
	"github.com/JonMunkholm/catalogsync/internal/store"
	"github.com/JonMunkholm/catalogsync/internal/syncapi"
	"github.com/JonMunkholm/catalogsync/internal/web"
)

// backend is the status store plus where activity entries go.
type backend struct {
	statuses core.StatusStore
	sink     core.LogSink
	reader   core.ActivityReader
	close    func()
}

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open status store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer be.close()

	transport, err := syncapi.NewClient(syncapi.Config{
		URL:      cfg.Sync.URL,
		Token:    cfg.Sync.Token,
		Timeout:  cfg.Sync.Timeout,
		RetryMax: cfg.Sync.RetryMax,
		Logger:   logger.With("component", "syncapi"),
	})
	if err != nil {
		slog.Error("failed to create sync client", "error", err)
		os.Exit(1)
	}

	var (
		observer core.Observer
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		observer = metrics.New(reg)
		gatherer = reg
	}

	registry := domains.NewRegistry()
	for _, def := range registry.All() {
		slog.Debug("domain registered", "domain", def.Domain, "columns", len(def.Schema().Headers()))
	}

	service, err := core.NewService(core.ServiceConfig{
		Registry:  registry,
		Transport: transport,
		Store:     be.statuses,
		Activity:  core.NewActivityLog(nil, core.SlogSink{Logger: logger}, be.sink),
		Reader:    be.reader,
		Limiter:   core.NewExportLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime),
		Observer:  observer,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	slog.Info("domains registered", "count", registry.Len())

	server := web.NewServer(service, cfg, gatherer)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for exports to complete", "active", status.Active)
			if err := service.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("exports did not complete in time", "error", err)
			} else {
				slog.Info("all exports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openBackend connects the configured status store.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &backend{statuses: pg, sink: pg, reader: pg.ActivityReader(), close: pool.Close}, nil

	case config.StoreRedis:
		client, err := openRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		rs := store.NewRedis(client, store.WithPrefix(cfg.Redis.KeyPrefix))
		if err := rs.Ping(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		activity := core.NewMemoryActivity(cfg.Store.ActivityBufferSize)
		return &backend{
			statuses: rs,
			sink:     activity,
			reader:   activity,
			close:    func() { client.Close() },
		}, nil

	default:
		slog.Warn("using in-memory status store; statuses are lost on restart")
		activity := core.NewMemoryActivity(cfg.Store.ActivityBufferSize)
		return &backend{
			statuses: core.NewMemoryStatusStore(),
			sink:     activity,
			reader:   activity,
			close:    func() {},
		}, nil
	}
}

func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}

func openRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	slog.Info("connecting to redis", "addr", opts.Addr, "db", opts.DB)
	return redis.NewClient(opts), nil
}
