package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/cuetext/internal/config"
	"github.com/JonMunkholm/cuetext/internal/core"
	_ "github.com/JonMunkholm/cuetext/internal/core/pipelines" // Register all pipelines
	"github.com/JonMunkholm/cuetext/internal/jobs"
	"github.com/JonMunkholm/cuetext/internal/logging"
	"github.com/JonMunkholm/cuetext/internal/notebook"
	"github.com/JonMunkholm/cuetext/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists; variables already set in the environment win
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"backend", cfg.Convert.Backend,
		"max_concurrent", cfg.Convert.MaxConcurrent,
		"retention", cfg.Storage.Retention.String(),
		"job_history", historyKind(cfg),
	)

	layout, err := jobs.NewLayout(cfg.Storage.UploadsDir, cfg.Storage.OutputsDir)
	if err != nil {
		slog.Error("failed to prepare job directories", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open job history", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	service := core.NewService(cfg.Convert, layout, store)
	service.RegisterBackend(config.BackendNotebook, notebook.Factory(cfg.Convert))

	slog.Info("pipelines registered", "count", core.PipelineCount())
	for _, p := range core.All() {
		slog.Debug("pipeline", "key", p.Key, "label", p.Label, "out_name", p.DefaultOutName)
	}

	server := web.NewServer(cfg, service)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go core.StartRetentionSweeper(jobCtx, layout, core.RetentionConfig{
		Retention:     cfg.Storage.Retention,
		CheckInterval: cfg.Storage.SweepInterval,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for conversions to complete", "active", status.Active)
			if err := service.WaitForConversions(shutdownCtx); err != nil {
				slog.Warn("conversions did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		closeStore()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

func historyKind(cfg *config.Config) string {
	if cfg.Database.URL == "" {
		return "memory"
	}
	return "postgres"
}

// openStore returns the PostgreSQL job history when DATABASE_URL is set and
// the in-memory history otherwise.
func openStore(ctx context.Context, cfg *config.Config) (jobs.Store, func(), error) {
	if cfg.Database.URL == "" {
		return jobs.NewMemoryStore(cfg.Database.HistorySize), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	store, err := jobs.NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
