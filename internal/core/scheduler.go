package core

// scheduler.go removes expired job directories in the background.
//
// Uploaded workbooks and generated files stay on disk so results can be
// downloaded after the response. The sweeper deletes job directories older
// than the retention period. A failed sweep is logged and retried on the next
// tick.

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/cuetext/internal/jobs"
)

// RetentionConfig holds configuration for the retention sweeper.
type RetentionConfig struct {
	Retention     time.Duration // Age after which job dirs are removed; 0 disables
	CheckInterval time.Duration // How often to run (default: 1h)
}

// StartRetentionSweeper blocks, periodically removing expired job
// directories. It runs immediately on start, then every CheckInterval, and
// returns when ctx is cancelled.
func StartRetentionSweeper(ctx context.Context, layout *jobs.Layout, cfg RetentionConfig) {
	if cfg.Retention <= 0 {
		slog.Info("retention sweeper disabled")
		return
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}

	slog.Info("retention sweeper started",
		"retention", cfg.Retention.String(),
		"interval", cfg.CheckInterval.String(),
	)

	runSweep(layout, cfg.Retention)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			runSweep(layout, cfg.Retention)
		}
	}
}

// runSweep performs one sweep cycle.
func runSweep(layout *jobs.Layout, retention time.Duration) {
	start := time.Now()
	removed, err := layout.Sweep(start.Add(-retention))
	if err != nil {
		slog.Error("sweep failed", "error", err, "removed", removed)
		return
	}
	slog.Info("sweep completed",
		"removed", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
