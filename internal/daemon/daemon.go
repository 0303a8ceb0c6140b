// Package daemon runs continuous versioning for a workspace: periodic scans
// via gocron, optional filesystem-triggered rescans, and an HTTP surface
// exposing the latest decisions and Prometheus metrics.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/relver/internal/config"
	"git.home.luguber.info/inful/relver/internal/logfields"
	"git.home.luguber.info/inful/relver/internal/scan"
)

// Daemon owns the scheduler, watcher, and HTTP server for one workspace.
type Daemon struct {
	cfg     *config.Config
	scanner *scan.Scanner
	handler *statusHandler

	// scanMu serializes scans. The interval job, the watcher callback, and
	// the startup scan all funnel through scanOnce; the engine requires one
	// run per artifact at a time, so an overlapping trigger is skipped
	// rather than queued.
	scanMu sync.Mutex

	mu         sync.Mutex
	lastResult *scan.Result
	lastScan   time.Time
	startedAt  time.Time
}

// New assembles a daemon around an already-configured scanner.
func New(cfg *config.Config, scanner *scan.Scanner) *Daemon {
	d := &Daemon{cfg: cfg, scanner: scanner}
	d.handler = newStatusHandler(d)
	return d
}

// Run blocks until ctx is cancelled, scanning on the configured interval and
// on watcher events. The first scan happens immediately.
func (d *Daemon) Run(ctx context.Context, metricsHandler httpHandler) error {
	d.startedAt = time.Now()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(d.cfg.Daemon.Interval),
		gocron.NewTask(func() { d.scanOnce(ctx, "interval") }),
		gocron.WithName("workspace-scan"),
	)
	if err != nil {
		return fmt.Errorf("schedule scan job: %w", err)
	}

	var watcher *treeWatcher
	if d.cfg.Daemon.Watch {
		watcher, err = newTreeWatcher(d.cfg, d.cfg.Daemon.Debounce, func() {
			d.scanOnce(ctx, "fsevent")
		})
		if err != nil {
			return err
		}
		defer watcher.Close()
		go watcher.Run(ctx)
	}

	server := d.startHTTP(metricsHandler)

	slog.Info("Daemon started",
		slog.String("listen", d.cfg.Daemon.Listen),
		slog.Duration("interval", d.cfg.Daemon.Interval),
		slog.Bool("watch", d.cfg.Daemon.Watch))

	d.scanOnce(ctx, "startup")
	scheduler.Start()

	<-ctx.Done()

	slog.Info("Daemon stopping")
	if err := scheduler.Shutdown(); err != nil {
		slog.Warn("Scheduler shutdown failed", logfields.Error(err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (d *Daemon) scanOnce(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	if !d.scanMu.TryLock() {
		slog.Debug("Scan already in progress, skipping", slog.String("trigger", trigger))
		return
	}
	defer d.scanMu.Unlock()

	res, err := d.scanner.Run(ctx, "")
	if err != nil {
		slog.Error("Scheduled scan failed", slog.String("trigger", trigger), logfields.Error(err))
		return
	}

	d.mu.Lock()
	d.lastResult = res
	d.lastScan = time.Now()
	d.mu.Unlock()
}

func (d *Daemon) snapshot() (*scan.Result, time.Time, time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastResult, d.lastScan, d.startedAt
}
