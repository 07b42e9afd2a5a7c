// Package server provides the long-running background components of the
// daemon.
package server

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skoslow/mediamine/internal/events"
	"github.com/skoslow/mediamine/internal/metadata"
)

// Config for the background runner.
type Config struct {
	CachePruneInterval time.Duration
	EventRetention     time.Duration
	EventPruneInterval time.Duration
}

// Runner owns the event bus, the metadata cache, and their maintenance
// loops.
type Runner struct {
	db       *sql.DB
	bus      *events.Bus
	eventLog *events.EventLog
	cache    *metadata.Cache
	config   Config
	logger   *slog.Logger
}

// NewRunner creates a new runner with a persisted event bus.
func NewRunner(db *sql.DB, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CachePruneInterval <= 0 {
		cfg.CachePruneInterval = time.Hour
	}
	if cfg.EventRetention <= 0 {
		cfg.EventRetention = 7 * 24 * time.Hour
	}
	if cfg.EventPruneInterval <= 0 {
		cfg.EventPruneInterval = 6 * time.Hour
	}

	eventLog := events.NewEventLog(db)
	return &Runner{
		db:       db,
		bus:      events.NewBus(eventLog, logger.With("component", "bus")),
		eventLog: eventLog,
		cache:    metadata.NewCache(db),
		config:   cfg,
		logger:   logger.With("component", "runner"),
	}
}

// Bus returns the event bus.
func (r *Runner) Bus() *events.Bus { return r.bus }

// Cache returns the metadata cache.
func (r *Runner) Cache() *metadata.Cache { return r.cache }

// EventLog returns the persisted event log.
func (r *Runner) EventLog() *events.EventLog { return r.eventLog }

// Run starts the maintenance loops and blocks until the context is
// canceled.
func (r *Runner) Run(ctx context.Context) error {
	defer r.bus.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.pruneLoop(ctx, "cache", r.config.CachePruneInterval, func(ctx context.Context) (int64, error) {
			return r.cache.Prune(ctx)
		})
	})

	g.Go(func() error {
		return r.pruneLoop(ctx, "events", r.config.EventPruneInterval, func(ctx context.Context) (int64, error) {
			return r.eventLog.Prune(r.config.EventRetention)
		})
	})

	return g.Wait()
}

func (r *Runner) pruneLoop(ctx context.Context, name string, interval time.Duration, prune func(context.Context) (int64, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("prune loop started", "target", name, "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("prune loop stopped", "target", name)
			return ctx.Err()
		case <-ticker.C:
			removed, err := prune(ctx)
			if err != nil {
				r.logger.Error("prune failed", "target", name, "error", err)
				continue
			}
			if removed > 0 {
				r.logger.Info("pruned expired entries", "target", name, "removed", removed)
			}
		}
	}
}
