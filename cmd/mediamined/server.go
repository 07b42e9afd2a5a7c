package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	v1 "github.com/skoslow/mediamine/internal/api/v1"
	"github.com/skoslow/mediamine/internal/config"
	"github.com/skoslow/mediamine/internal/events"
	"github.com/skoslow/mediamine/internal/metadata"
	"github.com/skoslow/mediamine/internal/migrations"
	"github.com/skoslow/mediamine/internal/provider"
	"github.com/skoslow/mediamine/internal/providers"
	"github.com/skoslow/mediamine/internal/server"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(configPath string) error {
	// Load config
	cfg, err := config.LoadValidated(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Create logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Run migrations
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Background runner owns the bus, cache, and maintenance loops
	runner := server.NewRunner(db, server.Config{
		CachePruneInterval: cfg.Cache.PruneInterval.Std(),
		EventRetention:     cfg.Events.Retention.Std(),
		EventPruneInterval: cfg.Events.PruneInterval.Std(),
	}, logger)

	// Provider orchestration
	registry := providers.NewRegistry()
	source := config.NewProviderSource(configPath)
	orchestrator := provider.NewOrchestrator(registry, source, logger,
		provider.WithProgressSink(events.NewBusSink(runner.Bus())),
		provider.WithCallTimeout(cfg.Server.CallTimeout.Std()),
		provider.WithBreakerConfig(provider.BreakerConfig{
			FailureThreshold: uint32(cfg.Breaker.FailureThreshold),
			ResetTimeout:     cfg.Breaker.ResetTimeout.Std(),
		}),
	)

	// Enrichment service
	service := metadata.NewService(orchestrator, runner.Cache(), runner.Bus(), logger,
		metadata.WithTTL(cfg.Cache.TTL.Std()),
		metadata.WithSelection(selectionSettings(cfg)),
	)

	// REST API
	mux := http.NewServeMux()
	v1.New(v1.Deps{
		Enricher: service,
		Registry: registry,
		Source:   source,
		Breakers: orchestrator,
		EventLog: runner.EventLog(),
		Logger:   logger,
	}).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	logger.Info("daemon starting",
		"listen", cfg.Server.ListenAddr,
		"database", cfg.Database.Path,
		"providers", strings.Join(cfg.ProviderNames(), ","),
		"log_level", cfg.Server.LogLevel,
	)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := runner.Run(ctx)
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("runner: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("daemon stopped")
	return nil
}

func selectionSettings(cfg *config.Config) metadata.SelectionSettings {
	return metadata.SelectionSettings{
		PreferredLanguage: cfg.Selection.PreferredLanguage,
		AllowMultilingual: cfg.Selection.AllowMultilingual,
		MinWidth:          cfg.Selection.MinWidth,
		MinHeight:         cfg.Selection.MinHeight,
		Quality:           provider.Quality(cfg.Selection.Quality),
		MaxAssets:         cfg.Selection.MaxAssets,
		SimilarityCutoff:  cfg.Selection.SimilarityCutoff,
		ProviderPriority:  providerPriorityOrder(cfg),
	}
}

// providerPriorityOrder lists enabled providers best-first for selection
// boosts.
func providerPriorityOrder(cfg *config.Config) []string {
	names := cfg.ProviderNames()
	ordered := make([]string, 0, len(names))
	for _, name := range names {
		if cfg.Providers[name].Enabled {
			ordered = append(ordered, name)
		}
	}
	// Sort by configured priority, lower first.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && cfg.Providers[ordered[j]].Priority < cfg.Providers[ordered[j-1]].Priority; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return ordered
}
