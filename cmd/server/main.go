package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/api"
	"github.com/Harshitk-cp/strainfeed/internal/buildconfig"
	"github.com/Harshitk-cp/strainfeed/internal/config"
	"github.com/Harshitk-cp/strainfeed/internal/domain"
	"github.com/Harshitk-cp/strainfeed/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	nodes := store.NewNodeStore()
	edges := store.NewEdgeStore()

	source, closeSource := seedSource(ctx, logger)
	if source != nil {
		seed, err := source.Load(ctx)
		if err != nil {
			logger.Fatal("failed to load seed", zap.Error(err))
		}
		if err := store.Populate(ctx, seed, nodes, edges); err != nil {
			logger.Fatal("failed to populate graph", zap.Error(err))
		}
		logger.Info("graph seeded", zap.Int("nodes", nodes.Len()), zap.Int("edges", edges.Len()))
	}
	closeSource()

	app := api.NewApp(nodes, edges, logger)
	app.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()),
			zap.String("commit", buildconfig.Commit()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	// Ending the feeds first lets streaming handlers return before Shutdown waits on them.
	app.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// seedSource picks Postgres when DATABASE_URL is set, then SEED_FILE, and
// otherwise starts with an empty graph. The returned func releases the source.
func seedSource(ctx context.Context, logger *zap.Logger) (domain.SeedSource, func()) {
	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("seeding from database")
		return store.NewPostgresSeedSource(pool), pool.Close
	}

	if path := config.SeedFile(); path != "" {
		logger.Info("seeding from file", zap.String("path", path))
		return store.NewFileSeedSource(path), func() {}
	}

	logger.Info("no seed configured, starting with an empty graph")
	return nil, func() {}
}
