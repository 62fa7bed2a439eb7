package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/elecmate/studyquiz/internal/config"
	"github.com/elecmate/studyquiz/internal/content"
	"github.com/elecmate/studyquiz/internal/database"
	"github.com/elecmate/studyquiz/internal/handler/health"
	"github.com/elecmate/studyquiz/internal/migrations"
	"github.com/elecmate/studyquiz/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Content ---
	source, fsys := "embedded", content.Embedded()
	if cfg.ContentDir != "" {
		source, fsys = cfg.ContentDir, os.DirFS(cfg.ContentDir)
	}
	registry, err := server.NewRegistry(source, func() (*content.Catalog, error) {
		return content.Load(fsys)
	})
	if err != nil {
		return err
	}
	rep := registry.Report()
	logger.Info("content loaded", "source", source, "lessons", rep.Lessons, "exams", rep.Exams, "questions", rep.Questions)

	checks := map[string]health.Checker{
		"content": contentChecker{registry},
	}

	// --- Session store ---
	var store server.Store
	switch cfg.SessionStore {
	case config.StoreSQLite:
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("connecting to sqlite: %w", err)
		}
		defer db.Close()

		if err := migrations.Run(ctx, db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", cfg.DBPath)
		docs := server.NewDocStore(db)
		store = docs
		checks["sqlite"] = docs

	case config.StoreRedis:
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")
		rs := server.NewRedisStore(rdb)
		store = rs
		checks["redis"] = rs

	default:
		store = server.NewMemoryStore()
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Options{
		Store:          store,
		Registry:       registry,
		AdminTokenHash: cfg.AdminTokenHash,
		CORSOrigins:    cfg.CORSOrigins,
		SessionTTL:     cfg.SessionTTL,
		StaticDir:      cfg.StaticDir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "store", cfg.SessionStore)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return server.RunJanitor(gctx, store, cfg.JanitorInterval, logger)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// contentChecker reports a failed reload. The previous catalog is still
// being served, but the content on disk needs attention.
type contentChecker struct{ registry *server.Registry }

func (c contentChecker) Check(context.Context) error {
	if rep := c.registry.Report(); rep.LastError != "" {
		return errors.New(rep.LastError)
	}
	return nil
}
