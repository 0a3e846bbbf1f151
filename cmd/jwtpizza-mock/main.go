package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/app"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/directory"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/intercept"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/mockapi"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/observability"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/pizza"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/platform/cache"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("mock server", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	id := uuid.New()

	store, closeStore, err := openStore(ctx, cfg, id, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var seed []pizza.Account
	if cfg.SeedFile != "" {
		seed, err = pizza.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return fmt.Errorf("load seed %s: %w", cfg.SeedFile, err)
		}
		logger.Info("seed loaded", slog.String("path", cfg.SeedFile), slog.Int("accounts", len(seed)))
	}

	backend, err := mockapi.New(ctx, mockapi.Options{ID: id, Logger: logger, Store: store, Seed: seed})
	if err != nil {
		return fmt.Errorf("build backend: %w", err)
	}

	metrics := observability.NewMetrics()
	router := intercept.NewRouter(intercept.WithLogger(logger), intercept.WithObserver(metrics.ObserveIntercept))
	backend.Install(router)

	server := &http.Server{
		Addr: cfg.AppAddr,
		Handler: app.NewRouter(app.RouterParams{
			Logger:    logger,
			Config:    cfg,
			Backend:   backend,
			Intercept: router,
			Metrics:   metrics,
		}),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", id.String()), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore returns the account directory selected by STORE_DRIVER. Each
// process gets its own Redis namespace so parallel runs do not collide.
func openStore(ctx context.Context, cfg *app.Config, id uuid.UUID, logger *slog.Logger) (directory.Store, func(), error) {
	if cfg.StoreDriver != app.StoreRedis {
		return directory.NewMemory(nil), func() {}, nil
	}
	client, err := cache.Dial(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	store := directory.NewRedis(client, id.String())
	return store, func() {
		if err := store.Flush(context.Background()); err != nil {
			logger.Warn("redis flush", slog.Any("error", err))
		}
		if err := client.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}, nil
}
