package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"financas/internal/backend"
	"financas/internal/cache"
	"financas/internal/cli"
	"financas/internal/format"
	apphttp "financas/internal/http"
	"financas/internal/log"
	"financas/internal/services"
)

const (
	seedTimeout     = 30 * time.Second
	shutdownTimeout = 30 * time.Second
	cacheCleanEvery = 10 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create data backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	seedCtx, cancelSeed := context.WithTimeout(ctx, seedTimeout)
	data, err := result.Source.Load(seedCtx)
	cancelSeed()
	if err != nil {
		logger.Error("Failed to load seed data", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if err := data.Validate(); err != nil {
		logger.Error("Seed data rejected", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Seed data loaded",
		log.FieldBackend, cfg.DataBackend,
		log.FieldCount, len(data.Transactions),
		"categories", len(data.Categories))

	ledger := services.NewLedger(data.Transactions, data.Categories,
		services.WithLogger(logger),
		services.WithFallbackCategory(cfg.FallbackCategory))

	formatter, err := format.New(cfg.DisplayTimezone)
	if err != nil {
		logger.Error("Invalid display timezone", log.FieldError, err)
		os.Exit(1)
	}

	caches := cache.NewManager(logger)
	opts := []apphttp.Option{apphttp.WithCacheManager(caches)}
	if p, ok := result.Source.(backend.Pinger); ok {
		opts = append(opts, apphttp.WithPinger(p))
	}

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ViewCacheTTL:       cfg.ViewCacheTTL,
		TrustedProxies:     cfg.TrustedProxies,
	}, ledger, formatter, logger, opts...)
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	caches.StartCleanup(ctx, cacheCleanEvery)
	defer caches.Stop()
	srv.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting financas server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
