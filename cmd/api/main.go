package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hometex/storefront/api/routes"
	"github.com/hometex/storefront/internal/session"
	"github.com/hometex/storefront/pkg/config"
	"github.com/hometex/storefront/pkg/hometexapi"
	"github.com/hometex/storefront/pkg/instance"
	"github.com/hometex/storefront/pkg/latency"
	"github.com/hometex/storefront/pkg/logger"
	"github.com/hometex/storefront/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"storage":  cfg.Storage.NormalizedDriver(),
		"instance": instance.GetID(),
	})

	backend, err := openStorage(ctx, cfg, logg)
	requireResource(ctx, logg, "storage", err)
	defer func() {
		if err := backend.Close(); err != nil {
			logg.Error(context.Background(), "error closing storage", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	manager, err := session.NewManager(session.ManagerParams{
		Storage: backend.provider,
		Backend: hometexapi.NewClient(
			hometexapi.WithBaseURL(cfg.Backend.BaseURL),
			hometexapi.WithTimeout(cfg.Backend.Timeout),
		),
		Logger:          logg,
		Metrics:         metrics.NewStoreMetrics(registry),
		SocialWaiter:    latency.NewTimer(cfg.Checkout.SocialLoginDelay),
		PlacementWaiter: latency.NewTimer(cfg.Checkout.OrderPlacementDelay),
		DebounceWindow:  cfg.Notify.DebounceWindow,
		FeedCapacity:    cfg.Notify.FeedCapacity,
		TokenLeeway:     cfg.JWT.ExpiryLeeway,
		IdleTTL:         cfg.Session.IdleTTL,
	})
	requireResource(ctx, logg, "session manager", err)

	go func() {
		if err := manager.Run(ctx); err != nil {
			logg.Error(ctx, "session eviction stopped", err)
		}
	}()
	if backend.sweeper != nil {
		go sweepPeriodically(ctx, cfg.AuthRateLimit.Window, backend.sweeper)
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Sessions: manager,
			Storage:  backend.provider,
			Limiter:  backend.limiter,
			Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", addr), "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shutting down gracefully")
	}
}

func sweepPeriodically(ctx context.Context, window time.Duration, sweeper interface{ Sweep() int }) {
	if window < time.Second {
		window = time.Second
	}
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweeper.Sweep()
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
