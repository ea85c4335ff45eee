package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/scoreboard-manager/internal/cron"
	"github.com/angelmondragon/scoreboard-manager/internal/pricing"
	"github.com/angelmondragon/scoreboard-manager/internal/subscriptions"
	"github.com/angelmondragon/scoreboard-manager/internal/variants"
	lemonsqueezywebhook "github.com/angelmondragon/scoreboard-manager/internal/webhooks/lemonsqueezy"
	"github.com/angelmondragon/scoreboard-manager/pkg/config"
	"github.com/angelmondragon/scoreboard-manager/pkg/db"
	"github.com/angelmondragon/scoreboard-manager/pkg/lemonsqueezy"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/angelmondragon/scoreboard-manager/pkg/metrics"
	"github.com/angelmondragon/scoreboard-manager/pkg/redis"
)

const serviceName = "scoreboard-cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(registry)
	cronMetrics := metrics.NewCronJobMetrics(registry)

	billingClient, err := lemonsqueezy.NewClient(ctx, cfg.Billing, logg, billingMetrics)
	requireResource(ctx, logg, "lemonsqueezy client", err)

	variantTable := variants.NewTable(cfg.Variants)
	pricingCache, err := pricing.NewCache(pricing.CacheParams{
		Store:   pricing.NewRepositoryFor(dbClient),
		TTL:     cfg.Pricing.CacheTTL,
		Logger:  logg,
		Metrics: billingMetrics,
	})
	requireResource(ctx, logg, "pricing cache", err)

	subscriptionRepo := subscriptions.NewRepository(dbClient.Elevated())
	resyncer, err := lemonsqueezywebhook.NewService(lemonsqueezywebhook.ServiceParams{
		Subscriptions: subscriptionRepo,
		Billing:       billingClient,
		Variants:      variantTable,
		Prices:        pricingCache,
		Logger:        logg,
	})
	requireResource(ctx, logg, "subscription resyncer", err)

	reconcileJob, err := cron.NewSubscriptionReconcileJob(cron.SubscriptionReconcileJobParams{
		Logger:     logg,
		Store:      subscriptionRepo,
		Resyncer:   resyncer,
		BatchSize:  cfg.Cron.ReconcileBatchSize,
		StaleAfter: cfg.Cron.ReconcileStaleAfter,
	})
	requireResource(ctx, logg, "reconcile job", err)

	pricingJob, err := cron.NewPricingRefreshJob(cron.PricingRefreshJobParams{
		Logger:   logg,
		Pricing:  pricingCache,
		Variants: variantTable,
		Fetch:    pricing.VariantPriceFetcher(billingClient),
	})
	requireResource(ctx, logg, "pricing refresh job", err)

	lock, err := cron.NewRedisLock(redisClient)
	requireResource(ctx, logg, "cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:  logg,
		Lock:    lock,
		Metrics: cronMetrics,
		Tick:    cfg.Cron.Tick,
	})
	requireResource(ctx, logg, "cron service", err)
	requireResource(ctx, logg, "reconcile schedule", service.Register(reconcileJob, cfg.Cron.ReconcileInterval))
	requireResource(ctx, logg, "pricing schedule", service.Register(pricingJob, cfg.Cron.PricingRefreshInterval))

	metricsServer := &http.Server{
		Addr:              cfg.Cron.MetricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()

	logg.Info(logg.WithField(ctx, "jobs", service.Jobs()), "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to bootstrap "+resource, err)
	os.Exit(1)
}
