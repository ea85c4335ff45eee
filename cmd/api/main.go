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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/scoreboard-manager/api/routes"
	"github.com/angelmondragon/scoreboard-manager/internal/audit"
	"github.com/angelmondragon/scoreboard-manager/internal/entitlements"
	"github.com/angelmondragon/scoreboard-manager/internal/kiosk"
	"github.com/angelmondragon/scoreboard-manager/internal/limits"
	"github.com/angelmondragon/scoreboard-manager/internal/pricing"
	"github.com/angelmondragon/scoreboard-manager/internal/scoreboards"
	"github.com/angelmondragon/scoreboard-manager/internal/subscriptions"
	"github.com/angelmondragon/scoreboard-manager/internal/users"
	"github.com/angelmondragon/scoreboard-manager/internal/variants"
	lemonsqueezywebhook "github.com/angelmondragon/scoreboard-manager/internal/webhooks/lemonsqueezy"
	"github.com/angelmondragon/scoreboard-manager/pkg/auth/session"
	"github.com/angelmondragon/scoreboard-manager/pkg/config"
	"github.com/angelmondragon/scoreboard-manager/pkg/db"
	"github.com/angelmondragon/scoreboard-manager/pkg/lemonsqueezy"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/angelmondragon/scoreboard-manager/pkg/metrics"
	"github.com/angelmondragon/scoreboard-manager/pkg/migrate"
	"github.com/angelmondragon/scoreboard-manager/pkg/redis"
)

const (
	serviceName     = "scoreboard-api"
	shutdownTimeout = 15 * time.Second
)

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

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	// A nil checker makes the auth middleware trust the token alone.
	var sessionChecker session.AccessSessionChecker
	if cfg.JWT.CheckSessions {
		manager, err := session.NewManager(redisClient)
		requireResource(ctx, logg, "session manager", err)
		sessionChecker = manager
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	billingMetrics := metrics.NewBillingMetrics(registry)

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

	subscriptionRepo := subscriptions.NewRepository(dbClient.DB())
	elevatedSubscriptionRepo := subscriptions.NewRepository(dbClient.Elevated())

	entitlementsEngine, err := entitlements.NewEngine(subscriptionRepo, nil)
	requireResource(ctx, logg, "entitlements engine", err)

	scoreboardRepo := scoreboards.NewRepository(dbClient.DB())
	limitsEngine, err := limits.NewEngine(entitlementsEngine, scoreboardRepo)
	requireResource(ctx, logg, "limits engine", err)

	auditLog, err := audit.NewLog(audit.LogParams{
		Store:   audit.NewRepository(dbClient.Elevated()),
		Logger:  logg,
		Metrics: billingMetrics,
	})
	requireResource(ctx, logg, "audit log", err)

	userSubscriptions, err := subscriptions.NewService(subscriptions.ServiceParams{
		Subscriptions: subscriptionRepo,
		Users:         users.NewRepository(dbClient.DB()),
		Billing:       billingClient,
		Variants:      variantTable,
		Prices:        pricingCache,
		Audit:         auditLog,
		Logger:        logg,
		Metrics:       billingMetrics,
	})
	requireResource(ctx, logg, "subscription service", err)

	adminSubscriptions, err := subscriptions.NewService(subscriptions.ServiceParams{
		Subscriptions: elevatedSubscriptionRepo,
		Users:         users.NewRepository(dbClient.Elevated()),
		Billing:       billingClient,
		Variants:      variantTable,
		Prices:        pricingCache,
		Audit:         auditLog,
		Logger:        logg,
		Metrics:       billingMetrics,
	})
	requireResource(ctx, logg, "admin subscription service", err)

	kioskService, err := kiosk.NewService(kiosk.ServiceParams{
		Store:              kiosk.NewRepository(dbClient.DB()),
		Boards:             scoreboardRepo,
		Gate:               limitsEngine,
		TransactionRunner:  dbClient,
		MaxSlides:          cfg.Kiosk.MaxSlides,
		TempPositionOffset: cfg.Kiosk.TempPositionOffset,
		Logger:             logg,
		Metrics:            billingMetrics,
	})
	requireResource(ctx, logg, "kiosk service", err)

	webhookService, err := lemonsqueezywebhook.NewService(lemonsqueezywebhook.ServiceParams{
		Subscriptions: elevatedSubscriptionRepo,
		Billing:       billingClient,
		Variants:      variantTable,
		Prices:        pricingCache,
		Logger:        logg,
	})
	requireResource(ctx, logg, "webhook service", err)

	webhookGuard, err := lemonsqueezywebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "lemonsqueezy-webhook")
	requireResource(ctx, logg, "webhook idempotency guard", err)

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		redisClient,
		sessionChecker,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		pricingCache,
		variantTable,
		pricing.VariantPriceFetcher(billingClient),
		entitlementsEngine,
		limitsEngine,
		userSubscriptions,
		adminSubscriptions,
		kioskService,
		auditLog,
		webhookService,
		webhookGuard,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to bootstrap "+resource, err)
	os.Exit(1)
}
