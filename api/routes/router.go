package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/scoreboard-manager/api/controllers"
	admincontrollers "github.com/angelmondragon/scoreboard-manager/api/controllers/admin"
	webhookcontrollers "github.com/angelmondragon/scoreboard-manager/api/controllers/webhooks"
	"github.com/angelmondragon/scoreboard-manager/api/middleware"
	"github.com/angelmondragon/scoreboard-manager/internal/audit"
	"github.com/angelmondragon/scoreboard-manager/internal/kiosk"
	"github.com/angelmondragon/scoreboard-manager/internal/pricing"
	subscriptionsvc "github.com/angelmondragon/scoreboard-manager/internal/subscriptions"
	"github.com/angelmondragon/scoreboard-manager/internal/variants"
	lemonsqueezywebhook "github.com/angelmondragon/scoreboard-manager/internal/webhooks/lemonsqueezy"
	"github.com/angelmondragon/scoreboard-manager/pkg/auth/session"
	"github.com/angelmondragon/scoreboard-manager/pkg/config"
	"github.com/angelmondragon/scoreboard-manager/pkg/db"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/angelmondragon/scoreboard-manager/pkg/redis"
)

type pricingService interface {
	controllers.PriceLister
	admincontrollers.PricingAdmin
}

type auditService interface {
	admincontrollers.AuditReader
	Append(ctx context.Context, entry audit.Entry)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP db.Pinger,
	idempotencyStore redis.IdempotencyStore,
	sessionChecker session.AccessSessionChecker,
	metricsHandler http.Handler,
	pricingCache pricingService,
	variantTable *variants.Table,
	priceFetcher pricing.PriceFetcher,
	entitlementsEngine controllers.EntitlementStatus,
	limitsEngine controllers.LimitsReader,
	userSubscriptions subscriptionsvc.Service,
	adminSubscriptions subscriptionsvc.Service,
	kioskService kiosk.Service,
	auditLog auditService,
	webhookService *lemonsqueezywebhook.Service,
	webhookGuard *lemonsqueezywebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{"database": dbP, "redis": redisP}, logg))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/pricing", controllers.PublicPricing(pricingCache, logg))
	})

	if webhookService != nil && webhookGuard != nil {
		r.Route("/api/v1/webhooks", func(r chi.Router) {
			r.Post("/lemonsqueezy", webhookcontrollers.LemonSqueezyWebhook(webhookService, cfg.Billing.WebhookSecret, webhookGuard, logg))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/subscription", func(r chi.Router) {
			r.Get("/", controllers.SubscriptionStatus(entitlementsEngine, logg))
			r.Post("/{externalId}/cancel", controllers.SubscriptionCancel(userSubscriptions, logg))
			r.Post("/{externalId}/resume", controllers.SubscriptionResume(userSubscriptions, logg))
		})

		r.Get("/limits", controllers.UserLimits(limitsEngine, logg))
		r.Get("/scoreboards/{scoreboardId}/limits", controllers.ScoreboardLimits(limitsEngine, logg))

		r.Route("/kiosk/{scoreboardId}/slides", func(r chi.Router) {
			r.Get("/", controllers.KioskSlidesList(kioskService, logg))
			r.Post("/", controllers.KioskSlideCreate(kioskService, logg))
			r.Put("/order", controllers.KioskSlidesReorder(kioskService, logg))
			r.Delete("/{slideId}", controllers.KioskSlideDelete(kioskService, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.RequireRole(logg, string(enums.UserRoleSystemAdmin)))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/v1/subscriptions", func(r chi.Router) {
			r.Post("/gift", admincontrollers.GiftSubscription(adminSubscriptions, logg))
			r.Delete("/gift/{userId}", admincontrollers.RemoveGift(adminSubscriptions, logg))
			r.Post("/link", admincontrollers.LinkSubscription(adminSubscriptions, logg))
			r.Post("/{externalId}/cancel", admincontrollers.CancelSubscription(adminSubscriptions, logg))
			r.Post("/{externalId}/resume", admincontrollers.ResumeSubscription(adminSubscriptions, logg))
		})
		r.Route("/v1/pricing", func(r chi.Router) {
			r.Post("/sync", admincontrollers.SyncPricing(pricingCache, variantTable, priceFetcher, auditLog, logg))
			r.Post("/invalidate", admincontrollers.InvalidatePricing(pricingCache, auditLog, logg))
		})
		r.Get("/v1/audit-log", admincontrollers.AuditLog(auditLog, logg))
	})

	return r
}
