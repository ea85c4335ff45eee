package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/angelmondragon/scoreboard-manager/api/responses"
	lemonsqueezywebhook "github.com/angelmondragon/scoreboard-manager/internal/webhooks/lemonsqueezy"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/lemonsqueezy"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

type LemonSqueezyWebhookService interface {
	HandleEvent(ctx context.Context, event lemonsqueezy.WebhookEvent) error
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// LemonSqueezyWebhook verifies, dedupes and applies subscription deliveries.
func LemonSqueezyWebhook(svc LemonSqueezyWebhookService, secret string, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if secret == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret not configured"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if err := lemonsqueezy.VerifySignature(secret, payload, r.Header.Get(lemonsqueezy.SignatureHeader)); err != nil {
			code := pkgerrors.CodeUnauthorized
			if errors.Is(err, lemonsqueezy.ErrMissingSignature) {
				code = pkgerrors.CodeValidation
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(code, err, "verify signature"))
			return
		}

		event, err := lemonsqueezy.ParseWebhookEvent(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload"))
			return
		}

		key := lemonsqueezywebhook.DeliveryKey(payload)
		alreadyProcessed, err := guard.CheckAndMark(ctx, key)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, map[string]any{"received": true, "duplicate": true})
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			_ = guard.Delete(ctx, key)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(ctx, "event_name", event.Meta.EventName), "webhook.processed")
		}
		responses.WriteSuccess(w, map[string]any{"received": true})
	}
}
