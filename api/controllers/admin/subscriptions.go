package admin

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/scoreboard-manager/api/middleware"
	"github.com/angelmondragon/scoreboard-manager/api/responses"
	"github.com/angelmondragon/scoreboard-manager/api/validators"
	"github.com/angelmondragon/scoreboard-manager/internal/subscriptions"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

type giftRequest struct {
	UserID    string  `json:"user_id" validate:"required,uuid"`
	ExpiresAt *string `json:"expires_at"`
	Notes     string  `json:"notes" validate:"max=500"`
}

type linkRequest struct {
	UserID                     string `json:"user_id" validate:"required,uuid"`
	LemonSqueezySubscriptionID string `json:"lemonsqueezy_subscription_id" validate:"required,max=64"`
	OverrideEmailMismatch      bool   `json:"override_email_mismatch"`
}

func GiftSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}
		actor, err := adminActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body giftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.Gift(ctx, actor, subscriptions.GiftInput{
			UserID:    uuid.MustParse(body.UserID),
			ExpiresAt: body.ExpiresAt,
			Notes:     validators.SanitizeString(body.Notes, 500),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func RemoveGift(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}
		actor, err := adminActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.RemoveGift(ctx, actor, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func LinkSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}
		actor, err := adminActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body linkRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.Link(ctx, actor, subscriptions.LinkInput{
			UserID:                 uuid.MustParse(body.UserID),
			ExternalSubscriptionID: body.LemonSqueezySubscriptionID,
			Override:               body.OverrideEmailMismatch,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func CancelSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return lifecycle(svc, logg, func(ctx context.Context, actor subscriptions.Actor, externalID string) (*subscriptions.Outcome, error) {
		return svc.Cancel(ctx, actor, externalID)
	})
}

func ResumeSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return lifecycle(svc, logg, func(ctx context.Context, actor subscriptions.Actor, externalID string) (*subscriptions.Outcome, error) {
		return svc.Resume(ctx, actor, externalID)
	})
}

type lifecycleOp func(ctx context.Context, actor subscriptions.Actor, externalID string) (*subscriptions.Outcome, error)

func lifecycle(svc subscriptions.Service, logg *logger.Logger, op lifecycleOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}
		actor, err := adminActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		externalID, err := validators.PathParam(r, "externalId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		outcome, err := op(ctx, actor, externalID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

func adminActor(ctx context.Context) (subscriptions.Actor, error) {
	userID, err := middleware.AuthenticatedUserID(ctx)
	if err != nil {
		return subscriptions.Actor{}, err
	}
	return subscriptions.Actor{UserID: userID, Role: enums.UserRole(middleware.RoleFromContext(ctx))}, nil
}
