package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/scoreboard-manager/api/middleware"
	"github.com/angelmondragon/scoreboard-manager/api/responses"
	"github.com/angelmondragon/scoreboard-manager/api/validators"
	"github.com/angelmondragon/scoreboard-manager/internal/entitlements"
	"github.com/angelmondragon/scoreboard-manager/internal/subscriptions"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

// EntitlementStatus reports a user's subscription snapshot.
type EntitlementStatus interface {
	Status(ctx context.Context, userID uuid.UUID) (entitlements.Snapshot, error)
}

// SubscriptionLifecycle is the cancel/resume surface shared by users and admins.
type SubscriptionLifecycle interface {
	Cancel(ctx context.Context, actor subscriptions.Actor, externalID string) (*subscriptions.Outcome, error)
	Resume(ctx context.Context, actor subscriptions.Actor, externalID string) (*subscriptions.Outcome, error)
}

func SubscriptionStatus(svc EntitlementStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlements unavailable"))
			return
		}
		userID, err := middleware.AuthenticatedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		snapshot, err := svc.Status(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

func SubscriptionCancel(svc SubscriptionLifecycle, logg *logger.Logger) http.HandlerFunc {
	return subscriptionAction(svc, logg, func(ctx context.Context, actor subscriptions.Actor, externalID string) (*subscriptions.Outcome, error) {
		return svc.Cancel(ctx, actor, externalID)
	})
}

func SubscriptionResume(svc SubscriptionLifecycle, logg *logger.Logger) http.HandlerFunc {
	return subscriptionAction(svc, logg, func(ctx context.Context, actor subscriptions.Actor, externalID string) (*subscriptions.Outcome, error) {
		return svc.Resume(ctx, actor, externalID)
	})
}

type subscriptionOp func(ctx context.Context, actor subscriptions.Actor, externalID string) (*subscriptions.Outcome, error)

func subscriptionAction(svc SubscriptionLifecycle, logg *logger.Logger, op subscriptionOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}
		actor, err := subscriptionActor(ctx)
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

// subscriptionActor builds the service actor from the authenticated caller.
func subscriptionActor(ctx context.Context) (subscriptions.Actor, error) {
	userID, err := middleware.AuthenticatedUserID(ctx)
	if err != nil {
		return subscriptions.Actor{}, err
	}
	return subscriptions.Actor{UserID: userID, Role: enums.UserRole(middleware.RoleFromContext(ctx))}, nil
}
