package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/scoreboard-manager/api/middleware"
	"github.com/angelmondragon/scoreboard-manager/api/responses"
	"github.com/angelmondragon/scoreboard-manager/api/validators"
	"github.com/angelmondragon/scoreboard-manager/internal/limits"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

// LimitsReader exposes the limit summaries.
type LimitsReader interface {
	Summary(ctx context.Context, userID uuid.UUID) limits.Result[limits.UserSummary]
	ScoreboardLimits(ctx context.Context, scoreboardID uuid.UUID) limits.Result[limits.ScoreboardSummary]
}

func UserLimits(svc LimitsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "limits unavailable"))
			return
		}
		userID, err := middleware.AuthenticatedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result := svc.Summary(ctx, userID)
		if !result.OK() {
			responses.WriteError(ctx, logg, w, result.Err)
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

// ScoreboardLimits is readable by the board owner and admins only.
func ScoreboardLimits(svc LimitsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "limits unavailable"))
			return
		}
		userID, err := middleware.AuthenticatedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		scoreboardID, err := validators.ParseUUIDParam(r, "scoreboardId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result := svc.ScoreboardLimits(ctx, scoreboardID)
		if !result.OK() {
			responses.WriteError(ctx, logg, w, result.Err)
			return
		}
		if result.Data.OwnerID != userID && !middleware.IsAdmin(ctx) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "scoreboard belongs to another user"))
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}
