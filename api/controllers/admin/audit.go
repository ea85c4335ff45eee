package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/scoreboard-manager/api/responses"
	"github.com/angelmondragon/scoreboard-manager/api/validators"
	"github.com/angelmondragon/scoreboard-manager/internal/audit"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/angelmondragon/scoreboard-manager/pkg/pagination"
)

// AuditReader lists audit records.
type AuditReader interface {
	List(ctx context.Context, query audit.ListQuery) (*audit.ListResult, error)
}

func AuditLog(svc AuditReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit log unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		adminID, err := validators.ParseQueryUUID(r, "admin_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		targetID, err := validators.ParseQueryUUID(r, "target_user_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		action, err := validators.ParseQueryEnum(r, "action", enums.AuditActions...)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := audit.ListQuery{
			Params:       pagination.Params{Limit: limit, Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))},
			AdminID:      adminID,
			TargetUserID: targetID,
			Action:       action,
		}

		result, err := svc.List(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
