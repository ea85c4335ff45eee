package admin

import (
	"context"
	"net/http"

	"github.com/angelmondragon/scoreboard-manager/api/middleware"
	"github.com/angelmondragon/scoreboard-manager/api/responses"
	"github.com/angelmondragon/scoreboard-manager/internal/audit"
	"github.com/angelmondragon/scoreboard-manager/internal/pricing"
	"github.com/angelmondragon/scoreboard-manager/internal/variants"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

// PricingAdmin is the privileged pricing cache surface.
type PricingAdmin interface {
	SyncAll(ctx context.Context, table *variants.Table, fetch pricing.PriceFetcher) ([]pricing.SyncResult, error)
	Invalidate()
}

type auditAppender interface {
	Append(ctx context.Context, entry audit.Entry)
}

type pricingSyncResponse struct {
	Success bool                 `json:"success"`
	Updated int                  `json:"updated"`
	Failed  int                  `json:"failed"`
	Results []pricing.SyncResult `json:"results"`
}

// SyncPricing refreshes every configured price from the billing API.
func SyncPricing(svc PricingAdmin, table *variants.Table, fetch pricing.PriceFetcher, log auditAppender, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || table == nil || fetch == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing sync unavailable"))
			return
		}
		adminID, err := middleware.AuthenticatedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		results, err := svc.SyncAll(ctx, table, fetch)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := pricingSyncResponse{Results: results}
		for _, result := range results {
			if result.Error != "" {
				out.Failed++
			}
			if result.Updated {
				out.Updated++
			}
		}
		out.Success = out.Failed == 0

		if log != nil {
			log.Append(ctx, audit.Entry{
				AdminID: adminID,
				Action:  enums.AuditActionSyncPricing,
				Details: map[string]any{"updated": out.Updated, "failed": out.Failed},
			})
		}
		responses.WriteSuccess(w, out)
	}
}

// InvalidatePricing drops the in-memory price list.
func InvalidatePricing(svc PricingAdmin, log auditAppender, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing cache unavailable"))
			return
		}
		adminID, err := middleware.AuthenticatedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		svc.Invalidate()
		if log != nil {
			log.Append(ctx, audit.Entry{AdminID: adminID, Action: enums.AuditActionInvalidatePricing})
		}
		responses.WriteSuccess(w, map[string]any{"success": true, "message": "pricing cache invalidated"})
	}
}
