package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/scoreboard-manager/api/responses"
	"github.com/angelmondragon/scoreboard-manager/internal/pricing"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

// PriceLister serves the cached tier prices.
type PriceLister interface {
	AllPrices(ctx context.Context) ([]pricing.Price, error)
}

type pricingResponse struct {
	Prices []pricing.Price `json:"prices"`
}

func PublicPricing(svc PriceLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing unavailable"))
			return
		}
		prices, err := svc.AllPrices(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pricingResponse{Prices: prices})
	}
}
