package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/scoreboard-manager/internal/pricing"
	"github.com/angelmondragon/scoreboard-manager/internal/variants"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

type pricingSyncer interface {
	SyncAll(ctx context.Context, table *variants.Table, fetch pricing.PriceFetcher) ([]pricing.SyncResult, error)
}

// PricingRefreshJobParams configures the pricing refresh job.
type PricingRefreshJobParams struct {
	Logger   *logger.Logger
	Pricing  pricingSyncer
	Variants *variants.Table
	Fetch    pricing.PriceFetcher
}

// NewPricingRefreshJob builds the job that runs the admin pricing sync on a
// schedule so tier_pricing follows the provider without a manual trigger.
func NewPricingRefreshJob(params PricingRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing syncer required")
	}
	if params.Variants == nil {
		return nil, fmt.Errorf("variant table required")
	}
	if params.Fetch == nil {
		return nil, fmt.Errorf("price fetcher required")
	}
	return &pricingRefreshJob{
		logg:     params.Logger,
		pricing:  params.Pricing,
		variants: params.Variants,
		fetch:    params.Fetch,
	}, nil
}

type pricingRefreshJob struct {
	logg     *logger.Logger
	pricing  pricingSyncer
	variants *variants.Table
	fetch    pricing.PriceFetcher
}

func (j *pricingRefreshJob) Name() string { return "pricing-refresh" }

func (j *pricingRefreshJob) Run(ctx context.Context) error {
	results, err := j.pricing.SyncAll(ctx, j.variants, j.fetch)
	if err != nil {
		return fmt.Errorf("sync pricing: %w", err)
	}

	var errs error
	updated := 0
	for _, result := range results {
		if result.Error != "" {
			errs = multierr.Append(errs, fmt.Errorf("%s/%s: %s", result.Tier, result.Interval, result.Error))
			continue
		}
		if result.Updated {
			updated++
		}
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"variants": len(results),
		"updated":  updated,
	}), "pricing refresh complete")
	return errs
}
