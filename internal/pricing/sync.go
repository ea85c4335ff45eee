package pricing

import (
	"context"

	"github.com/angelmondragon/scoreboard-manager/internal/variants"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/lemonsqueezy"
)

// PriceFetcher returns the live price in cents for a variant.
type PriceFetcher func(ctx context.Context, variantID string) (int64, error)

type variantGetter interface {
	GetVariant(ctx context.Context, id string) (*lemonsqueezy.Variant, error)
}

// VariantPriceFetcher reads live prices from the billing API.
func VariantPriceFetcher(api variantGetter) PriceFetcher {
	return func(ctx context.Context, variantID string) (int64, error) {
		variant, err := api.GetVariant(ctx, variantID)
		if err != nil {
			return 0, err
		}
		if variant == nil || variant.Price <= 0 {
			return 0, pkgerrors.New(pkgerrors.CodeDependency, "variant has no price")
		}
		return variant.Price, nil
	}
}

// SyncResult reports the outcome for one configured variant.
type SyncResult struct {
	Tier        enums.Tier            `json:"tier"`
	Interval    enums.BillingInterval `json:"billing_interval"`
	VariantID   string                `json:"variant_id"`
	AmountCents int64                 `json:"amount_cents,omitempty"`
	Updated     bool                  `json:"updated"`
	Error       string                `json:"error,omitempty"`
}

// SyncAll fetches the live price of every configured variant and applies
// sync-if-changed to each. Per-variant failures are reported, not returned.
func (c *Cache) SyncAll(ctx context.Context, table *variants.Table, fetch PriceFetcher) ([]SyncResult, error) {
	if table == nil || fetch == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "variant table and price fetcher are required")
	}
	entries := table.Configured()
	results := make([]SyncResult, 0, len(entries))
	for _, entry := range entries {
		result := SyncResult{Tier: entry.Tier, Interval: entry.Interval, VariantID: entry.VariantID}
		cents, err := fetch(ctx, entry.VariantID)
		if err != nil {
			result.Error = errorMessage(err)
			results = append(results, result)
			continue
		}
		result.AmountCents = cents
		updated, err := c.syncIfChanged(ctx, entry.Tier, entry.Interval, cents, entry.VariantID)
		if err != nil {
			result.Error = errorMessage(err)
		}
		result.Updated = updated
		results = append(results, result)
	}
	return results, nil
}

func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}
