package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/angelmondragon/scoreboard-manager/pkg/metrics"
	"github.com/shopspring/decimal"
)

// DefaultTTL bounds how long a fetched price list is served from memory.
const DefaultTTL = 5 * time.Minute

// ErrNoPricing is wrapped when a (tier, interval) pair has no pricing row.
var ErrNoPricing = errors.New("no pricing found")

// Store is the persistence surface the cache reads and writes through.
type Store interface {
	ListPrices(ctx context.Context) ([]models.TierPricing, error)
	UpsertPrice(ctx context.Context, row *models.TierPricing) error
}

// Price is one cached pricing row.
type Price struct {
	Tier         enums.Tier            `json:"tier"`
	Interval     enums.BillingInterval `json:"billing_interval"`
	AmountCents  int64                 `json:"amount_cents"`
	Amount       decimal.Decimal       `json:"amount"`
	Currency     string                `json:"currency"`
	VariantID    *string               `json:"variant_id,omitempty"`
	LastSyncedAt *time.Time            `json:"last_synced_at,omitempty"`
}

// CacheParams configures NewCache.
type CacheParams struct {
	Store   Store
	TTL     time.Duration
	Clock   func() time.Time
	Logger  *logger.Logger
	Metrics *metrics.BillingMetrics
}

// Cache serves tier prices from memory for up to TTL.
//
// Concurrent misses may each query the store; the last write wins. The mutex
// only guards the in-memory fields and is never held across a store call.
type Cache struct {
	store   Store
	ttl     time.Duration
	now     func() time.Time
	logg    *logger.Logger
	metrics *metrics.BillingMetrics

	mu       sync.Mutex
	prices   []Price
	cachedAt time.Time
}

// NewCache validates dependencies and returns an empty cache.
func NewCache(p CacheParams) (*Cache, error) {
	if p.Store == nil {
		return nil, fmt.Errorf("pricing store required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := p.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		store:   p.Store,
		ttl:     ttl,
		now:     clock,
		logg:    p.Logger,
		metrics: p.Metrics,
	}, nil
}

// AllPrices returns the cached price list, refreshing it once the TTL elapses.
func (c *Cache) AllPrices(ctx context.Context) ([]Price, error) {
	if cached, ok := c.fresh(); ok {
		c.metrics.PricingCache(metrics.CacheHit)
		return cached, nil
	}
	c.metrics.PricingCache(metrics.CacheMiss)

	rows, err := c.store.ListPrices(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load pricing")
	}
	prices := make([]Price, 0, len(rows))
	for _, row := range rows {
		prices = append(prices, fromModel(row))
	}

	c.mu.Lock()
	c.prices = prices
	c.cachedAt = c.now()
	c.mu.Unlock()

	return clonePrices(prices), nil
}

// PriceCents returns the price of the pair in cents.
func (c *Cache) PriceCents(ctx context.Context, tier enums.Tier, interval enums.BillingInterval) (int64, error) {
	price, err := c.lookup(ctx, tier, interval)
	if err != nil {
		return 0, err
	}
	return price.AmountCents, nil
}

// Price returns the price of the pair in dollars.
func (c *Cache) Price(ctx context.Context, tier enums.Tier, interval enums.BillingInterval) (decimal.Decimal, error) {
	price, err := c.lookup(ctx, tier, interval)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Amount, nil
}

// Invalidate drops the cached list so the next read hits the store.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.prices = nil
	c.cachedAt = time.Time{}
	c.mu.Unlock()
	c.metrics.PricingCache(metrics.CacheInvalidate)
}

// SyncPriceIfChanged upserts the pair when amountCents differs from the cached
// price. Failures are logged and never returned.
func (c *Cache) SyncPriceIfChanged(ctx context.Context, tier enums.Tier, interval enums.BillingInterval, amountCents int64, variantID string) {
	if _, err := c.syncIfChanged(ctx, tier, interval, amountCents, variantID); err != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"tier":         tier,
			"interval":     interval,
			"amount_cents": amountCents,
		})
		c.logg.Error(logCtx, "pricing.sync_failed", err)
	}
}

func (c *Cache) syncIfChanged(ctx context.Context, tier enums.Tier, interval enums.BillingInterval, amountCents int64, variantID string) (bool, error) {
	if amountCents <= 0 {
		return false, nil
	}
	current, err := c.lookup(ctx, tier, interval)
	if err == nil && current.AmountCents == amountCents {
		return false, nil
	}

	// Currency is only known from the stored row; a new row gets the store default.
	now := c.now().UTC()
	row := &models.TierPricing{
		Tier:            tier,
		BillingInterval: interval,
		AmountCents:     amountCents,
		Currency:        current.Currency,
		LastSyncedAt:    &now,
	}
	if variantID != "" {
		row.LemonSqueezyVariantID = &variantID
	}
	if err := c.store.UpsertPrice(ctx, row); err != nil {
		return false, err
	}
	c.Invalidate()

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"tier":         tier,
		"interval":     interval,
		"amount_cents": amountCents,
	})
	c.logg.Info(logCtx, "pricing.synced")
	return true, nil
}

func (c *Cache) lookup(ctx context.Context, tier enums.Tier, interval enums.BillingInterval) (Price, error) {
	prices, err := c.AllPrices(ctx)
	if err != nil {
		return Price{}, err
	}
	for _, price := range prices {
		if price.Tier == tier && price.Interval == interval {
			return price, nil
		}
	}
	return Price{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNoPricing, fmt.Sprintf("no pricing found for %s %s", tier, interval))
}

func (c *Cache) fresh() ([]Price, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cachedAt.IsZero() || c.now().Sub(c.cachedAt) >= c.ttl {
		return nil, false
	}
	return clonePrices(c.prices), true
}

func fromModel(row models.TierPricing) Price {
	return Price{
		Tier:         row.Tier,
		Interval:     row.BillingInterval,
		AmountCents:  row.AmountCents,
		Amount:       CentsToDollars(row.AmountCents),
		Currency:     row.Currency,
		VariantID:    row.LemonSqueezyVariantID,
		LastSyncedAt: row.LastSyncedAt,
	}
}

// CentsToDollars converts an integer cent amount to an exact decimal.
func CentsToDollars(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func clonePrices(prices []Price) []Price {
	out := make([]Price, len(prices))
	copy(out, prices)
	return out
}
