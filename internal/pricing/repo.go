package pricing

import (
	"context"
	"time"

	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCurrency is stored on pricing rows inserted without one.
const DefaultCurrency = "USD"

// Repository persists tier_pricing rows. Reads and writes may go through
// different connections.
type Repository struct {
	db     *gorm.DB
	writer *gorm.DB
}

// NewRepository binds reads and writes to the provided connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, writer: db}
}

type connections interface {
	DB() *gorm.DB
	Elevated() *gorm.DB
}

// NewRepositoryFor reads through the end-user connection and writes through
// the service-role connection, since tier_pricing is shared across users.
func NewRepositoryFor(conns connections) *Repository {
	return &Repository{db: conns.DB(), writer: conns.Elevated()}
}

// ListPrices returns every pricing row ordered by (tier, billing_interval).
func (r *Repository) ListPrices(ctx context.Context) ([]models.TierPricing, error) {
	var rows []models.TierPricing
	if err := r.db.WithContext(ctx).
		Order("tier ASC").
		Order("billing_interval ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertPrice inserts or updates the row keyed on (tier, billing_interval).
// An empty currency keeps the stored one.
func (r *Repository) UpsertPrice(ctx context.Context, row *models.TierPricing) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.LastSyncedAt == nil {
		row.LastSyncedAt = &now
	}
	updates := map[string]any{
		"amount_cents":            row.AmountCents,
		"lemonsqueezy_variant_id": row.LemonSqueezyVariantID,
		"last_synced_at":          row.LastSyncedAt,
		"updated_at":              now,
	}
	if row.Currency != "" {
		updates["currency"] = row.Currency
	} else {
		row.Currency = DefaultCurrency
	}
	return r.writer.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tier"}, {Name: "billing_interval"}},
			DoUpdates: clause.Assignments(updates),
		}).
		Create(row).Error
}
