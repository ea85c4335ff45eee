package subscriptions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrConcurrentModification is returned when a versioned update matched no row.
var ErrConcurrentModification = pkgerrors.New(pkgerrors.CodeConflict, "subscription was modified concurrently")

// Repository persists subscription rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to db. Admin operations pass the
// elevated handle; end-user reads pass the regular one.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindCurrentByUser returns the most recently created row for userID.
func (r *Repository) FindCurrentByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// FindByExternalID looks a row up by the billing provider's subscription id.
func (r *Repository) FindByExternalID(ctx context.Context, externalID string) (*models.Subscription, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("lemonsqueezy_subscription_id = ?", externalID).
		First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ListStale returns provider-backed rows not written since cutoff, oldest
// first. Expired rows are final and never returned.
func (r *Repository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error) {
	var rows []models.Subscription
	err := r.db.WithContext(ctx).
		Where("lemonsqueezy_subscription_id IS NOT NULL").
		Where("status <> ?", enums.SubscriptionStatusExpired).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts sub at version 1.
func (r *Repository) Create(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.Currency == "" {
		sub.Currency = "USD"
	}
	sub.Version = 1
	return r.db.WithContext(ctx).Create(sub).Error
}

// UpdateVersioned writes every mutable column of sub, conditioned on the
// version it was read at. On success sub.Version is advanced.
func (r *Repository) UpdateVersioned(ctx context.Context, sub *models.Subscription) error {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND version = ?", sub.ID, sub.Version).
		Updates(map[string]any{
			"user_id":                      sub.UserID,
			"status":                       sub.Status,
			"tier":                         sub.Tier,
			"billing_interval":             sub.BillingInterval,
			"amount_cents":                 sub.AmountCents,
			"currency":                     sub.Currency,
			"is_gifted":                    sub.IsGifted,
			"gifted_expires_at":            sub.GiftedExpiresAt,
			"cancelled_at":                 sub.CancelledAt,
			"lemonsqueezy_subscription_id": sub.LemonSqueezySubscriptionID,
			"lemonsqueezy_customer_id":     sub.LemonSqueezyCustomerID,
			"lemonsqueezy_order_id":        sub.LemonSqueezyOrderID,
			"lemonsqueezy_product_id":      sub.LemonSqueezyProductID,
			"lemonsqueezy_variant_id":      sub.LemonSqueezyVariantID,
			"card_brand":                   sub.CardBrand,
			"card_last_four":               sub.CardLastFour,
			"customer_portal_url":          sub.CustomerPortalURL,
			"update_payment_method_url":    sub.UpdatePaymentURL,
			"current_period_start":         sub.CurrentPeriodStart,
			"current_period_end":           sub.CurrentPeriodEnd,
			"version":                      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	sub.Version++
	return nil
}

// Delete hard-deletes the row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Subscription{}, "id = ?", id).Error
}
