package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
)

// TierPricing stores one price per (tier, billing interval) pair.
type TierPricing struct {
	ID                    uuid.UUID             `gorm:"type:uuid;primaryKey"`
	Tier                  enums.Tier            `gorm:"column:tier;not null;uniqueIndex:tier_pricing_tier_interval_key"`
	BillingInterval       enums.BillingInterval `gorm:"column:billing_interval;not null;uniqueIndex:tier_pricing_tier_interval_key"`
	AmountCents           int64                 `gorm:"column:amount_cents;not null"`
	Currency              string                `gorm:"column:currency;not null;default:'USD'"`
	LemonSqueezyVariantID *string               `gorm:"column:lemonsqueezy_variant_id"`
	LastSyncedAt          *time.Time            `gorm:"column:last_synced_at"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (TierPricing) TableName() string {
	return "tier_pricing"
}
