package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
)

// Subscription persists the billing provider's subscription state per user.
// The most recently created row per user is authoritative. CancelledAt holds
// the effective end of access for cancelled subscriptions, not the request time.
type Subscription struct {
	ID              uuid.UUID                `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.SubscriptionStatus `gorm:"column:status;not null"`
	Tier            enums.Tier               `gorm:"column:tier;not null"`
	BillingInterval enums.BillingInterval    `gorm:"column:billing_interval;not null"`
	AmountCents     int64                    `gorm:"column:amount_cents;not null;default:0"`
	Currency        string                   `gorm:"column:currency;not null;default:'USD'"`
	IsGifted        bool                     `gorm:"column:is_gifted;not null;default:false"`
	GiftedExpiresAt *time.Time               `gorm:"column:gifted_expires_at"`
	CancelledAt     *time.Time               `gorm:"column:cancelled_at"`

	LemonSqueezySubscriptionID *string `gorm:"column:lemonsqueezy_subscription_id"`
	LemonSqueezyCustomerID     *string `gorm:"column:lemonsqueezy_customer_id"`
	LemonSqueezyOrderID        *string `gorm:"column:lemonsqueezy_order_id"`
	LemonSqueezyProductID      *string `gorm:"column:lemonsqueezy_product_id"`
	LemonSqueezyVariantID      *string `gorm:"column:lemonsqueezy_variant_id"`

	CardBrand          *string    `gorm:"column:card_brand"`
	CardLastFour       *string    `gorm:"column:card_last_four"`
	CustomerPortalURL  *string    `gorm:"column:customer_portal_url"`
	UpdatePaymentURL   *string    `gorm:"column:update_payment_method_url"`
	CurrentPeriodStart *time.Time `gorm:"column:current_period_start"`
	CurrentPeriodEnd   *time.Time `gorm:"column:current_period_end"`
	Version            int        `gorm:"column:version;not null;default:1"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// ExternalID returns the billing provider subscription id or an empty string.
func (s Subscription) ExternalID() string {
	if s.LemonSqueezySubscriptionID == nil {
		return ""
	}
	return *s.LemonSqueezySubscriptionID
}
