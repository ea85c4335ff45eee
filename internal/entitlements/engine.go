package entitlements

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/google/uuid"
)

// SubscriptionFinder loads the authoritative subscription row for a user.
// A user without subscriptions yields (nil, nil).
type SubscriptionFinder interface {
	FindCurrentByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

// Engine decides whether a user currently holds supporter entitlement.
type Engine struct {
	subs SubscriptionFinder
	now  func() time.Time
}

// NewEngine wires the engine; a nil clock defaults to time.Now.
func NewEngine(subs SubscriptionFinder, clock func() time.Time) (*Engine, error) {
	if subs == nil {
		return nil, fmt.Errorf("subscription finder required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Engine{subs: subs, now: clock}, nil
}

// HasActiveSubscription reports entitlement for userID. Store failures are
// returned as errors and never collapse into false.
func (e *Engine) HasActiveSubscription(ctx context.Context, userID uuid.UUID) (bool, error) {
	sub, err := e.current(ctx, userID)
	if err != nil {
		return false, err
	}
	return IsEntitled(sub, e.now()), nil
}

// SubscriptionTier returns the tier of the latest row regardless of status.
func (e *Engine) SubscriptionTier(ctx context.Context, userID uuid.UUID) (enums.Tier, bool, error) {
	sub, err := e.current(ctx, userID)
	if err != nil {
		return "", false, err
	}
	if sub == nil {
		return "", false, nil
	}
	return sub.Tier, true, nil
}

// Snapshot is the user-facing view of a subscription.
type Snapshot struct {
	HasSubscription   bool                      `json:"has_subscription"`
	Entitled          bool                      `json:"entitled"`
	Tier              *enums.Tier               `json:"tier,omitempty"`
	Status            *enums.SubscriptionStatus `json:"status,omitempty"`
	BillingInterval   *enums.BillingInterval    `json:"billing_interval,omitempty"`
	AmountCents       int64                     `json:"amount_cents"`
	Currency          string                    `json:"currency,omitempty"`
	IsGifted          bool                      `json:"is_gifted"`
	GiftedExpiresAt   *time.Time                `json:"gifted_expires_at,omitempty"`
	GraceEndsAt       *time.Time                `json:"grace_ends_at,omitempty"`
	RenewsAt          *time.Time                `json:"renews_at,omitempty"`
	SubscriptionID    string                    `json:"subscription_id,omitempty"`
	CustomerPortalURL *string                   `json:"customer_portal_url,omitempty"`
}

// Status bundles tier, status and entitlement for userID.
func (e *Engine) Status(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	sub, err := e.current(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	if sub == nil {
		return Snapshot{}, nil
	}
	now := e.now()
	snap := Snapshot{
		HasSubscription:   true,
		Entitled:          IsEntitled(sub, now),
		Tier:              &sub.Tier,
		Status:            &sub.Status,
		BillingInterval:   &sub.BillingInterval,
		AmountCents:       sub.AmountCents,
		Currency:          sub.Currency,
		IsGifted:          sub.IsGifted,
		GiftedExpiresAt:   sub.GiftedExpiresAt,
		SubscriptionID:    sub.ExternalID(),
		CustomerPortalURL: sub.CustomerPortalURL,
	}
	if sub.Status == enums.SubscriptionStatusCancelled && snap.Entitled {
		snap.GraceEndsAt = sub.CancelledAt
	}
	if sub.Status.IsLive() {
		snap.RenewsAt = sub.CurrentPeriodEnd
	}
	return snap, nil
}

// IsEntitled applies the status and grace-period rules to one row.
func IsEntitled(sub *models.Subscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	if sub.Status.IsLive() {
		return true
	}
	if sub.Status == enums.SubscriptionStatusCancelled {
		return sub.CancelledAt != nil && sub.CancelledAt.After(now)
	}
	return false
}

func (e *Engine) current(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	sub, err := e.subs.FindCurrentByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load subscription")
	}
	return sub, nil
}
