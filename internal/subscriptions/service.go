package subscriptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/scoreboard-manager/internal/audit"
	"github.com/angelmondragon/scoreboard-manager/internal/entitlements"
	"github.com/angelmondragon/scoreboard-manager/internal/variants"
	"github.com/angelmondragon/scoreboard-manager/pkg/db"
	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/lemonsqueezy"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/angelmondragon/scoreboard-manager/pkg/metrics"
	"github.com/google/uuid"
)

// Store is the subscription persistence the service needs.
type Store interface {
	FindCurrentByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Subscription, error)
	Create(ctx context.Context, sub *models.Subscription) error
	UpdateVersioned(ctx context.Context, sub *models.Subscription) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// BillingAPI is the subset of the billing provider client the service calls.
type BillingAPI interface {
	GetSubscription(ctx context.Context, id string) (*lemonsqueezy.Subscription, error)
	UpdateSubscriptionCancelled(ctx context.Context, id string, cancelled bool) (*lemonsqueezy.Subscription, error)
	GetVariant(ctx context.Context, id string) (*lemonsqueezy.Variant, error)
}

type priceLookup interface {
	PriceCents(ctx context.Context, tier enums.Tier, interval enums.BillingInterval) (int64, error)
}

type auditLog interface {
	Append(ctx context.Context, entry audit.Entry)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service exposes the privileged subscription mutations.
type Service interface {
	Gift(ctx context.Context, actor Actor, input GiftInput) (*GiftResult, error)
	RemoveGift(ctx context.Context, actor Actor, userID uuid.UUID) (*RemoveGiftResult, error)
	Link(ctx context.Context, actor Actor, input LinkInput) (*LinkResult, error)
	Cancel(ctx context.Context, actor Actor, externalID string) (*Outcome, error)
	Resume(ctx context.Context, actor Actor, externalID string) (*Outcome, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Subscriptions Store
	Users         userStore
	Billing       BillingAPI
	Variants      *variants.Table
	Prices        priceLookup
	Audit         auditLog
	Clock         func() time.Time
	Logger        *logger.Logger
	Metrics       *metrics.BillingMetrics
}

type service struct {
	subs     Store
	users    userStore
	billing  BillingAPI
	variants *variants.Table
	prices   priceLookup
	audit    auditLog
	now      func() time.Time
	logg     *logger.Logger
	metrics  *metrics.BillingMetrics
}

// NewService builds the subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription store required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if params.Billing == nil {
		return nil, fmt.Errorf("billing api required")
	}
	if params.Variants == nil {
		return nil, fmt.Errorf("variant table required")
	}
	if params.Prices == nil {
		return nil, fmt.Errorf("price lookup required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit log required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		subs:     params.Subscriptions,
		users:    params.Users,
		billing:  params.Billing,
		variants: params.Variants,
		prices:   params.Prices,
		audit:    params.Audit,
		now:      clock,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

var errAdminRequired = pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")

// requireAdmin is the single role check for service callers that do not come
// through the admin router.
func requireAdmin(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !actor.Role.IsAdmin() {
		return errAdminRequired
	}
	return nil
}

// GiftInput targets a user with an optional expiry.
type GiftInput struct {
	UserID    uuid.UUID
	ExpiresAt *string
	Notes     string
}

// GiftResult reports the gifted subscription.
type GiftResult struct {
	Success                 bool       `json:"success"`
	Message                 string     `json:"message,omitempty"`
	SubscriptionID          uuid.UUID  `json:"subscription_id"`
	UserID                  uuid.UUID  `json:"user_id"`
	Tier                    enums.Tier `json:"tier"`
	ExpiresAt               *time.Time `json:"expires_at,omitempty"`
	HadExistingSubscription bool       `json:"had_existing_subscription"`
}

func (s *service) Gift(ctx context.Context, actor Actor, input GiftInput) (*GiftResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	now := s.now().UTC()
	expiresAt, err := parseExpiry(input.ExpiresAt, now)
	if err != nil {
		return nil, err
	}

	target, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if target.Role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot gift to admin accounts")
	}

	current, err := s.subs.FindCurrentByUser(ctx, target.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if current != nil && !current.IsGifted && current.Status.IsLive() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "user already has an active paid subscription; cancel it first").
			WithDetails(map[string]any{"status": current.Status, "tier": current.Tier})
	}

	// A lapsed paid row stays as history; the gift becomes the newer current
	// row so provider syncs of the old subscription id never touch it.
	hadExisting := current != nil
	updateInPlace := current != nil && current.IsGifted
	sub := current
	if !updateInPlace {
		sub = &models.Subscription{UserID: target.ID, Currency: "USD"}
	}
	clearProviderFields(sub)
	sub.Status = enums.SubscriptionStatusActive
	sub.Tier = enums.TierSupporter
	sub.BillingInterval = enums.BillingIntervalMonthly
	sub.AmountCents = 0
	sub.IsGifted = true
	sub.GiftedExpiresAt = expiresAt
	sub.CancelledAt = nil

	if updateInPlace {
		err = s.subs.UpdateVersioned(ctx, sub)
	} else {
		err = s.subs.Create(ctx, sub)
	}
	if err != nil {
		return nil, persistErr(err, "save gifted subscription")
	}

	details := map[string]any{"had_existing_subscription": hadExisting, "expires_at": nil}
	if expiresAt != nil {
		details["expires_at"] = expiresAt.Format(time.RFC3339)
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		details["notes"] = notes
	}
	s.audit.Append(ctx, audit.Entry{
		AdminID:      actor.UserID,
		Action:       enums.AuditActionGiftSubscription,
		TargetUserID: &target.ID,
		Details:      details,
	})

	return &GiftResult{
		Success:                 true,
		Message:                 "subscription gifted",
		SubscriptionID:          sub.ID,
		UserID:                  target.ID,
		Tier:                    sub.Tier,
		ExpiresAt:               expiresAt,
		HadExistingSubscription: hadExisting,
	}, nil
}

// clearProviderFields detaches a gifted row from any billing provider record.
func clearProviderFields(sub *models.Subscription) {
	sub.LemonSqueezySubscriptionID = nil
	sub.LemonSqueezyCustomerID = nil
	sub.LemonSqueezyOrderID = nil
	sub.LemonSqueezyProductID = nil
	sub.LemonSqueezyVariantID = nil
	sub.CardBrand = nil
	sub.CardLastFour = nil
	sub.CustomerPortalURL = nil
	sub.UpdatePaymentURL = nil
	sub.CurrentPeriodStart = nil
	sub.CurrentPeriodEnd = nil
}

// RemoveGiftResult reports the removed gift.
type RemoveGiftResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	UserID  uuid.UUID  `json:"user_id"`
	Tier    enums.Tier `json:"tier"`
}

func (s *service) RemoveGift(ctx context.Context, actor Actor, userID uuid.UUID) (*RemoveGiftResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	current, err := s.subs.FindCurrentByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if current == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	if !current.IsGifted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription is not a gift")
	}
	if err := s.subs.Delete(ctx, current.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete gifted subscription")
	}

	s.audit.Append(ctx, audit.Entry{
		AdminID:      actor.UserID,
		Action:       enums.AuditActionRemoveGift,
		TargetUserID: &userID,
		Details:      map[string]any{"tier": current.Tier},
	})

	return &RemoveGiftResult{Success: true, Message: "gift removed", UserID: userID, Tier: current.Tier}, nil
}

// LinkInput attaches an existing billing subscription to a user.
type LinkInput struct {
	UserID                 uuid.UUID
	ExternalSubscriptionID string
	Override               bool
}

// LinkResult reports the linked subscription.
type LinkResult struct {
	Success           bool                     `json:"success"`
	Message           string                   `json:"message,omitempty"`
	SubscriptionID    uuid.UUID                `json:"subscription_id"`
	ExternalID        string                   `json:"lemonsqueezy_subscription_id"`
	UserID            uuid.UUID                `json:"user_id"`
	Tier              enums.Tier               `json:"tier"`
	BillingInterval   enums.BillingInterval    `json:"billing_interval"`
	Status            enums.SubscriptionStatus `json:"status"`
	AmountCents       int64                    `json:"amount_cents"`
	EmailOverrideUsed bool                     `json:"email_override_used"`
	Created           bool                     `json:"created"`
}

func (s *service) Link(ctx context.Context, actor Actor, input LinkInput) (*LinkResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	externalID := strings.TrimSpace(input.ExternalSubscriptionID)
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if externalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}

	target, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	remote, err := s.billing.GetSubscription(ctx, externalID)
	if err != nil {
		return nil, upstreamErr(err, "fetch billing subscription")
	}

	emailMismatch := !strings.EqualFold(strings.TrimSpace(remote.UserEmail), strings.TrimSpace(target.Email))
	if emailMismatch && !input.Override {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing email does not match the user's email").
			WithDetails(map[string]any{
				"billing_email": remote.UserEmail,
				"user_email":    target.Email,
			})
	}

	linked, err := s.subs.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if linked != nil && linked.UserID != target.ID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "subscription is already linked to another user")
	}

	variantID := remote.VariantID.String()
	mapping, ok := s.variants.MapVariantToTierAndInterval(variantID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription variant is not a known tier").
			WithDetails(map[string]any{"variant_id": variantID})
	}

	status, err := enums.ParseSubscriptionStatus(remote.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "billing subscription has unknown status")
	}

	amount := s.chargedAmount(ctx, variantID, mapping)

	sub := linked
	if sub == nil {
		current, err := s.subs.FindCurrentByUser(ctx, target.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		sub = current
	}
	created := sub == nil
	if created {
		sub = &models.Subscription{UserID: target.ID}
	}
	ApplyRemote(sub, remote, mapping, status)
	sub.AmountCents = amount
	sub.IsGifted = false
	sub.GiftedExpiresAt = nil

	if created {
		err = s.subs.Create(ctx, sub)
	} else {
		err = s.subs.UpdateVersioned(ctx, sub)
	}
	if err != nil {
		return nil, persistErr(err, "save linked subscription")
	}

	s.audit.Append(ctx, audit.Entry{
		AdminID:      actor.UserID,
		Action:       enums.AuditActionLinkSubscription,
		TargetUserID: &target.ID,
		Details: map[string]any{
			"lemonsqueezy_subscription_id": externalID,
			"email_override_used":          emailMismatch && input.Override,
			"tier":                         mapping.Tier,
			"billing_interval":             mapping.Interval,
			"amount_cents":                 amount,
			"created":                      created,
		},
	})

	return &LinkResult{
		Success:           true,
		Message:           "subscription linked",
		SubscriptionID:    sub.ID,
		ExternalID:        externalID,
		UserID:            target.ID,
		Tier:              sub.Tier,
		BillingInterval:   sub.BillingInterval,
		Status:            sub.Status,
		AmountCents:       amount,
		EmailOverrideUsed: emailMismatch && input.Override,
		Created:           created,
	}, nil
}

// chargedAmount prefers the live variant price and falls back to the cached
// price table. An amount of zero means neither source knew the price.
func (s *service) chargedAmount(ctx context.Context, variantID string, mapping variants.Mapping) int64 {
	if variant, err := s.billing.GetVariant(ctx, variantID); err == nil && variant != nil && variant.Price > 0 {
		return variant.Price
	} else if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "variant_id", variantID), "subscriptions.live_price_unavailable")
	}
	cents, err := s.prices.PriceCents(ctx, mapping.Tier, mapping.Interval)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "variant_id", variantID), "subscriptions.cached_price_unavailable")
		return 0
	}
	return cents
}

// Outcome reports a cancel or resume. Degraded means the billing provider
// accepted the change but the local mirror write failed.
type Outcome struct {
	Success     bool                     `json:"success"`
	Message     string                   `json:"message,omitempty"`
	ExternalID  string                   `json:"lemonsqueezy_subscription_id"`
	Status      enums.SubscriptionStatus `json:"status"`
	CancelledAt *time.Time               `json:"ends_at,omitempty"`
	Degraded    bool                     `json:"degraded"`
}

func (s *service) Cancel(ctx context.Context, actor Actor, externalID string) (*Outcome, error) {
	sub, err := s.authorizeOwner(ctx, actor, externalID)
	if err != nil {
		return nil, err
	}
	switch sub.Status {
	case enums.SubscriptionStatusCancelled, enums.SubscriptionStatusExpired:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot cancel a %s subscription", sub.Status))
	}

	remote, err := s.billing.UpdateSubscriptionCancelled(ctx, sub.ExternalID(), true)
	if err != nil {
		return nil, upstreamErr(err, "cancel subscription")
	}

	status := enums.SubscriptionStatusCancelled
	if parsed, perr := enums.ParseSubscriptionStatus(remote.Status); perr == nil {
		status = parsed
	}
	sub.Status = status
	sub.CancelledAt = remoteEnd(remote, sub)

	outcome := &Outcome{
		Success:     true,
		Message:     "subscription cancelled",
		ExternalID:  sub.ExternalID(),
		Status:      sub.Status,
		CancelledAt: sub.CancelledAt,
	}
	outcome.Degraded = !s.mirror(ctx, "cancel", sub)

	s.audit.Append(ctx, audit.Entry{
		AdminID:      actor.UserID,
		Action:       enums.AuditActionCancelSubscription,
		TargetUserID: &sub.UserID,
		Details: map[string]any{
			"lemonsqueezy_subscription_id": sub.ExternalID(),
			"ends_at":                      sub.CancelledAt,
			"mirror_degraded":              outcome.Degraded,
		},
	})
	return outcome, nil
}

func (s *service) Resume(ctx context.Context, actor Actor, externalID string) (*Outcome, error) {
	sub, err := s.authorizeOwner(ctx, actor, externalID)
	if err != nil {
		return nil, err
	}
	if sub.Status != enums.SubscriptionStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only cancelled subscriptions can be resumed")
	}
	if !entitlements.IsEntitled(sub, s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "grace period has ended; start a new subscription")
	}

	remote, err := s.billing.UpdateSubscriptionCancelled(ctx, sub.ExternalID(), false)
	if err != nil {
		return nil, upstreamErr(err, "resume subscription")
	}

	status := enums.SubscriptionStatusActive
	if parsed, perr := enums.ParseSubscriptionStatus(remote.Status); perr == nil && parsed != enums.SubscriptionStatusCancelled {
		status = parsed
	}
	sub.Status = status
	sub.CancelledAt = nil
	if remote.RenewsAt != nil {
		renews := remote.RenewsAt.UTC()
		sub.CurrentPeriodEnd = &renews
	}

	outcome := &Outcome{
		Success:    true,
		Message:    "subscription resumed",
		ExternalID: sub.ExternalID(),
		Status:     sub.Status,
	}
	outcome.Degraded = !s.mirror(ctx, "resume", sub)

	s.audit.Append(ctx, audit.Entry{
		AdminID:      actor.UserID,
		Action:       enums.AuditActionResumeSubscription,
		TargetUserID: &sub.UserID,
		Details: map[string]any{
			"lemonsqueezy_subscription_id": sub.ExternalID(),
			"mirror_degraded":              outcome.Degraded,
		},
	})
	return outcome, nil
}

func (s *service) authorizeOwner(ctx context.Context, actor Actor, externalID string) (*models.Subscription, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}
	sub, err := s.subs.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	if sub.UserID != actor.UserID && !actor.Role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "subscription belongs to another user")
	}
	return sub, nil
}

// mirror writes the provider-confirmed state locally. The provider is the
// source of truth and webhooks reconcile later, so failures only degrade.
func (s *service) mirror(ctx context.Context, op string, sub *models.Subscription) bool {
	if err := s.subs.UpdateVersioned(ctx, sub); err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"operation":                    op,
			"lemonsqueezy_subscription_id": sub.ExternalID(),
		})
		s.logg.Error(ctx, "subscriptions.mirror_failed", err)
		s.metrics.Mirror(op, metrics.MirrorDegraded)
		return false
	}
	s.metrics.Mirror(op, metrics.MirrorOK)
	return true
}

// ApplyRemote copies provider state onto sub. Amount and gift fields are left
// to the caller.
func ApplyRemote(sub *models.Subscription, remote *lemonsqueezy.Subscription, mapping variants.Mapping, status enums.SubscriptionStatus) {
	sub.Status = status
	sub.Tier = mapping.Tier
	sub.BillingInterval = mapping.Interval
	sub.LemonSqueezySubscriptionID = optional(remote.ID)
	sub.LemonSqueezyCustomerID = optional(remote.CustomerID.String())
	sub.LemonSqueezyOrderID = optional(remote.OrderID.String())
	sub.LemonSqueezyProductID = optional(remote.ProductID.String())
	sub.LemonSqueezyVariantID = optional(remote.VariantID.String())
	sub.CardBrand = remote.CardBrand
	sub.CardLastFour = remote.CardLastFour
	sub.CustomerPortalURL = optional(remote.URLs.CustomerPortal)
	sub.UpdatePaymentURL = optional(remote.URLs.UpdatePaymentMethod)
	if remote.RenewsAt != nil {
		end := remote.RenewsAt.UTC()
		sub.CurrentPeriodEnd = &end
	}
	if status == enums.SubscriptionStatusCancelled || status == enums.SubscriptionStatusExpired {
		sub.CancelledAt = remoteEnd(remote, sub)
	} else {
		sub.CancelledAt = nil
	}
}

// remoteEnd is when access ends for a cancelled subscription: ends_at, else
// the end of the paid period.
func remoteEnd(remote *lemonsqueezy.Subscription, sub *models.Subscription) *time.Time {
	if remote.EndsAt != nil {
		end := remote.EndsAt.UTC()
		return &end
	}
	if remote.RenewsAt != nil {
		end := remote.RenewsAt.UTC()
		return &end
	}
	return sub.CurrentPeriodEnd
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// parseExpiry accepts RFC3339 or YYYY-MM-DD and requires a future instant.
func parseExpiry(raw *string, now time.Time) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		parsed, err = time.Parse("2006-01-02", value)
	}
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expires_at must be a valid date").
			WithDetails(map[string]any{"expires_at": value})
	}
	parsed = parsed.UTC()
	if !parsed.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expires_at must be in the future").
			WithDetails(map[string]any{"expires_at": value})
	}
	return &parsed, nil
}

func upstreamErr(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func persistErr(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "subscription is already linked to another user")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
