package lemonsqueezywebhook

import (
	"context"
	"errors"

	"github.com/angelmondragon/scoreboard-manager/internal/subscriptions"
	"github.com/angelmondragon/scoreboard-manager/internal/variants"
	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/lemonsqueezy"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/google/uuid"
)

const maxWriteAttempts = 3

type subscriptionStore interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.Subscription, error)
	Create(ctx context.Context, sub *models.Subscription) error
	UpdateVersioned(ctx context.Context, sub *models.Subscription) error
}

type billingAPI interface {
	GetSubscription(ctx context.Context, id string) (*lemonsqueezy.Subscription, error)
	GetVariant(ctx context.Context, id string) (*lemonsqueezy.Variant, error)
}

type priceCache interface {
	PriceCents(ctx context.Context, tier enums.Tier, interval enums.BillingInterval) (int64, error)
	SyncPriceIfChanged(ctx context.Context, tier enums.Tier, interval enums.BillingInterval, amountCents int64, variantID string)
}

type ServiceParams struct {
	Subscriptions subscriptionStore
	Billing       billingAPI
	Variants      *variants.Table
	Prices        priceCache
	Logger        *logger.Logger
}

// Service mirrors provider subscription state into the local table.
type Service struct {
	subs     subscriptionStore
	billing  billingAPI
	variants *variants.Table
	prices   priceCache
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription store required")
	}
	if params.Billing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing api required")
	}
	if params.Variants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "variant table required")
	}
	if params.Prices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "price cache required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		subs:     params.Subscriptions,
		billing:  params.Billing,
		variants: params.Variants,
		prices:   params.Prices,
		logg:     params.Logger,
	}, nil
}

// HandleEvent applies one verified delivery. Events the service cannot place
// (unknown variant, unknown status, non-subscription resources) are skipped.
func (s *Service) HandleEvent(ctx context.Context, event lemonsqueezy.WebhookEvent) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_name":                   event.Meta.EventName,
		"lemonsqueezy_subscription_id": event.SubscriptionID(),
	})

	var remote *lemonsqueezy.Subscription
	switch {
	case event.IsSubscriptionEvent():
		sub := event.Subscription()
		remote = &sub
	case event.IsInvoiceEvent():
		id := event.SubscriptionID()
		if id == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "invoice event is missing subscription_id")
		}
		fetched, err := s.billing.GetSubscription(ctx, id)
		if err != nil {
			if pkgerrors.As(err) != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch billing subscription")
		}
		remote = fetched
	default:
		s.logg.Debug(ctx, "webhook.ignored")
		return nil
	}

	return s.sync(ctx, event.Meta, remote)
}

// Resync pulls the provider's current state for externalID and mirrors it,
// the same way a subscription_updated delivery would. The stored owner is kept.
func (s *Service) Resync(ctx context.Context, externalID string) error {
	ctx = s.logg.WithField(ctx, "lemonsqueezy_subscription_id", externalID)
	remote, err := s.billing.GetSubscription(ctx, externalID)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch billing subscription")
	}
	return s.sync(ctx, lemonsqueezy.WebhookMeta{}, remote)
}

func (s *Service) sync(ctx context.Context, meta lemonsqueezy.WebhookMeta, remote *lemonsqueezy.Subscription) error {
	variantID := remote.VariantID.String()
	mapping, ok := s.variants.MapVariantToTierAndInterval(variantID)
	if !ok {
		s.logg.Warn(s.logg.WithField(ctx, "variant_id", variantID), "webhook.unknown_variant")
		return nil
	}
	status, err := enums.ParseSubscriptionStatus(remote.Status)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "status", remote.Status), "webhook.unknown_status")
		return nil
	}

	live := s.livePrice(ctx, variantID)
	if live > 0 {
		s.prices.SyncPriceIfChanged(ctx, mapping.Tier, mapping.Interval, live, variantID)
	}

	for attempt := 1; ; attempt++ {
		err := s.upsert(ctx, meta, remote, mapping, status, live)
		if err == nil {
			return nil
		}
		if !errors.Is(err, subscriptions.ErrConcurrentModification) || attempt >= maxWriteAttempts {
			return err
		}
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "webhook.concurrent_update_retry")
	}
}

func (s *Service) upsert(ctx context.Context, meta lemonsqueezy.WebhookMeta, remote *lemonsqueezy.Subscription, mapping variants.Mapping, status enums.SubscriptionStatus, live int64) error {
	existing, err := s.subs.FindByExternalID(ctx, remote.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	userID, err := resolveUser(meta, existing)
	if err != nil {
		return err
	}

	sub := existing
	if sub == nil {
		sub = &models.Subscription{UserID: userID}
	}
	previousTier, previousInterval := sub.Tier, sub.BillingInterval
	subscriptions.ApplyRemote(sub, remote, mapping, status)
	sub.IsGifted = false
	sub.GiftedExpiresAt = nil

	switch {
	case live > 0:
		sub.AmountCents = live
	case existing != nil && previousTier == mapping.Tier && previousInterval == mapping.Interval && sub.AmountCents > 0:
	default:
		if cents, perr := s.prices.PriceCents(ctx, mapping.Tier, mapping.Interval); perr == nil {
			sub.AmountCents = cents
		}
	}

	if existing == nil {
		if err := s.subs.Create(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
		}
		s.logg.Info(ctx, "webhook.subscription_created")
		return nil
	}
	if err := s.subs.UpdateVersioned(ctx, sub); err != nil {
		if errors.Is(err, subscriptions.ErrConcurrentModification) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
	}
	s.logg.Info(ctx, "webhook.subscription_updated")
	return nil
}

func (s *Service) livePrice(ctx context.Context, variantID string) int64 {
	variant, err := s.billing.GetVariant(ctx, variantID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "variant_id", variantID), "webhook.live_price_unavailable")
		return 0
	}
	if variant == nil {
		return 0
	}
	return variant.Price
}

// resolveUser prefers the checkout custom data and falls back to the owner of
// the already linked row.
func resolveUser(meta lemonsqueezy.WebhookMeta, existing *models.Subscription) (uuid.UUID, error) {
	if raw := meta.UserID(); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			if existing != nil && existing.UserID != id {
				return existing.UserID, nil
			}
			return id, nil
		}
	}
	if existing != nil {
		return existing.UserID, nil
	}
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook carries no user_id and the subscription is not linked")
}
