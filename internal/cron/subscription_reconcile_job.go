package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

const (
	defaultReconcileBatch      = 100
	defaultReconcileStaleAfter = 24 * time.Hour
)

type staleSubscriptions interface {
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error)
}

type subscriptionResyncer interface {
	Resync(ctx context.Context, externalID string) error
}

// SubscriptionReconcileJobParams configures the subscription reconcile job.
type SubscriptionReconcileJobParams struct {
	Logger     *logger.Logger
	Store      staleSubscriptions
	Resyncer   subscriptionResyncer
	BatchSize  int
	StaleAfter time.Duration
	Clock      func() time.Time
}

// NewSubscriptionReconcileJob builds the job that re-mirrors subscriptions no
// webhook has touched for StaleAfter. It repairs rows left behind by a
// degraded cancel/resume or a lost delivery.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("subscription store required")
	}
	if params.Resyncer == nil {
		return nil, fmt.Errorf("resyncer required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultReconcileStaleAfter
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &subscriptionReconcileJob{
		logg:       params.Logger,
		store:      params.Store,
		resyncer:   params.Resyncer,
		batch:      batch,
		staleAfter: staleAfter,
		now:        clock,
	}, nil
}

type subscriptionReconcileJob struct {
	logg       *logger.Logger
	store      staleSubscriptions
	resyncer   subscriptionResyncer
	batch      int
	staleAfter time.Duration
	now        func() time.Time
}

func (j *subscriptionReconcileJob) Name() string { return "subscription-reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.staleAfter)
	rows, err := j.store.ListStale(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list stale subscriptions: %w", err)
	}

	var errs error
	synced := 0
	for i := range rows {
		externalID := rows[i].ExternalID()
		if externalID == "" {
			continue
		}
		if err := j.resyncer.Resync(ctx, externalID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("resync %s: %w", externalID, err))
			continue
		}
		synced++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"candidates": len(rows),
		"synced":     synced,
		"cutoff":     cutoff,
	}), "subscription reconcile complete")
	return errs
}
