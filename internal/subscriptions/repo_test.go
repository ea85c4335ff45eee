package subscriptions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/scoreboard-manager/pkg/db/dbtest"
	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSub(userID uuid.UUID, createdAt time.Time) *models.Subscription {
	return &models.Subscription{
		UserID:          userID,
		Status:          enums.SubscriptionStatusActive,
		Tier:            enums.TierSupporter,
		BillingInterval: enums.BillingIntervalMonthly,
		CreatedAt:       createdAt,
	}
}

func TestRepositoryFindCurrentByUserPicksNewest(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := newSub(userID, base)
	older.Status = enums.SubscriptionStatusExpired
	require.NoError(t, repo.Create(ctx, older))
	newer := newSub(userID, base.Add(time.Hour))
	require.NoError(t, repo.Create(ctx, newer))

	current, err := repo.FindCurrentByUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, newer.ID, current.ID)
	assert.Equal(t, 1, current.Version)

	missing, err := repo.FindCurrentByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryFindByExternalID(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	externalID := "sub_123"

	sub := newSub(uuid.New(), time.Now().UTC())
	sub.LemonSqueezySubscriptionID = &externalID
	require.NoError(t, repo.Create(ctx, sub))

	found, err := repo.FindByExternalID(ctx, " sub_123 ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, sub.ID, found.ID)

	none, err := repo.FindByExternalID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRepositoryUpdateVersionedRejectsStaleVersion(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	sub := newSub(uuid.New(), time.Now().UTC())
	require.NoError(t, repo.Create(ctx, sub))

	stale := *sub

	sub.Status = enums.SubscriptionStatusCancelled
	ends := time.Now().UTC().Add(24 * time.Hour)
	sub.CancelledAt = &ends
	require.NoError(t, repo.UpdateVersioned(ctx, sub))
	assert.Equal(t, 2, sub.Version)

	stale.Tier = enums.TierLegend
	err := repo.UpdateVersioned(ctx, &stale)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConcurrentModification))

	reloaded, err := repo.FindCurrentByUser(ctx, sub.UserID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionStatusCancelled, reloaded.Status)
	assert.Equal(t, enums.TierSupporter, reloaded.Tier)
	assert.Equal(t, 2, reloaded.Version)
	require.NotNil(t, reloaded.CancelledAt)
}

func TestRepositoryDelete(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	sub := newSub(uuid.New(), time.Now().UTC())
	require.NoError(t, repo.Create(ctx, sub))
	require.NoError(t, repo.Delete(ctx, sub.ID))

	current, err := repo.FindCurrentByUser(ctx, sub.UserID)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestRepositoryListStale(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	insert := func(externalID string, status enums.SubscriptionStatus, updatedAt time.Time) *models.Subscription {
		sub := newSub(uuid.New(), updatedAt)
		sub.Status = status
		sub.UpdatedAt = updatedAt
		if externalID != "" {
			sub.LemonSqueezySubscriptionID = &externalID
		}
		require.NoError(t, repo.Create(ctx, sub))
		return sub
	}

	oldest := insert("sub_old", enums.SubscriptionStatusActive, cutoff.Add(-72*time.Hour))
	older := insert("sub_older", enums.SubscriptionStatusCancelled, cutoff.Add(-24*time.Hour))
	insert("sub_fresh", enums.SubscriptionStatusActive, cutoff.Add(time.Hour))
	insert("sub_gone", enums.SubscriptionStatusExpired, cutoff.Add(-48*time.Hour))
	insert("", enums.SubscriptionStatusActive, cutoff.Add(-48*time.Hour))

	rows, err := repo.ListStale(ctx, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, oldest.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)

	limited, err := repo.ListStale(ctx, cutoff, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, oldest.ID, limited[0].ID)
}
