package limits

import (
	"context"
	"fmt"
	"math"

	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/google/uuid"
)

// Unlimited stands in for "no ceiling" in every count-based limit.
const Unlimited = math.MaxInt32

// Profile lists the ceilings for one plan.
type Profile struct {
	PublicScoreboards      int `json:"public_scoreboards"`
	PrivateScoreboards     int `json:"private_scoreboards"`
	EntriesPerScoreboard   int `json:"entries_per_scoreboard"`
	SnapshotsPerScoreboard int `json:"snapshots_per_scoreboard"`
}

var (
	// Free applies to users without entitlement.
	Free = Profile{PublicScoreboards: 2, PrivateScoreboards: 0, EntriesPerScoreboard: 50, SnapshotsPerScoreboard: 10}
	// Supporter applies to entitled users of any tier.
	Supporter = Profile{PublicScoreboards: Unlimited, PrivateScoreboards: Unlimited, EntriesPerScoreboard: Unlimited, SnapshotsPerScoreboard: 100}
)

// ProfileFor selects the profile from the entitlement decision alone.
func ProfileFor(entitled bool) Profile {
	if entitled {
		return Supporter
	}
	return Free
}

var (
	errScoreboardNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "scoreboard not found")
	errScoreboardLocked   = pkgerrors.New(pkgerrors.CodeStateConflict, "scoreboard is locked")
)

// Entitlements is the decision the limits depend on.
type Entitlements interface {
	HasActiveSubscription(ctx context.Context, userID uuid.UUID) (bool, error)
	SubscriptionTier(ctx context.Context, userID uuid.UUID) (enums.Tier, bool, error)
}

// ScoreboardStore resolves boards and counts their rows.
type ScoreboardStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Scoreboard, error)
	CountPublicUnlocked(ctx context.Context, ownerID uuid.UUID) (int64, error)
	CountEntries(ctx context.Context, scoreboardID uuid.UUID) (int64, error)
	CountSnapshots(ctx context.Context, scoreboardID uuid.UUID) (int64, error)
}

// Engine computes allow/deny decisions and remaining quota.
// No operation panics or returns a bare error; failures land in Result.Err.
type Engine struct {
	entitlements Entitlements
	boards       ScoreboardStore
}

// NewEngine validates dependencies.
func NewEngine(entitlements Entitlements, boards ScoreboardStore) (*Engine, error) {
	if entitlements == nil {
		return nil, fmt.Errorf("entitlements required")
	}
	if boards == nil {
		return nil, fmt.Errorf("scoreboard store required")
	}
	return &Engine{entitlements: entitlements, boards: boards}, nil
}

// CanCreatePublicScoreboard skips counting for entitled users.
func (e *Engine) CanCreatePublicScoreboard(ctx context.Context, userID uuid.UUID) Result[bool] {
	return contain(func() (bool, error) {
		entitled, err := e.entitlements.HasActiveSubscription(ctx, userID)
		if err != nil {
			return false, err
		}
		if entitled {
			return true, nil
		}
		count, err := e.boards.CountPublicUnlocked(ctx, userID)
		if err != nil {
			return false, storeErr(err)
		}
		return count < int64(Free.PublicScoreboards), nil
	})
}

// CanCreatePrivateScoreboard is decided by entitlement alone.
func (e *Engine) CanCreatePrivateScoreboard(ctx context.Context, userID uuid.UUID) Result[bool] {
	return contain(func() (bool, error) {
		return e.entitlements.HasActiveSubscription(ctx, userID)
	})
}

// CanAddEntry applies the board owner's limits. Locked boards refuse entries
// regardless of entitlement.
func (e *Engine) CanAddEntry(ctx context.Context, scoreboardID uuid.UUID) Result[bool] {
	return contain(func() (bool, error) {
		board, err := e.board(ctx, scoreboardID)
		if err != nil {
			return false, err
		}
		if board.IsLocked {
			return false, errScoreboardLocked
		}
		entitled, err := e.entitlements.HasActiveSubscription(ctx, board.OwnerID)
		if err != nil {
			return false, err
		}
		if entitled {
			return true, nil
		}
		count, err := e.boards.CountEntries(ctx, scoreboardID)
		if err != nil {
			return false, storeErr(err)
		}
		return count < int64(Free.EntriesPerScoreboard), nil
	})
}

// MaxSnapshots returns the per-board snapshot cap for userID.
func (e *Engine) MaxSnapshots(ctx context.Context, userID uuid.UUID) Result[int] {
	return contain(func() (int, error) {
		entitled, err := e.entitlements.HasActiveSubscription(ctx, userID)
		if err != nil {
			return 0, err
		}
		return ProfileFor(entitled).SnapshotsPerScoreboard, nil
	})
}

// CanCreateSnapshot compares the board's snapshots to its owner's cap.
func (e *Engine) CanCreateSnapshot(ctx context.Context, scoreboardID uuid.UUID) Result[bool] {
	return contain(func() (bool, error) {
		board, err := e.board(ctx, scoreboardID)
		if err != nil {
			return false, err
		}
		entitled, err := e.entitlements.HasActiveSubscription(ctx, board.OwnerID)
		if err != nil {
			return false, err
		}
		count, err := e.boards.CountSnapshots(ctx, scoreboardID)
		if err != nil {
			return false, storeErr(err)
		}
		return count < int64(ProfileFor(entitled).SnapshotsPerScoreboard), nil
	})
}

// CanUseKiosk gates kiosk mode on entitlement.
func (e *Engine) CanUseKiosk(ctx context.Context, userID uuid.UUID) Result[bool] {
	return contain(func() (bool, error) {
		return e.entitlements.HasActiveSubscription(ctx, userID)
	})
}

// RemainingPublicScoreboards never goes below zero.
func (e *Engine) RemainingPublicScoreboards(ctx context.Context, userID uuid.UUID) Result[int] {
	return contain(func() (int, error) {
		entitled, err := e.entitlements.HasActiveSubscription(ctx, userID)
		if err != nil {
			return 0, err
		}
		if entitled {
			return Unlimited, nil
		}
		count, err := e.boards.CountPublicUnlocked(ctx, userID)
		if err != nil {
			return 0, storeErr(err)
		}
		return remaining(Free.PublicScoreboards, count), nil
	})
}

// RemainingEntries never goes below zero.
func (e *Engine) RemainingEntries(ctx context.Context, scoreboardID uuid.UUID) Result[int] {
	return contain(func() (int, error) {
		board, err := e.board(ctx, scoreboardID)
		if err != nil {
			return 0, err
		}
		entitled, err := e.entitlements.HasActiveSubscription(ctx, board.OwnerID)
		if err != nil {
			return 0, err
		}
		if entitled {
			return Unlimited, nil
		}
		count, err := e.boards.CountEntries(ctx, scoreboardID)
		if err != nil {
			return 0, storeErr(err)
		}
		return remaining(Free.EntriesPerScoreboard, count), nil
	})
}

// UserSummary describes a user's plan limits and usage.
type UserSummary struct {
	Entitled                   bool        `json:"entitled"`
	Tier                       *enums.Tier `json:"tier,omitempty"`
	Limits                     Profile     `json:"limits"`
	PublicScoreboardsUsed      int64       `json:"public_scoreboards_used"`
	RemainingPublicScoreboards int         `json:"remaining_public_scoreboards"`
	CanCreatePrivate           bool        `json:"can_create_private_scoreboard"`
	CanUseKiosk                bool        `json:"can_use_kiosk"`
}

// Summary bundles the per-user limits for display.
func (e *Engine) Summary(ctx context.Context, userID uuid.UUID) Result[UserSummary] {
	return contain(func() (UserSummary, error) {
		entitled, err := e.entitlements.HasActiveSubscription(ctx, userID)
		if err != nil {
			return UserSummary{}, err
		}
		count, err := e.boards.CountPublicUnlocked(ctx, userID)
		if err != nil {
			return UserSummary{}, storeErr(err)
		}
		profile := ProfileFor(entitled)
		summary := UserSummary{
			Entitled:                   entitled,
			Limits:                     profile,
			PublicScoreboardsUsed:      count,
			RemainingPublicScoreboards: remaining(profile.PublicScoreboards, count),
			CanCreatePrivate:           entitled,
			CanUseKiosk:                entitled,
		}
		if tier, ok, err := e.entitlements.SubscriptionTier(ctx, userID); err == nil && ok {
			summary.Tier = &tier
		}
		return summary, nil
	})
}

// ScoreboardSummary describes one board's limits and usage.
type ScoreboardSummary struct {
	ScoreboardID      uuid.UUID `json:"scoreboard_id"`
	OwnerID           uuid.UUID `json:"-"`
	IsLocked          bool      `json:"is_locked"`
	OwnerEntitled     bool      `json:"owner_entitled"`
	EntriesUsed       int64     `json:"entries_used"`
	RemainingEntries  int       `json:"remaining_entries"`
	CanAddEntry       bool      `json:"can_add_entry"`
	SnapshotsUsed     int64     `json:"snapshots_used"`
	MaxSnapshots      int       `json:"max_snapshots"`
	CanCreateSnapshot bool      `json:"can_create_snapshot"`
}

// ScoreboardLimits bundles the per-board limits for display.
func (e *Engine) ScoreboardLimits(ctx context.Context, scoreboardID uuid.UUID) Result[ScoreboardSummary] {
	return contain(func() (ScoreboardSummary, error) {
		board, err := e.board(ctx, scoreboardID)
		if err != nil {
			return ScoreboardSummary{}, err
		}
		entitled, err := e.entitlements.HasActiveSubscription(ctx, board.OwnerID)
		if err != nil {
			return ScoreboardSummary{}, err
		}
		entries, err := e.boards.CountEntries(ctx, scoreboardID)
		if err != nil {
			return ScoreboardSummary{}, storeErr(err)
		}
		snapshots, err := e.boards.CountSnapshots(ctx, scoreboardID)
		if err != nil {
			return ScoreboardSummary{}, storeErr(err)
		}
		profile := ProfileFor(entitled)
		return ScoreboardSummary{
			ScoreboardID:      board.ID,
			OwnerID:           board.OwnerID,
			IsLocked:          board.IsLocked,
			OwnerEntitled:     entitled,
			EntriesUsed:       entries,
			RemainingEntries:  remaining(profile.EntriesPerScoreboard, entries),
			CanAddEntry:       !board.IsLocked && entries < int64(profile.EntriesPerScoreboard),
			SnapshotsUsed:     snapshots,
			MaxSnapshots:      profile.SnapshotsPerScoreboard,
			CanCreateSnapshot: snapshots < int64(profile.SnapshotsPerScoreboard),
		}, nil
	})
}

func (e *Engine) board(ctx context.Context, scoreboardID uuid.UUID) (*models.Scoreboard, error) {
	board, err := e.boards.FindByID(ctx, scoreboardID)
	if err != nil {
		return nil, storeErr(err)
	}
	if board == nil {
		return nil, errScoreboardNotFound
	}
	return board, nil
}

func remaining(limit int, count int64) int {
	if limit >= Unlimited {
		return Unlimited
	}
	left := int64(limit) - count
	if left < 0 {
		return 0
	}
	return int(left)
}

func storeErr(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load usage")
}
