package scoreboards

import (
	"context"
	"errors"

	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads scoreboards and counts their dependent rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a scoreboard. Missing boards return (nil, nil).
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Scoreboard, error) {
	var board models.Scoreboard
	if err := r.db.WithContext(ctx).First(&board, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &board, nil
}

// CountPublicUnlocked counts the owner's public boards that are not locked.
func (r *Repository) CountPublicUnlocked(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Scoreboard{}).
		Where("owner_id = ?", ownerID).
		Where("visibility = ?", enums.ScoreboardVisibilityPublic).
		Where("is_locked = ?", false).
		Count(&count).Error
	return count, err
}

// CountEntries counts entries on a scoreboard.
func (r *Repository) CountEntries(ctx context.Context, scoreboardID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ScoreboardEntry{}).
		Where("scoreboard_id = ?", scoreboardID).
		Count(&count).Error
	return count, err
}

// CountSnapshots counts snapshots taken of a scoreboard.
func (r *Repository) CountSnapshots(ctx context.Context, scoreboardID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ScoreboardSnapshot{}).
		Where("scoreboard_id = ?", scoreboardID).
		Count(&count).Error
	return count, err
}
