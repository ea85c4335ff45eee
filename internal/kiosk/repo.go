package kiosk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store exposes kiosk config and slide persistence.
type Store interface {
	WithTx(tx *gorm.DB) Store
	FindConfigByScoreboard(ctx context.Context, scoreboardID uuid.UUID) (*models.KioskConfig, error)
	CreateConfig(ctx context.Context, cfg *models.KioskConfig) error
	ListSlides(ctx context.Context, configID uuid.UUID) ([]models.KioskSlide, error)
	CountSlides(ctx context.Context, configID uuid.UUID) (int64, error)
	NextPosition(ctx context.Context, configID uuid.UUID) (int, error)
	InsertSlide(ctx context.Context, slide *models.KioskSlide) error
	DeleteSlide(ctx context.Context, configID, slideID uuid.UUID) (bool, error)
	UpdatePosition(ctx context.Context, configID, slideID uuid.UUID, position int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a kiosk repository bound to the provided database.
func NewRepository(db *gorm.DB) Store {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Store {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindConfigByScoreboard(ctx context.Context, scoreboardID uuid.UUID) (*models.KioskConfig, error) {
	var cfg models.KioskConfig
	if err := r.db.WithContext(ctx).Where("scoreboard_id = ?", scoreboardID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *repository) CreateConfig(ctx context.Context, cfg *models.KioskConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(cfg).Error
}

func (r *repository) ListSlides(ctx context.Context, configID uuid.UUID) ([]models.KioskSlide, error) {
	var slides []models.KioskSlide
	if err := r.db.WithContext(ctx).
		Where("kiosk_config_id = ?", configID).
		Order("position ASC").
		Find(&slides).Error; err != nil {
		return nil, err
	}
	return slides, nil
}

func (r *repository) CountSlides(ctx context.Context, configID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.KioskSlide{}).
		Where("kiosk_config_id = ?", configID).
		Count(&count).Error
	return count, err
}

// NextPosition returns one past the highest position in use, or 0.
func (r *repository) NextPosition(ctx context.Context, configID uuid.UUID) (int, error) {
	var highest sql.NullInt64
	if err := r.db.WithContext(ctx).
		Model(&models.KioskSlide{}).
		Where("kiosk_config_id = ?", configID).
		Select("MAX(position)").
		Row().
		Scan(&highest); err != nil {
		return 0, err
	}
	if !highest.Valid {
		return 0, nil
	}
	return int(highest.Int64) + 1, nil
}

func (r *repository) InsertSlide(ctx context.Context, slide *models.KioskSlide) error {
	if slide.ID == uuid.Nil {
		slide.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(slide).Error
}

func (r *repository) DeleteSlide(ctx context.Context, configID, slideID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND kiosk_config_id = ?", slideID, configID).
		Delete(&models.KioskSlide{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdatePosition moves one slide. A slide outside the config is an error.
func (r *repository) UpdatePosition(ctx context.Context, configID, slideID uuid.UUID, position int) error {
	result := r.db.WithContext(ctx).
		Model(&models.KioskSlide{}).
		Where("id = ? AND kiosk_config_id = ?", slideID, configID).
		Update("position", position)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("slide %s not found", slideID)
	}
	return nil
}
