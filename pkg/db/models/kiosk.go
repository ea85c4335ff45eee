package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
)

// KioskConfig holds kiosk settings for a single scoreboard.
type KioskConfig struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ScoreboardID uuid.UUID `gorm:"column:scoreboard_id;type:uuid;not null;uniqueIndex"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// KioskSlide is one entry of a kiosk slideshow. Position is unique per config.
type KioskSlide struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	KioskConfigID   uuid.UUID       `gorm:"column:kiosk_config_id;type:uuid;not null;uniqueIndex:kiosk_slides_config_position_key"`
	Position        int             `gorm:"column:position;not null;uniqueIndex:kiosk_slides_config_position_key"`
	SlideType       enums.SlideType `gorm:"column:slide_type;not null"`
	ImageURL        *string         `gorm:"column:image_url"`
	ThumbnailURL    *string         `gorm:"column:thumbnail_url"`
	DurationSeconds *int            `gorm:"column:duration_seconds"`
	FileName        *string         `gorm:"column:file_name"`
	FileSize        *int64          `gorm:"column:file_size"`
	MimeType        *string         `gorm:"column:mime_type"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
