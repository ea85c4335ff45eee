package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
)

// Scoreboard is a ranked leaderboard owned by one user.
type Scoreboard struct {
	ID         uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	OwnerID    uuid.UUID                  `gorm:"column:owner_id;type:uuid;not null;index"`
	Title      string                     `gorm:"column:title;not null"`
	Visibility enums.ScoreboardVisibility `gorm:"column:visibility;not null;default:'public'"`
	IsLocked   bool                       `gorm:"column:is_locked;not null;default:false"`
	CreatedAt  time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// ScoreboardEntry is a ranked row on a scoreboard.
type ScoreboardEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ScoreboardID uuid.UUID `gorm:"column:scoreboard_id;type:uuid;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	Score        float64   `gorm:"column:score;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ScoreboardSnapshot is a frozen copy of a scoreboard's standings.
type ScoreboardSnapshot struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ScoreboardID uuid.UUID `gorm:"column:scoreboard_id;type:uuid;not null;index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
