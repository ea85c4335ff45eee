package models

import (
	"time"

	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	"github.com/google/uuid"
)

// User is the profile row mirrored from the identity provider.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email       string         `gorm:"type:text;not null;uniqueIndex"`
	DisplayName *string        `gorm:"column:display_name"`
	Role        enums.UserRole `gorm:"column:role;not null;default:'user'"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
