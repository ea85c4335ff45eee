package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
)

// AdminAuditLog is an append-only record of a privileged mutation.
type AdminAuditLog struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	AdminID      uuid.UUID         `gorm:"column:admin_id;type:uuid;not null;index"`
	Action       enums.AuditAction `gorm:"column:action;not null"`
	TargetUserID *uuid.UUID        `gorm:"column:target_user_id;type:uuid"`
	Details      json.RawMessage   `gorm:"column:details;type:jsonb"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (AdminAuditLog) TableName() string {
	return "admin_audit_log"
}
