package audit

import (
	"context"

	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	"github.com/angelmondragon/scoreboard-manager/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists admin audit rows. It exposes no update or delete.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Insert appends one audit row.
func (r *Repository) Insert(ctx context.Context, entry *models.AdminAuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

type listParams struct {
	Limit        int
	Cursor       *pagination.Cursor
	AdminID      *uuid.UUID
	TargetUserID *uuid.UUID
	Action       *enums.AuditAction
}

// List returns rows newest first plus the cursor of the next page.
func (r *Repository) List(ctx context.Context, params listParams) ([]models.AdminAuditLog, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.AdminAuditLog{})
	if params.AdminID != nil {
		query = query.Where("admin_id = ?", *params.AdminID)
	}
	if params.TargetUserID != nil {
		query = query.Where("target_user_id = ?", *params.TargetUserID)
	}
	if params.Action != nil {
		query = query.Where("action = ?", *params.Action)
	}
	if params.Cursor != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.AdminAuditLog
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.TrimPage(rows, params.Limit, func(row models.AdminAuditLog) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return page, next, nil
}
