package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/angelmondragon/scoreboard-manager/pkg/metrics"
	"github.com/angelmondragon/scoreboard-manager/pkg/pagination"
	"github.com/google/uuid"
)

// Entry describes one privileged mutation to record.
type Entry struct {
	AdminID      uuid.UUID
	Action       enums.AuditAction
	TargetUserID *uuid.UUID
	Details      map[string]any
}

// Store is the persistence the audit log needs.
type Store interface {
	Insert(ctx context.Context, entry *models.AdminAuditLog) error
	List(ctx context.Context, params listParams) ([]models.AdminAuditLog, *pagination.Cursor, error)
}

// Log appends audit entries and lists them for admins.
type Log struct {
	store   Store
	clock   func() time.Time
	logg    *logger.Logger
	metrics *metrics.BillingMetrics
}

type LogParams struct {
	Store   Store
	Clock   func() time.Time
	Logger  *logger.Logger
	Metrics *metrics.BillingMetrics
}

func NewLog(params LogParams) (*Log, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("audit store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Log{store: params.Store, clock: clock, logg: params.Logger, metrics: params.Metrics}, nil
}

// Append records entry. A failed write is logged and counted but never
// returned: the mutation it describes has already happened.
func (l *Log) Append(ctx context.Context, entry Entry) {
	row := &models.AdminAuditLog{
		AdminID:      entry.AdminID,
		Action:       entry.Action,
		TargetUserID: entry.TargetUserID,
		CreatedAt:    l.clock().UTC(),
	}
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			l.fail(ctx, entry, err)
			return
		}
		row.Details = raw
	}
	if err := l.store.Insert(ctx, row); err != nil {
		l.fail(ctx, entry, err)
	}
}

func (l *Log) fail(ctx context.Context, entry Entry, err error) {
	ctx = l.logg.WithFields(ctx, map[string]any{
		"audit_action": string(entry.Action),
		"admin_id":     entry.AdminID.String(),
	})
	l.logg.Error(ctx, "audit.append_failed", err)
	l.metrics.AuditFailure(string(entry.Action))
}

// ListQuery filters the audit listing.
type ListQuery struct {
	pagination.Params
	AdminID      *uuid.UUID
	TargetUserID *uuid.UUID
	Action       *enums.AuditAction
}

// Record is the API shape of one audit row.
type Record struct {
	ID           uuid.UUID         `json:"id"`
	AdminID      uuid.UUID         `json:"admin_id"`
	Action       enums.AuditAction `json:"action"`
	TargetUserID *uuid.UUID        `json:"target_user_id,omitempty"`
	Details      json.RawMessage   `json:"details,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ListResult is one page of audit records.
type ListResult struct {
	Items  []Record `json:"items"`
	Cursor string   `json:"cursor"`
}

func (l *Log) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	params := listParams{
		Limit:        query.Limit,
		AdminID:      query.AdminID,
		TargetUserID: query.TargetUserID,
		Action:       query.Action,
	}
	if query.Cursor != "" {
		cursor, err := pagination.ParseCursor(query.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		params.Cursor = cursor
	}

	rows, next, err := l.store.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit log")
	}

	items := make([]Record, 0, len(rows))
	for _, row := range rows {
		items = append(items, Record{
			ID:           row.ID,
			AdminID:      row.AdminID,
			Action:       row.Action,
			TargetUserID: row.TargetUserID,
			Details:      row.Details,
			CreatedAt:    row.CreatedAt,
		})
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}
