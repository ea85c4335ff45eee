package kiosk

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/scoreboard-manager/internal/limits"
	"github.com/angelmondragon/scoreboard-manager/pkg/db"
	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/angelmondragon/scoreboard-manager/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultMaxSlides          = 20
	DefaultTempPositionOffset = 1000
)

type boardFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Scoreboard, error)
}

type kioskGate interface {
	CanUseKiosk(ctx context.Context, userID uuid.UUID) limits.Result[bool]
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor is the authenticated caller.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// Service manages kiosk slides for scoreboards the caller owns.
type Service interface {
	ListSlides(ctx context.Context, actor Actor, scoreboardID uuid.UUID) ([]models.KioskSlide, error)
	AddSlide(ctx context.Context, actor Actor, scoreboardID uuid.UUID, input SlideInput) (*models.KioskSlide, error)
	DeleteSlide(ctx context.Context, actor Actor, scoreboardID, slideID uuid.UUID) error
	Reorder(ctx context.Context, actor Actor, scoreboardID uuid.UUID, batch []SlidePosition) (*ReorderResult, error)
}

// ServiceParams groups dependencies for the kiosk service.
type ServiceParams struct {
	Store              Store
	Boards             boardFinder
	Gate               kioskGate
	TransactionRunner  txRunner
	MaxSlides          int
	TempPositionOffset int
	Logger             *logger.Logger
	Metrics            *metrics.BillingMetrics
}

type service struct {
	store      Store
	boards     boardFinder
	gate       kioskGate
	txRunner   txRunner
	maxSlides  int
	tempOffset int
	logg       *logger.Logger
	metrics    *metrics.BillingMetrics
}

// NewService builds a kiosk service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("kiosk store required")
	}
	if params.Boards == nil {
		return nil, fmt.Errorf("scoreboard finder required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("kiosk gate required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	maxSlides := params.MaxSlides
	if maxSlides <= 0 {
		maxSlides = DefaultMaxSlides
	}
	offset := params.TempPositionOffset
	if offset <= 0 {
		offset = DefaultTempPositionOffset
	}
	if offset < maxSlides {
		return nil, fmt.Errorf("temp position offset %d must not overlap %d real positions", offset, maxSlides)
	}
	return &service{
		store:      params.Store,
		boards:     params.Boards,
		gate:       params.Gate,
		txRunner:   params.TransactionRunner,
		maxSlides:  maxSlides,
		tempOffset: offset,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// authorize checks ownership and the owner's kiosk entitlement.
func (s *service) authorize(ctx context.Context, actor Actor, scoreboardID uuid.UUID) (*models.Scoreboard, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	board, err := s.boards.FindByID(ctx, scoreboardID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scoreboard")
	}
	if board == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scoreboard not found")
	}
	if board.OwnerID != actor.UserID && !actor.IsAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "scoreboard belongs to another user")
	}
	allowed := s.gate.CanUseKiosk(ctx, board.OwnerID)
	if allowed.Err != nil {
		return nil, allowed.Err
	}
	if !allowed.Data {
		return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "kiosk mode requires a supporter subscription")
	}
	return board, nil
}

func (s *service) config(ctx context.Context, store Store, scoreboardID uuid.UUID) (*models.KioskConfig, error) {
	cfg, err := store.FindConfigByScoreboard(ctx, scoreboardID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kiosk config")
	}
	return cfg, nil
}

func (s *service) ListSlides(ctx context.Context, actor Actor, scoreboardID uuid.UUID) ([]models.KioskSlide, error) {
	if _, err := s.authorize(ctx, actor, scoreboardID); err != nil {
		return nil, err
	}
	cfg, err := s.config(ctx, s.store, scoreboardID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return []models.KioskSlide{}, nil
	}
	slides, err := s.store.ListSlides(ctx, cfg.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slides")
	}
	return slides, nil
}

// SlideInput is the metadata of an uploaded slide.
type SlideInput struct {
	SlideType       enums.SlideType `json:"slide_type" validate:"required,oneof=image scoreboard"`
	ImageURL        *string         `json:"image_url" validate:"omitempty,url"`
	ThumbnailURL    *string         `json:"thumbnail_url" validate:"omitempty,url"`
	DurationSeconds *int            `json:"duration_seconds" validate:"omitempty,min=1,max=3600"`
	FileName        *string         `json:"file_name" validate:"omitempty,max=255"`
	FileSize        *int64          `json:"file_size" validate:"omitempty,min=0"`
	MimeType        *string         `json:"mime_type" validate:"omitempty,max=127"`
}

func (s *service) AddSlide(ctx context.Context, actor Actor, scoreboardID uuid.UUID, input SlideInput) (*models.KioskSlide, error) {
	if !input.SlideType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slide_type must be image or scoreboard")
	}
	if input.SlideType == enums.SlideTypeImage && (input.ImageURL == nil || strings.TrimSpace(*input.ImageURL) == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image slides require image_url")
	}
	if _, err := s.authorize(ctx, actor, scoreboardID); err != nil {
		return nil, err
	}

	var created *models.KioskSlide
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		cfg, err := s.config(ctx, store, scoreboardID)
		if err != nil {
			return err
		}
		if cfg == nil {
			cfg = &models.KioskConfig{ScoreboardID: scoreboardID}
			if err := store.CreateConfig(ctx, cfg); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create kiosk config")
			}
		}

		count, err := store.CountSlides(ctx, cfg.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count slides")
		}
		if count >= int64(s.maxSlides) {
			return pkgerrors.New(pkgerrors.CodeQuotaExceeded, fmt.Sprintf("a kiosk can hold at most %d slides", s.maxSlides)).
				WithDetails(map[string]any{"max_slides": s.maxSlides})
		}

		position, err := store.NextPosition(ctx, cfg.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute slide position")
		}
		slide := &models.KioskSlide{
			KioskConfigID:   cfg.ID,
			Position:        position,
			SlideType:       input.SlideType,
			ImageURL:        input.ImageURL,
			ThumbnailURL:    input.ThumbnailURL,
			DurationSeconds: input.DurationSeconds,
			FileName:        input.FileName,
			FileSize:        input.FileSize,
			MimeType:        input.MimeType,
		}
		if err := store.InsertSlide(ctx, slide); err != nil {
			if db.IsUniqueViolation(err, "kiosk_slides_config_position_key") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "slide position was taken concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert slide")
		}
		created = slide
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add slide")
	}
	return created, nil
}

func (s *service) DeleteSlide(ctx context.Context, actor Actor, scoreboardID, slideID uuid.UUID) error {
	if _, err := s.authorize(ctx, actor, scoreboardID); err != nil {
		return err
	}
	cfg, err := s.config(ctx, s.store, scoreboardID)
	if err != nil {
		return err
	}
	if cfg == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "slide not found")
	}
	deleted, err := s.store.DeleteSlide(ctx, cfg.ID, slideID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete slide")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "slide not found")
	}
	return nil
}
