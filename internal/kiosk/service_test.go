package kiosk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/angelmondragon/scoreboard-manager/internal/limits"
	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memoryStore enforces the (config, position) uniqueness the database does.
type memoryStore struct {
	cfg      *models.KioskConfig
	slides   map[uuid.UUID]*models.KioskSlide
	failOn   func(slideID uuid.UUID, position int) error
	writes   int
	inserted int
}

func newMemoryStore(scoreboardID uuid.UUID, positions ...int) (*memoryStore, []uuid.UUID) {
	store := &memoryStore{
		cfg:    &models.KioskConfig{ID: uuid.New(), ScoreboardID: scoreboardID},
		slides: map[uuid.UUID]*models.KioskSlide{},
	}
	ids := make([]uuid.UUID, 0, len(positions))
	for _, pos := range positions {
		id := uuid.New()
		store.slides[id] = &models.KioskSlide{ID: id, KioskConfigID: store.cfg.ID, Position: pos, SlideType: enums.SlideTypeScoreboard}
		ids = append(ids, id)
	}
	return store, ids
}

func (m *memoryStore) WithTx(tx *gorm.DB) Store { return m }

func (m *memoryStore) FindConfigByScoreboard(ctx context.Context, scoreboardID uuid.UUID) (*models.KioskConfig, error) {
	if m.cfg == nil || m.cfg.ScoreboardID != scoreboardID {
		return nil, nil
	}
	return m.cfg, nil
}

func (m *memoryStore) CreateConfig(ctx context.Context, cfg *models.KioskConfig) error {
	cfg.ID = uuid.New()
	m.cfg = cfg
	return nil
}

func (m *memoryStore) ListSlides(ctx context.Context, configID uuid.UUID) ([]models.KioskSlide, error) {
	out := make([]models.KioskSlide, 0, len(m.slides))
	for _, slide := range m.slides {
		out = append(out, *slide)
	}
	return out, nil
}

func (m *memoryStore) CountSlides(ctx context.Context, configID uuid.UUID) (int64, error) {
	return int64(len(m.slides)), nil
}

func (m *memoryStore) NextPosition(ctx context.Context, configID uuid.UUID) (int, error) {
	next := 0
	for _, slide := range m.slides {
		if slide.Position >= next {
			next = slide.Position + 1
		}
	}
	return next, nil
}

func (m *memoryStore) InsertSlide(ctx context.Context, slide *models.KioskSlide) error {
	slide.ID = uuid.New()
	m.slides[slide.ID] = slide
	m.inserted++
	return nil
}

func (m *memoryStore) DeleteSlide(ctx context.Context, configID, slideID uuid.UUID) (bool, error) {
	if _, ok := m.slides[slideID]; !ok {
		return false, nil
	}
	delete(m.slides, slideID)
	return true, nil
}

func (m *memoryStore) UpdatePosition(ctx context.Context, configID, slideID uuid.UUID, position int) error {
	m.writes++
	if m.failOn != nil {
		if err := m.failOn(slideID, position); err != nil {
			return err
		}
	}
	slide, ok := m.slides[slideID]
	if !ok {
		return fmt.Errorf("slide %s not found", slideID)
	}
	for id, other := range m.slides {
		if id != slideID && other.Position == position {
			return errors.New("UNIQUE constraint failed: kiosk_slides.kiosk_config_id, kiosk_slides.position")
		}
	}
	slide.Position = position
	return nil
}

func (m *memoryStore) position(id uuid.UUID) int {
	return m.slides[id].Position
}

type stubBoards map[uuid.UUID]*models.Scoreboard

func (s stubBoards) FindByID(ctx context.Context, id uuid.UUID) (*models.Scoreboard, error) {
	return s[id], nil
}

type stubGate struct {
	allowed bool
	err     error
}

func (s stubGate) CanUseKiosk(ctx context.Context, userID uuid.UUID) limits.Result[bool] {
	return limits.Result[bool]{Data: s.allowed, Err: s.err}
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, store Store, board *models.Scoreboard, gate stubGate) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:             store,
		Boards:            stubBoards{board.ID: board},
		Gate:              gate,
		TransactionRunner: passthroughTx{},
		Logger:            logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func ownedBoard() (*models.Scoreboard, Actor) {
	owner := uuid.New()
	return &models.Scoreboard{ID: uuid.New(), OwnerID: owner}, Actor{UserID: owner}
}

func TestReorderSwapsWithoutCollision(t *testing.T) {
	board, actor := ownedBoard()
	store, ids := newMemoryStore(board.ID, 0, 1)
	a, b := ids[0], ids[1]
	svc := newTestService(t, store, board, stubGate{allowed: true})

	result, err := svc.Reorder(context.Background(), actor, board.ID, []SlidePosition{{SlideID: a, Position: 1}, {SlideID: b, Position: 0}})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if store.position(a) != 1 || store.position(b) != 0 {
		t.Fatalf("unexpected positions a=%d b=%d", store.position(a), store.position(b))
	}
}

func TestReorderPhase2FailureRestoresOriginals(t *testing.T) {
	board, actor := ownedBoard()
	store, ids := newMemoryStore(board.ID, 0, 1)
	a, b := ids[0], ids[1]
	store.failOn = func(slideID uuid.UUID, position int) error {
		if slideID == b && position == 0 {
			return errors.New("write rejected")
		}
		return nil
	}
	svc := newTestService(t, store, board, stubGate{allowed: true})

	result, err := svc.Reorder(context.Background(), actor, board.ID, []SlidePosition{{SlideID: a, Position: 1}, {SlideID: b, Position: 0}})
	if err == nil {
		t.Fatal("expected phase 2 error")
	}
	if result == nil || result.Success || len(result.Errors) != 1 || result.Errors[0].SlideID != b {
		t.Fatalf("expected b's error to be reported, got %+v", result)
	}
	if result.Errors[0].Error != "write rejected" {
		t.Fatalf("unexpected slide error %q", result.Errors[0].Error)
	}
	if store.position(a) != 0 || store.position(b) != 1 {
		t.Fatalf("expected originals restored, got a=%d b=%d", store.position(a), store.position(b))
	}
}

func TestReorderPhase1FailureRestoresMovedSlides(t *testing.T) {
	board, actor := ownedBoard()
	store, ids := newMemoryStore(board.ID, 0, 1, 2)
	store.failOn = func(slideID uuid.UUID, position int) error {
		if slideID == ids[2] && position == DefaultTempPositionOffset+2 {
			return errors.New("connection lost")
		}
		return nil
	}
	svc := newTestService(t, store, board, stubGate{allowed: true})

	_, err := svc.Reorder(context.Background(), actor, board.ID, []SlidePosition{
		{SlideID: ids[0], Position: 2},
		{SlideID: ids[1], Position: 0},
		{SlideID: ids[2], Position: 1},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	for i, want := range []int{0, 1, 2} {
		if got := store.position(ids[i]); got != want {
			t.Fatalf("slide %d expected position %d, got %d", i, want, got)
		}
	}
}

func TestReorderValidation(t *testing.T) {
	board, actor := ownedBoard()
	store, ids := newMemoryStore(board.ID, 0, 1, 2)
	svc := newTestService(t, store, board, stubGate{allowed: true})

	cases := map[string][]SlidePosition{
		"empty":          {},
		"negative":       {{SlideID: ids[0], Position: -1}},
		"duplicate id":   {{SlideID: ids[0], Position: 1}, {SlideID: ids[0], Position: 0}},
		"same target":    {{SlideID: ids[0], Position: 1}, {SlideID: ids[1], Position: 1}},
		"foreign slide":  {{SlideID: uuid.New(), Position: 0}},
		"held elsewhere": {{SlideID: ids[0], Position: 2}},
	}
	for name, batch := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Reorder(context.Background(), actor, board.ID, batch)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if store.writes != 0 {
		t.Fatalf("invalid batches must not write, got %d writes", store.writes)
	}
}

func TestReorderRequiresOwnerAndEntitlement(t *testing.T) {
	board, actor := ownedBoard()
	store, ids := newMemoryStore(board.ID, 0)
	batch := []SlidePosition{{SlideID: ids[0], Position: 0}}

	svc := newTestService(t, store, board, stubGate{allowed: true})
	_, err := svc.Reorder(context.Background(), Actor{UserID: uuid.New()}, board.ID, batch)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	svc = newTestService(t, store, board, stubGate{allowed: false})
	_, err = svc.Reorder(context.Background(), actor, board.ID, batch)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeQuotaExceeded {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
}

func TestAddSlideEnforcesMaximum(t *testing.T) {
	board, actor := ownedBoard()
	positions := make([]int, DefaultMaxSlides)
	for i := range positions {
		positions[i] = i
	}
	store, _ := newMemoryStore(board.ID, positions...)
	svc := newTestService(t, store, board, stubGate{allowed: true})

	_, err := svc.AddSlide(context.Background(), actor, board.ID, SlideInput{SlideType: enums.SlideTypeScoreboard})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeQuotaExceeded {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	if store.inserted != 0 {
		t.Fatal("expected no insert past the maximum")
	}
}

func TestAddSlideCreatesConfigAndAppends(t *testing.T) {
	board, actor := ownedBoard()
	store := &memoryStore{slides: map[uuid.UUID]*models.KioskSlide{}}
	svc := newTestService(t, store, board, stubGate{allowed: true})

	url := "https://cdn.example.com/a.png"
	first, err := svc.AddSlide(context.Background(), actor, board.ID, SlideInput{SlideType: enums.SlideTypeImage, ImageURL: &url})
	if err != nil {
		t.Fatalf("add slide: %v", err)
	}
	second, err := svc.AddSlide(context.Background(), actor, board.ID, SlideInput{SlideType: enums.SlideTypeScoreboard})
	if err != nil {
		t.Fatalf("add slide: %v", err)
	}
	if store.cfg == nil || first.KioskConfigID != store.cfg.ID {
		t.Fatal("expected config to be created")
	}
	if first.Position != 0 || second.Position != 1 {
		t.Fatalf("unexpected positions %d %d", first.Position, second.Position)
	}

	_, err = svc.AddSlide(context.Background(), actor, board.ID, SlideInput{SlideType: enums.SlideTypeImage})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for image without url, got %v", err)
	}
}

func TestDeleteSlide(t *testing.T) {
	board, actor := ownedBoard()
	store, ids := newMemoryStore(board.ID, 0)
	svc := newTestService(t, store, board, stubGate{allowed: true})

	if err := svc.DeleteSlide(context.Background(), actor, board.ID, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err := svc.DeleteSlide(context.Background(), actor, board.ID, ids[0])
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
