package kiosk

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// SlidePosition is one requested move in a reorder batch.
type SlidePosition struct {
	SlideID  uuid.UUID `json:"slide_id" validate:"required"`
	Position int       `json:"position" validate:"min=0"`
}

// SlideError reports the failure of one slide in a batch.
type SlideError struct {
	SlideID uuid.UUID `json:"slide_id"`
	Error   string    `json:"error"`
}

// ReorderResult is the batch outcome.
type ReorderResult struct {
	Success bool         `json:"success"`
	Errors  []SlideError `json:"errors,omitempty"`
}

type moved struct {
	slideID  uuid.UUID
	original int
}

// Reorder applies the batch in two phases so that no write ever collides with
// the (config, position) unique constraint. Phase 1 parks every slide on a
// temporary position past any real one; phase 2 moves each to its target.
// A failure in either phase restores the tracked slides to where they started.
func (s *service) Reorder(ctx context.Context, actor Actor, scoreboardID uuid.UUID, batch []SlidePosition) (*ReorderResult, error) {
	if _, err := s.authorize(ctx, actor, scoreboardID); err != nil {
		return nil, err
	}
	cfg, err := s.config(ctx, s.store, scoreboardID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "kiosk is not configured for this scoreboard")
	}
	slides, err := s.store.ListSlides(ctx, cfg.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slides")
	}
	current := make(map[uuid.UUID]int, len(slides))
	for _, slide := range slides {
		current[slide.ID] = slide.Position
	}
	if err := s.validateBatch(batch, current); err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"scoreboard_id":   scoreboardID.String(),
		"kiosk_config_id": cfg.ID.String(),
		"batch_size":      len(batch),
	})

	tracked := make([]moved, 0, len(batch))
	for i, item := range batch {
		if err := s.store.UpdatePosition(ctx, cfg.ID, item.SlideID, s.tempOffset+i); err != nil {
			s.logg.Error(ctx, "kiosk.reorder_phase1_failed", err)
			if rerr := s.restore(ctx, cfg.ID, tracked); rerr != nil {
				s.logg.Error(ctx, "kiosk.reorder_restore_failed", rerr)
			}
			s.metrics.Reorder(metrics.ReorderPhase1Failed)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "phase 1: failed to move slides to temporary positions").
				WithDetails([]SlideError{{SlideID: item.SlideID, Error: err.Error()}})
		}
		tracked = append(tracked, moved{slideID: item.SlideID, original: current[item.SlideID]})
	}

	var phase2 error
	var failures []SlideError
	for _, item := range batch {
		if err := s.store.UpdatePosition(ctx, cfg.ID, item.SlideID, item.Position); err != nil {
			phase2 = multierr.Append(phase2, fmt.Errorf("slide %s: %w", item.SlideID, err))
			failures = append(failures, SlideError{SlideID: item.SlideID, Error: err.Error()})
		}
	}
	if phase2 == nil {
		s.metrics.Reorder(metrics.ReorderOK)
		return &ReorderResult{Success: true}, nil
	}

	s.logg.Error(ctx, "kiosk.reorder_phase2_failed", phase2)
	if rerr := s.restore(ctx, cfg.ID, tracked); rerr != nil {
		s.logg.Error(ctx, "kiosk.reorder_restore_failed", rerr)
	}
	s.metrics.Reorder(metrics.ReorderPhase2Failed)
	result := &ReorderResult{Success: false, Errors: failures}
	return result, pkgerrors.Wrap(pkgerrors.CodeDependency, phase2, "failed to reorder slides").WithDetails(failures)
}

func (s *service) validateBatch(batch []SlidePosition, current map[uuid.UUID]int) error {
	if len(batch) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one slide position is required")
	}
	if len(batch) > s.maxSlides {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("a batch can move at most %d slides", s.maxSlides))
	}
	ids := make(map[uuid.UUID]struct{}, len(batch))
	targets := make(map[int]struct{}, len(batch))
	for _, item := range batch {
		if item.Position < 0 || item.Position >= s.tempOffset {
			return pkgerrors.New(pkgerrors.CodeValidation, "position out of range").
				WithDetails(map[string]any{"slide_id": item.SlideID, "position": item.Position})
		}
		if _, ok := current[item.SlideID]; !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "slide does not belong to this kiosk").
				WithDetails(map[string]any{"slide_id": item.SlideID})
		}
		if _, dup := ids[item.SlideID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "slide listed more than once").
				WithDetails(map[string]any{"slide_id": item.SlideID})
		}
		if _, dup := targets[item.Position]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "two slides target the same position").
				WithDetails(map[string]any{"position": item.Position})
		}
		ids[item.SlideID] = struct{}{}
		targets[item.Position] = struct{}{}
	}
	for slideID, position := range current {
		if _, inBatch := ids[slideID]; inBatch {
			continue
		}
		if _, taken := targets[position]; taken {
			return pkgerrors.New(pkgerrors.CodeValidation, "position is held by a slide outside the batch").
				WithDetails(map[string]any{"slide_id": slideID, "position": position})
		}
	}
	return nil
}

// restore is best-effort and never retried. It parks the slides again before
// writing originals so a half-applied batch cannot collide with itself.
func (s *service) restore(ctx context.Context, configID uuid.UUID, tracked []moved) error {
	var errs error
	parked := make([]moved, 0, len(tracked))
	for i, m := range tracked {
		if err := s.store.UpdatePosition(ctx, configID, m.slideID, s.tempOffset+i); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("park slide %s: %w", m.slideID, err))
			continue
		}
		parked = append(parked, m)
	}
	for _, m := range parked {
		if err := s.store.UpdatePosition(ctx, configID, m.slideID, m.original); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("restore slide %s: %w", m.slideID, err))
		}
	}
	return errs
}
