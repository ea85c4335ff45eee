package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/scoreboard-manager/api/middleware"
	"github.com/angelmondragon/scoreboard-manager/api/responses"
	"github.com/angelmondragon/scoreboard-manager/api/validators"
	"github.com/angelmondragon/scoreboard-manager/internal/kiosk"
	"github.com/angelmondragon/scoreboard-manager/pkg/db/models"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

type slideResponse struct {
	ID              uuid.UUID       `json:"id"`
	Position        int             `json:"position"`
	SlideType       enums.SlideType `json:"slide_type"`
	ImageURL        *string         `json:"image_url,omitempty"`
	ThumbnailURL    *string         `json:"thumbnail_url,omitempty"`
	DurationSeconds *int            `json:"duration_seconds,omitempty"`
	FileName        *string         `json:"file_name,omitempty"`
	FileSize        *int64          `json:"file_size,omitempty"`
	MimeType        *string         `json:"mime_type,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type slideListResponse struct {
	Slides []slideResponse `json:"slides"`
}

type reorderRequest struct {
	Slides []kiosk.SlidePosition `json:"slides" validate:"required,min=1,dive"`
}

func KioskSlidesList(svc kiosk.Service, logg *logger.Logger) http.HandlerFunc {
	return kioskHandler(svc, logg, func(ctx context.Context, w http.ResponseWriter, r *http.Request, actor kiosk.Actor, scoreboardID uuid.UUID) error {
		slides, err := svc.ListSlides(ctx, actor, scoreboardID)
		if err != nil {
			return err
		}
		out := slideListResponse{Slides: make([]slideResponse, 0, len(slides))}
		for _, slide := range slides {
			out.Slides = append(out.Slides, toSlideResponse(slide))
		}
		responses.WriteSuccess(w, out)
		return nil
	})
}

func KioskSlideCreate(svc kiosk.Service, logg *logger.Logger) http.HandlerFunc {
	return kioskHandler(svc, logg, func(ctx context.Context, w http.ResponseWriter, r *http.Request, actor kiosk.Actor, scoreboardID uuid.UUID) error {
		var input kiosk.SlideInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			return err
		}
		if input.FileName != nil {
			name := validators.SanitizeString(*input.FileName, 255)
			input.FileName = &name
		}
		slide, err := svc.AddSlide(ctx, actor, scoreboardID, input)
		if err != nil {
			return err
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toSlideResponse(*slide))
		return nil
	})
}

func KioskSlideDelete(svc kiosk.Service, logg *logger.Logger) http.HandlerFunc {
	return kioskHandler(svc, logg, func(ctx context.Context, w http.ResponseWriter, r *http.Request, actor kiosk.Actor, scoreboardID uuid.UUID) error {
		slideID, err := validators.ParseUUIDParam(r, "slideId")
		if err != nil {
			return err
		}
		if err := svc.DeleteSlide(ctx, actor, scoreboardID, slideID); err != nil {
			return err
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true, "slide_id": slideID})
		return nil
	})
}

func KioskSlidesReorder(svc kiosk.Service, logg *logger.Logger) http.HandlerFunc {
	return kioskHandler(svc, logg, func(ctx context.Context, w http.ResponseWriter, r *http.Request, actor kiosk.Actor, scoreboardID uuid.UUID) error {
		var body reorderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return err
		}
		result, err := svc.Reorder(ctx, actor, scoreboardID, body.Slides)
		if err != nil {
			return err
		}
		responses.WriteSuccess(w, result)
		return nil
	})
}

type kioskAction func(ctx context.Context, w http.ResponseWriter, r *http.Request, actor kiosk.Actor, scoreboardID uuid.UUID) error

func kioskHandler(svc kiosk.Service, logg *logger.Logger, action kioskAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kiosk service unavailable"))
			return
		}
		userID, err := middleware.AuthenticatedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		scoreboardID, err := validators.ParseUUIDParam(r, "scoreboardId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithField(ctx, "scoreboard_id", scoreboardID.String())
		}
		actor := kiosk.Actor{UserID: userID, IsAdmin: middleware.IsAdmin(ctx)}
		if err := action(ctx, w, r, actor, scoreboardID); err != nil {
			responses.WriteError(ctx, logg, w, err)
		}
	}
}

func toSlideResponse(slide models.KioskSlide) slideResponse {
	return slideResponse{
		ID:              slide.ID,
		Position:        slide.Position,
		SlideType:       slide.SlideType,
		ImageURL:        slide.ImageURL,
		ThumbnailURL:    slide.ThumbnailURL,
		DurationSeconds: slide.DurationSeconds,
		FileName:        slide.FileName,
		FileSize:        slide.FileSize,
		MimeType:        slide.MimeType,
		CreatedAt:       slide.CreatedAt,
	}
}
