package validators

import (
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
)

func fieldError(key, message string, cause error) *pkgerrors.Error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, message).WithDetails(map[string]any{"field": key})
}

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// PathParam returns a trimmed, non-empty chi path parameter.
func PathParam(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return "", fieldError(key, key+" is required", nil)
	}
	return raw, nil
}

// ParseUUIDParam reads a chi path parameter that must hold a UUID.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw, err := PathParam(r, key)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fieldError(key, "invalid "+key, err)
	}
	return id, nil
}

// ParseQueryUUID reads an optional UUID query parameter. A missing value yields nil.
func ParseQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fieldError(key, "invalid "+key, err)
	}
	return &id, nil
}

// ParseQueryInt reads an optional bounded integer, falling back to def when absent.
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fieldError(key, "query parameter must be numeric", err)
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryEnum reads an optional string-backed enum restricted to allowed.
func ParseQueryEnum[T ~string](r *http.Request, key string, allowed ...T) (*T, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return nil, nil
	}
	for _, candidate := range allowed {
		if string(candidate) == raw {
			value := candidate
			return &value, nil
		}
	}
	options := make([]string, 0, len(allowed))
	for _, candidate := range allowed {
		options = append(options, string(candidate))
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+key).
		WithDetails(map[string]any{"field": key, "allowed": options})
}

// SanitizeString trims input, drops control characters and caps the result at
// maxLen runes. A non-positive maxLen disables the cap.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))

	if maxLen <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) <= maxLen {
		return cleaned
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}
