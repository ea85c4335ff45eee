package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
)

type color string

const (
	colorRed  color = "red"
	colorBlue color = "blue"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func requireValidation(t *testing.T, err error) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "slideId", " "+id.String()+" ")

	got, err := ParseUUIDParam(req, "slideId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "slideId", "nope"), "slideId")
	requireValidation(t, err)

	_, err = ParseUUIDParam(httptest.NewRequest(http.MethodGet, "/", nil), "slideId")
	requireValidation(t, err)
}

func TestParseQueryUUID(t *testing.T) {
	got, err := ParseQueryUUID(httptest.NewRequest(http.MethodGet, "/", nil), "admin_id")
	require.NoError(t, err)
	assert.Nil(t, got)

	id := uuid.New()
	got, err = ParseQueryUUID(httptest.NewRequest(http.MethodGet, "/?admin_id="+id.String(), nil), "admin_id")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)

	_, err = ParseQueryUUID(httptest.NewRequest(http.MethodGet, "/?admin_id=zzz", nil), "admin_id")
	requireValidation(t, err)
}

func TestParseQueryInt(t *testing.T) {
	got, err := ParseQueryInt(httptest.NewRequest(http.MethodGet, "/", nil), "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, got)

	got, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=40", nil), "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 40, got)

	_, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=abc", nil), "limit", 25, 1, 100)
	requireValidation(t, err)

	_, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=101", nil), "limit", 25, 1, 100)
	requireValidation(t, err)
}

func TestParseQueryEnum(t *testing.T) {
	got, err := ParseQueryEnum(httptest.NewRequest(http.MethodGet, "/", nil), "color", colorRed, colorBlue)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseQueryEnum(httptest.NewRequest(http.MethodGet, "/?color=blue", nil), "color", colorRed, colorBlue)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, colorBlue, *got)

	_, err = ParseQueryEnum(httptest.NewRequest(http.MethodGet, "/?color=green", nil), "color", colorRed, colorBlue)
	requireValidation(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello\n ", 0))
	assert.Equal(t, "ab", SanitizeString("a\x00b", 10))
	assert.Equal(t, "héll", SanitizeString("héllo", 4))
	assert.Equal(t, strings.Repeat("é", 3), SanitizeString(strings.Repeat("é", 5), 3))
}

type slideInput struct {
	Name string `json:"name" validate:"required,max=5"`
}

func TestDecodeJSONBody(t *testing.T) {
	var input slideInput
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"intro"}`))
	require.NoError(t, DecodeJSONBody(req, &input))
	assert.Equal(t, "intro", input.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"intro","extra":1}`))
	requireValidation(t, DecodeJSONBody(req, &slideInput{}))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"toolong"}`))
	err := DecodeJSONBody(req, &slideInput{})
	requireValidation(t, err)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be at most 5", details["name"])
}
