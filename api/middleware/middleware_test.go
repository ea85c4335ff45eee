package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/scoreboard-manager/api/responses"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/rs/zerolog"
)

func bufferedLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: buf})
}

func TestRequestIDKeepsValidHeader(t *testing.T) {
	var seen string
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.Header().Get(RequestIDHeader)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if seen != "abc-123" || resp.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected caller id to propagate, got %q", seen)
	}
}

func TestRequestIDReplacesInvalidHeader(t *testing.T) {
	handler := RequestID(nil)(okHandler())

	for _, raw := range []string{"", "has space", strings.Repeat("x", maxRequestIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, raw)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		got := resp.Header().Get(RequestIDHeader)
		if got == "" || got == raw {
			t.Fatalf("expected a minted id for %q, got %q", raw, got)
		}
	}
}

func TestLoggingLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		path   string
		status int
		level  string
	}{
		{path: "/api/v1/limits", status: http.StatusOK, level: "info"},
		{path: "/api/v1/limits", status: http.StatusNotFound, level: "warn"},
		{path: "/api/v1/limits", status: http.StatusServiceUnavailable, level: "error"},
		{path: "/health/live", status: http.StatusOK, level: "debug"},
	}

	for _, tt := range tests {
		buf := &bytes.Buffer{}
		handler := Logging(bufferedLogger(buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte("ok"))
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

		var entry map[string]any
		if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
			t.Fatalf("expected a single json entry for %s %d: %v (%s)", tt.path, tt.status, err, buf.String())
		}
		if entry["level"] != tt.level {
			t.Fatalf("%s %d: expected level %s, got %v", tt.path, tt.status, tt.level, entry["level"])
		}
		if entry["status"] != float64(tt.status) || entry["bytes"] != float64(2) {
			t.Fatalf("unexpected status/bytes fields %v", entry)
		}
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := Recoverer(bufferedLogger(buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	var body responses.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if body.Error.Message != "internal server error" {
		t.Fatalf("panic text must not leak, got %q", body.Error.Message)
	}
	if !bytes.Contains(buf.Bytes(), []byte("panic_stack")) {
		t.Fatalf("expected panic stack in log; entry=%s", buf.String())
	}
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
