package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/scoreboard-manager/internal/audit"
	"github.com/angelmondragon/scoreboard-manager/internal/entitlements"
	"github.com/angelmondragon/scoreboard-manager/internal/limits"
	"github.com/angelmondragon/scoreboard-manager/internal/pricing"
	"github.com/angelmondragon/scoreboard-manager/internal/subscriptions"
	"github.com/angelmondragon/scoreboard-manager/internal/variants"
	pkgAuth "github.com/angelmondragon/scoreboard-manager/pkg/auth"
	"github.com/angelmondragon/scoreboard-manager/pkg/config"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubPricing struct{}

func (stubPricing) AllPrices(ctx context.Context) ([]pricing.Price, error) {
	return []pricing.Price{}, nil
}

func (stubPricing) SyncAll(ctx context.Context, table *variants.Table, fetch pricing.PriceFetcher) ([]pricing.SyncResult, error) {
	return nil, nil
}

func (stubPricing) Invalidate() {}

type stubEntitlements struct{}

func (stubEntitlements) Status(ctx context.Context, userID uuid.UUID) (entitlements.Snapshot, error) {
	return entitlements.Snapshot{}, nil
}

type stubLimits struct{}

func (stubLimits) Summary(ctx context.Context, userID uuid.UUID) limits.Result[limits.UserSummary] {
	return limits.Result[limits.UserSummary]{Data: limits.UserSummary{Limits: limits.Free}}
}

func (stubLimits) ScoreboardLimits(ctx context.Context, scoreboardID uuid.UUID) limits.Result[limits.ScoreboardSummary] {
	return limits.Result[limits.ScoreboardSummary]{}
}

type stubAudit struct{}

func (stubAudit) List(ctx context.Context, query audit.ListQuery) (*audit.ListResult, error) {
	return &audit.ListResult{Items: []audit.Record{}}, nil
}

func (stubAudit) Append(ctx context.Context, entry audit.Entry) {}

type stubSubscriptions struct{}

func (stubSubscriptions) Gift(ctx context.Context, actor subscriptions.Actor, input subscriptions.GiftInput) (*subscriptions.GiftResult, error) {
	return &subscriptions.GiftResult{Success: true}, nil
}

func (stubSubscriptions) RemoveGift(ctx context.Context, actor subscriptions.Actor, userID uuid.UUID) (*subscriptions.RemoveGiftResult, error) {
	return &subscriptions.RemoveGiftResult{Success: true}, nil
}

func (stubSubscriptions) Link(ctx context.Context, actor subscriptions.Actor, input subscriptions.LinkInput) (*subscriptions.LinkResult, error) {
	return &subscriptions.LinkResult{Success: true}, nil
}

func (stubSubscriptions) Cancel(ctx context.Context, actor subscriptions.Actor, externalID string) (*subscriptions.Outcome, error) {
	return &subscriptions.Outcome{Success: true}, nil
}

func (stubSubscriptions) Resume(ctx context.Context, actor subscriptions.Actor, externalID string) (*subscriptions.Outcome, error) {
	return &subscriptions.Outcome{Success: true}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "dev"},
		JWT:  config.JWTConfig{Secret: "secret", Issuer: "scoreboard"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	return NewRouter(
		cfg,
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		stubPinger{},
		stubPinger{},
		nil,
		stubSessionChecker{},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		stubPricing{},
		variants.NewTable(config.VariantsConfig{}),
		nil,
		stubEntitlements{},
		stubLimits{},
		stubSubscriptions{},
		stubSubscriptions{},
		nil,
		stubAudit{},
		nil,
		nil,
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), time.Hour, pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPublicRoutes(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/health/live", "/health/ready", "/api/public/pricing", "/metrics"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestUserRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/limits", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestUserRoutesSucceedWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	for _, path := range []string{"/api/v1/limits", "/api/v1/subscription"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/audit-log", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/audit-log", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleSystemAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminGiftRoute(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/subscriptions/gift", strings.NewReader(`{"user_id":"`+uuid.NewString()+`"}`))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleSystemAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
}
