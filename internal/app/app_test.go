package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/creator-league/internal/config"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:             config.EnvDev,
		ServiceName:        "creator-league-api",
		HTTPAddr:           ":0",
		CORSAllowedOrigins: []string{"*"},
		StoreDriver:        config.StoreMemory,
		SeedEnabled:        true,
		PasswordHashCost:   4,
		SessionTTL:         time.Hour,
		LeaderboardTTL:     time.Hour,
		LeaderboardWorkers: 2,
		AvatarBaseURL:      "https://api.dicebear.com/7.x",
		AvatarStyle:        "adventurer",
	}
}

func TestNew_MemoryStoreServesSeededLogin(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(ctx) })

	req := httptest.NewRequest(http.MethodPost, "/v1/login", strings.NewReader(`{"username":"shadowblade","password":"123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestNew_EnsuresSuperAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.SeedEnabled = false
	cfg.SuperAdminUsername = "root"
	cfg.SuperAdminPassword = "toor"

	a, err := New(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(ctx) })

	req := httptest.NewRequest(http.MethodPost, "/v1/login", strings.NewReader(`{"username":"ROOT","password":"toor"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = ""

	_, err := New(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
}

func TestNewCoach_DisabledReturnsNil(t *testing.T) {
	require.Nil(t, newCoach(testConfig(), logging.NewNop()))

	cfg := testConfig()
	cfg.CoachEnabled = true
	cfg.CoachAPIKey = "key"
	require.NotNil(t, newCoach(cfg, logging.NewNop()))
}
