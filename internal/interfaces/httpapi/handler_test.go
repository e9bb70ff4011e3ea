package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/creator-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/creator-league/internal/platform/cache"
	idgen "github.com/riskibarqy/creator-league/internal/platform/id"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
	"github.com/riskibarqy/creator-league/internal/platform/password"
	"github.com/riskibarqy/creator-league/internal/usecase"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixedAvatars struct{}

func (fixedAvatars) AvatarURL(seed string) string {
	return "https://avatars.test/" + seed
}

func (fixedAvatars) Options() []string {
	return []string{"https://avatars.test/a", "https://avatars.test/b"}
}

type apiEnvelope struct {
	APIVersion string         `json:"apiVersion"`
	Data       map[string]any `json:"data"`
	Error      *struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

type listEnvelope struct {
	Data []map[string]any `json:"data"`
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	hasher := password.NewBcryptHasher(bcrypt.MinCost)
	snap, err := memory.SeedSnapshot(hasher)
	require.NoError(t, err)

	logger := logging.NewNop()
	repo := memory.NewContestRepository(snap)
	contests := usecase.NewContestService(repo, idgen.NewUUIDGenerator(), hasher, fixedAvatars{}, logger)
	leaderboard := usecase.NewLeaderboardService(contests, cache.NewStore(time.Minute), 2, logger)
	contests.Subscribe(leaderboard)
	sessions := usecase.NewSessionManager(contests, nil, idgen.NewPrefixedGenerator("tok"), time.Hour, logger)
	contests.Subscribe(sessions)

	handler := NewHandler(sessions, contests, leaderboard, usecase.NewViewRouter(contests, leaderboard), fixedAvatars{}, logger)
	return NewRouter(handler, sessions, logger, true, []string{"*"})
}

func doRequest(t *testing.T, srv http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()

	var env apiEnvelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func login(t *testing.T, srv http.Handler, username string) string {
	t.Helper()

	rec := doRequest(t, srv, http.MethodPost, "/v1/login", "", map[string]string{
		"username": username,
		"password": memory.SeedPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	token, _ := env.Data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthzAndAvatarOptionsArePublic(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/v1/avatars/options", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var options struct {
		Data []string `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &options))
	require.Len(t, options.Data, 2)
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/v1/login", "", map[string]string{"username": "shadowblade", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/login", "", map[string]string{"username": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/login", "", map[string]any{"username": "x", "password": "y", "extra": true})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	token := login(t, srv, "  SHADOWBLADE ")
	rec = doRequest(t, srv, http.MethodGet, "/v1/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, "home", env.Data["view"])
	require.Equal(t, "u1", env.Data["user"].(map[string]any)["id"])
}

func TestSessionRoutesRequireBearerToken(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/v1/session", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/v1/leaderboard", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token := login(t, srv, "ShadowBlade")
	rec = doRequest(t, srv, http.MethodPost, "/v1/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/v1/session", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNavigateAndRenderView(t *testing.T) {
	srv := newTestServer(t)
	player := login(t, srv, "ShadowBlade")

	rec := doRequest(t, srv, http.MethodPost, "/v1/session/navigate", player, map[string]string{"view": "admin-users"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/session/navigate", player, map[string]string{"view": "challenge", "challenge_id": "c3"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/session/navigate", player, map[string]string{"view": "competition"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, memory.CompetitionIDNovember, decodeEnvelope(t, rec).Data["selected_competition_id"])

	rec = doRequest(t, srv, http.MethodGet, "/v1/session/view", player, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, "competition", env.Data["view"])
	view := env.Data["competition"].(map[string]any)
	require.Len(t, view["challenges"], 3)

	rec = doRequest(t, srv, http.MethodPost, "/v1/session/navigate", player, map[string]string{"view": "leaderboard"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, srv, http.MethodGet, "/v1/session/view", player, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, decodeEnvelope(t, rec).Data["leaderboard"])
}

func TestCompetitionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	player := login(t, srv, "ShadowBlade")
	leader := login(t, srv, "3mmo")

	payload := map[string]string{"title": "January Jams", "start_date": "2024-01-01", "end_date": "2024-01-31"}
	rec := doRequest(t, srv, http.MethodPost, "/v1/competitions", player, payload)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/competitions", leader, map[string]string{"title": "Bad", "start_date": "01/01/2024"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/competitions", leader, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeEnvelope(t, rec).Data
	id := created["id"].(string)
	require.Equal(t, "january-jams", created["slug"])
	require.Equal(t, "upcoming", created["status"])

	rec = doRequest(t, srv, http.MethodGet, "/v1/competitions", player, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list listEnvelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, id, list.Data[0]["id"])

	rec = doRequest(t, srv, http.MethodPut, "/v1/competitions/"+id, leader, map[string]any{"prize": "Camera", "version": 99})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, srv, http.MethodPut, "/v1/competitions/"+id, leader, map[string]any{"prize": "Camera"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeEnvelope(t, rec).Data
	require.Equal(t, "Camera", updated["prize"])
	require.Equal(t, "January Jams", updated["title"])
	require.Equal(t, "2024-01-01", updated["start_date"])

	rec = doRequest(t, srv, http.MethodPut, "/v1/competitions/missing", leader, map[string]any{"prize": "Camera"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/v1/competitions/"+id, leader, nil)
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/v1/competitions/"+id+"?confirm=true", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/v1/competitions/"+id+"?confirm=true", leader, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChallengeLifecycle(t *testing.T) {
	srv := newTestServer(t)
	leader := login(t, srv, "3mmo")

	rec := doRequest(t, srv, http.MethodPost, "/v1/competitions/"+memory.CompetitionIDDecember+"/challenges", leader, map[string]any{
		"title":       "Frozen Frames",
		"week_number": 1,
		"criteria":    []string{"Mood"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeEnvelope(t, rec).Data
	id := created["id"].(string)
	require.Equal(t, float64(1), created["max_submissions"])

	rec = doRequest(t, srv, http.MethodPost, "/v1/competitions/missing/challenges", leader, map[string]any{"title": "x", "week_number": 1})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodPut, "/v1/challenges/"+id, leader, map[string]any{"max_submissions": 2, "status": "active"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeEnvelope(t, rec).Data
	require.Equal(t, float64(2), updated["max_submissions"])
	require.Equal(t, "Frozen Frames", updated["title"])

	rec = doRequest(t, srv, http.MethodGet, "/v1/competitions/"+memory.CompetitionIDDecember+"/challenges", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list listEnvelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)

	rec = doRequest(t, srv, http.MethodDelete, "/v1/challenges/c1?confirm=true", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Entries of a deleted challenge still count.
	rec = doRequest(t, srv, http.MethodGet, "/v1/users/u1/stats", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), decodeEnvelope(t, rec).Data["submission_count"])
}

func TestEditRoutesCheckRoleBeforeLookup(t *testing.T) {
	srv := newTestServer(t)
	player := login(t, srv, "PixelQueen")

	for _, path := range []string{
		"/v1/competitions/" + memory.CompetitionIDNovember,
		"/v1/competitions/does-not-exist",
		"/v1/challenges/c1",
		"/v1/challenges/does-not-exist",
	} {
		rec := doRequest(t, srv, http.MethodPut, path, player, map[string]any{"title": "Renamed"})
		require.Equal(t, http.StatusForbidden, rec.Code, path)
	}

	rec := doRequest(t, srv, http.MethodPut, "/v1/competitions/"+memory.CompetitionIDNovember, "", map[string]any{"title": "Renamed"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitAndRate(t *testing.T) {
	srv := newTestServer(t)
	player := login(t, srv, "ShadowBlade")
	leader := login(t, srv, "3mmo")
	link := "https://www.youtube.com/watch?v=abc"

	rec := doRequest(t, srv, http.MethodPost, "/v1/challenges/c2/submissions", leader, map[string]string{"link": link})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/challenges/c2/submissions", player, map[string]string{"link": "not a url"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/challenges/c1/submissions", player, map[string]string{"link": link})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "capacityExceeded", decodeEnvelope(t, rec).Error.Errors[0].Reason)

	rec = doRequest(t, srv, http.MethodPost, "/v1/challenges/c3/submissions", player, map[string]string{"link": link})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/challenges/c2/submissions", player, map[string]string{"link": link, "note": "foley"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeEnvelope(t, rec).Data
	require.Equal(t, "youtube", created["platform"])
	subID := created["id"].(string)

	rec = doRequest(t, srv, http.MethodGet, "/v1/challenges/c2/submissions", player, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/v1/challenges/c3/submissions", player, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodPut, "/v1/submissions/"+subID+"/ratings", player, map[string]int{"score": 5})
	require.Equal(t, http.StatusForbidden, rec.Code)

	for _, score := range []int{0, 6} {
		rec = doRequest(t, srv, http.MethodPut, "/v1/submissions/"+subID+"/ratings", leader, map[string]int{"score": score})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPut, "/v1/submissions/"+subID+"/ratings", leader, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPut, "/v1/submissions/"+subID+"/ratings", leader, map[string]int{"score": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeEnvelope(t, rec).Data

	rec = doRequest(t, srv, http.MethodPut, "/v1/submissions/"+subID+"/ratings", leader, map[string]int{"score": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeEnvelope(t, rec).Data
	require.Equal(t, first["id"], second["id"])
	require.Equal(t, float64(4), second["score"])

	rec = doRequest(t, srv, http.MethodPut, "/v1/submissions/missing/ratings", leader, map[string]int{"score": 4})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestFeedbackWithoutCoachFallsBack(t *testing.T) {
	srv := newTestServer(t)
	author := login(t, srv, "ShadowBlade")
	other := login(t, srv, "PixelQueen")

	rec := doRequest(t, srv, http.MethodPost, "/v1/submissions/s1/feedback", other, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/submissions/s1/feedback", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, true, env.Data["fallback"])
	require.Equal(t, usecase.FeedbackMissingKey, env.Data["text"])
}

func TestLeaderboardAndStats(t *testing.T) {
	srv := newTestServer(t)
	player := login(t, srv, "GlitchMage")

	rec := doRequest(t, srv, http.MethodGet, "/v1/leaderboard", player, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list listEnvelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 4)
	require.Equal(t, float64(1), list.Data[0]["rank"])

	rec = doRequest(t, srv, http.MethodGet, "/v1/users/missing/stats", player, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserManagement(t *testing.T) {
	srv := newTestServer(t)
	player := login(t, srv, "ShadowBlade")
	leader := login(t, srv, "3mmo")

	rec := doRequest(t, srv, http.MethodGet, "/v1/users", player, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/users", player, map[string]string{"username": "x", "password": "y"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/users", leader, map[string]string{"username": "NewKid", "password": "secret"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeEnvelope(t, rec).Data
	require.Equal(t, "player", created["role"])
	require.Equal(t, "https://avatars.test/NewKid", created["avatar"])
	id := created["id"].(string)

	rec = doRequest(t, srv, http.MethodPut, "/v1/users/"+id, leader, map[string]string{"username": "OldKid"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OldKid", decodeEnvelope(t, rec).Data["username"])

	rec = doRequest(t, srv, http.MethodDelete, "/v1/users/u3?confirm=false", leader, nil)
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/v1/users/3mmo?confirm=true", leader, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/v1/users/u1?confirm=true", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The deleted user's session is revoked.
	rec = doRequest(t, srv, http.MethodGet, "/v1/session", player, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/v1/users", leader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list listEnvelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 5)
}

func TestUpdateAvatar(t *testing.T) {
	srv := newTestServer(t)
	player := login(t, srv, "NeonNinja")

	rec := doRequest(t, srv, http.MethodPut, "/v1/users/me/avatar", player, map[string]string{"avatar": "https://avatars.test/b"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://avatars.test/b", decodeEnvelope(t, rec).Data["avatar"])

	rec = doRequest(t, srv, http.MethodGet, "/v1/session", player, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeEnvelope(t, rec).Data["user"].(map[string]any)
	require.Equal(t, "https://avatars.test/b", user["avatar"])
}

func TestSwaggerRoutes(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/openapi.yaml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Creator League API")

	rec = doRequest(t, srv, http.MethodGet, "/docs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
