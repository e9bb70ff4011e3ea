package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/creator-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/creator-league/internal/platform/cache"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
	"github.com/riskibarqy/creator-league/internal/platform/password"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2023, 11, 15, 12, 0, 0, 0, time.UTC)

type staticIDGenerator struct {
	id string
}

func (g staticIDGenerator) NewID() (string, error) {
	return g.id, nil
}

type sequenceIDGenerator struct {
	mu   sync.Mutex
	next int
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%03d", g.next), nil
}

type seedAvatars struct{}

func (seedAvatars) AvatarURL(seed string) string {
	return "https://avatars.test/" + seed
}

type recordingListener struct {
	mu    sync.Mutex
	calls int
}

func (l *recordingListener) ContestChanged(context.Context) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
}

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type fixture struct {
	repo        *memory.ContestRepository
	contests    *ContestService
	leaderboard *LeaderboardService
	router      *ViewRouter
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	hasher := password.NewBcryptHasher(bcrypt.MinCost)
	snap, err := memory.SeedSnapshot(hasher)
	if err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	repo := memory.NewContestRepository(snap)

	logger := logging.NewNop()
	contests := NewContestService(repo, &sequenceIDGenerator{}, hasher, seedAvatars{}, logger)
	contests.now = func() time.Time { return testNow }

	leaderboard := NewLeaderboardService(contests, cache.NewStore(time.Minute), 2, logger)
	contests.Subscribe(leaderboard)

	return fixture{
		repo:        repo,
		contests:    contests,
		leaderboard: leaderboard,
		router:      NewViewRouter(contests, leaderboard),
	}
}

func (f fixture) session(t *testing.T, username string) *Session {
	t.Helper()

	s := NewSession(f.contests, nil, logging.NewNop())
	if _, err := s.Login(context.Background(), username, memory.SeedPassword); err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return s
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
