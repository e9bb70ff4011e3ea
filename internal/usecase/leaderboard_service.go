package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/creator-league/internal/domain/contest"
	"github.com/riskibarqy/creator-league/internal/domain/scoring"
	"github.com/riskibarqy/creator-league/internal/platform/cache"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
)

const (
	leaderboardCachePrefix   = "leaderboard:"
	leaderboardCacheKeyAll   = leaderboardCachePrefix + "all"
	defaultLeaderboardWorker = 8
)

// SnapshotReader exposes a consistent copy of the contest data.
type SnapshotReader interface {
	Snapshot(ctx context.Context) (contest.Snapshot, error)
}

// LeaderboardService derives standings from the store. Results are cached
// until the next contest mutation.
type LeaderboardService struct {
	source  SnapshotReader
	cache   *cache.Store
	workers int
	logger  *logging.Logger
}

func NewLeaderboardService(source SnapshotReader, store *cache.Store, workers int, logger *logging.Logger) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = defaultLeaderboardWorker
	}

	return &LeaderboardService{
		source:  source,
		cache:   store,
		workers: workers,
		logger:  logger,
	}
}

// ContestChanged drops every cached leaderboard entry.
func (s *LeaderboardService) ContestChanged(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.DeletePrefix(ctx, leaderboardCachePrefix)
}

// Standings returns the ranked player leaderboard.
func (s *LeaderboardService) Standings(ctx context.Context) ([]scoring.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Standings")
	defer span.End()

	standings, err := cache.Load(ctx, s.cache, leaderboardCacheKeyAll, s.computeStandings)
	if err != nil {
		return nil, err
	}

	out := make([]scoring.Standing, len(standings))
	copy(out, standings)
	return out, nil
}

// PlayerStats returns the aggregate for one user, ranked or not.
func (s *LeaderboardService) PlayerStats(ctx context.Context, userID string) (scoring.PlayerStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.PlayerStats")
	defer span.End()

	userID = strings.TrimSpace(userID)
	key := leaderboardCachePrefix + "stats:" + userID
	return cache.Load(ctx, s.cache, key, func(ctx context.Context) (scoring.PlayerStats, error) {
		snap, err := s.source.Snapshot(ctx)
		if err != nil {
			return scoring.PlayerStats{}, err
		}
		found := false
		for _, u := range snap.Users {
			if u.ID == userID {
				found = true
				break
			}
		}
		if !found {
			return scoring.PlayerStats{}, fmt.Errorf("%w: user id=%s", ErrNotFound, userID)
		}
		return scoring.ComputePlayerStats(userID, snap.Submissions, snap.Ratings), nil
	})
}

// StandingFor returns the user's leaderboard row when they are ranked.
func (s *LeaderboardService) StandingFor(ctx context.Context, userID string) (scoring.Standing, bool, error) {
	standings, err := s.Standings(ctx)
	if err != nil {
		return scoring.Standing{}, false, err
	}
	for _, row := range standings {
		if row.UserID == userID {
			return row, true, nil
		}
	}
	return scoring.Standing{}, false, nil
}

func (s *LeaderboardService) computeStandings(ctx context.Context) ([]scoring.Standing, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	ix := scoring.NewIndex(snap.Submissions, snap.Ratings)
	standings := make([]scoring.Standing, 0, len(snap.Users))
	for _, u := range snap.Users {
		if u.Role.Ranked() {
			standings = append(standings, scoring.NewStanding(u, scoring.PlayerStats{}))
		}
	}
	if len(standings) == 0 {
		return standings, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for idx := range standings {
		idx := idx
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			standings[idx].Stats = ix.Stats(standings[idx].UserID)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return nil, fmt.Errorf("submit stats task to worker pool: %w", err)
		}
	}
	workers.Wait()

	ranked := scoring.Rank(standings)
	s.logger.DebugContext(ctx, "leaderboard computed", "players", len(ranked))
	return ranked, nil
}
