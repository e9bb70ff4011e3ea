package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/contest"
	"github.com/riskibarqy/creator-league/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/creator-league/internal/platform/cache"
	"github.com/riskibarqy/creator-league/internal/platform/password"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type countingRepo struct {
	contest.Repository
	competitionLists atomic.Int32
	challengeGets    atomic.Int32
}

func (r *countingRepo) ListCompetitions(ctx context.Context) ([]competition.Competition, error) {
	r.competitionLists.Add(1)
	return r.Repository.ListCompetitions(ctx)
}

func (r *countingRepo) GetChallenge(ctx context.Context, challengeID string) (challenge.Challenge, bool, error) {
	r.challengeGets.Add(1)
	return r.Repository.GetChallenge(ctx, challengeID)
}

func newCachedRepo(t *testing.T) (*ContestRepository, *countingRepo) {
	t.Helper()

	snap, err := memory.SeedSnapshot(password.NewBcryptHasher(bcrypt.MinCost))
	require.NoError(t, err)
	next := &countingRepo{Repository: memory.NewContestRepository(snap)}
	return NewContestRepository(next, basecache.NewStore(time.Minute)), next
}

func TestContestRepository_CachesCompetitionListUntilWrite(t *testing.T) {
	ctx := context.Background()
	repo, next := newCachedRepo(t)

	first, err := repo.ListCompetitions(ctx)
	require.NoError(t, err)
	_, err = repo.ListCompetitions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, next.competitionLists.Load())

	require.NoError(t, repo.CreateCompetition(ctx, competition.Competition{
		ID:     "comp-jan",
		Title:  "January Jolt",
		Status: competition.StatusUpcoming,
	}))

	after, err := repo.ListCompetitions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, next.competitionLists.Load())
	require.Len(t, after, len(first)+1)
	require.Equal(t, "comp-jan", after[0].ID)
}

func TestContestRepository_CachesMissingChallenge(t *testing.T) {
	ctx := context.Background()
	repo, next := newCachedRepo(t)

	for range 3 {
		_, exists, err := repo.GetChallenge(ctx, "nope")
		require.NoError(t, err)
		require.False(t, exists)
	}
	require.EqualValues(t, 1, next.challengeGets.Load())
}

func TestContestRepository_ReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	repo, _ := newCachedRepo(t)

	ch, exists, err := repo.GetChallenge(ctx, "c1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NotEmpty(t, ch.Criteria)
	ch.Criteria[0] = "mutated"

	again, _, err := repo.GetChallenge(ctx, "c1")
	require.NoError(t, err)
	require.NotEqual(t, "mutated", again.Criteria[0])
}

func TestContestRepository_DeleteCompetitionDropsChallenges(t *testing.T) {
	ctx := context.Background()
	repo, _ := newCachedRepo(t)

	before, err := repo.ListChallengesByCompetition(ctx, memory.CompetitionIDNovember)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	_, err = repo.DeleteCompetition(ctx, memory.CompetitionIDNovember)
	require.NoError(t, err)

	after, err := repo.ListChallengesByCompetition(ctx, memory.CompetitionIDNovember)
	require.NoError(t, err)
	require.Empty(t, after)
}
