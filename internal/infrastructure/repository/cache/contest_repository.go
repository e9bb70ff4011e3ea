package cache

import (
	"context"

	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/contest"
	basecache "github.com/riskibarqy/creator-league/internal/platform/cache"
)

const (
	competitionPrefix = "competition:"
	challengePrefix   = "challenge:"
)

// ContestRepository is a read-through cache for competitions and challenges
// in front of another contest.Repository. Writes go straight to next and
// drop the affected keys; everything else passes through.
type ContestRepository struct {
	contest.Repository
	cache *basecache.Store
}

func NewContestRepository(next contest.Repository, cache *basecache.Store) *ContestRepository {
	return &ContestRepository{Repository: next, cache: cache}
}

type cachedCompetition struct {
	value  competition.Competition
	exists bool
}

type cachedChallenge struct {
	value  challenge.Challenge
	exists bool
}

func (r *ContestRepository) ListCompetitions(ctx context.Context) ([]competition.Competition, error) {
	items, err := basecache.Load(ctx, r.cache, competitionPrefix+"list", r.Repository.ListCompetitions)
	if err != nil {
		return nil, err
	}
	return append([]competition.Competition(nil), items...), nil
}

func (r *ContestRepository) GetCompetition(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, competitionPrefix+"id:"+competitionID, func(ctx context.Context) (cachedCompetition, error) {
		item, exists, err := r.Repository.GetCompetition(ctx, competitionID)
		return cachedCompetition{value: item, exists: exists}, err
	})
	if err != nil {
		return competition.Competition{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *ContestRepository) ListChallenges(ctx context.Context) ([]challenge.Challenge, error) {
	items, err := basecache.Load(ctx, r.cache, challengePrefix+"list", r.Repository.ListChallenges)
	if err != nil {
		return nil, err
	}
	return cloneChallenges(items), nil
}

func (r *ContestRepository) ListChallengesByCompetition(ctx context.Context, competitionID string) ([]challenge.Challenge, error) {
	items, err := basecache.Load(ctx, r.cache, challengePrefix+"competition:"+competitionID, func(ctx context.Context) ([]challenge.Challenge, error) {
		return r.Repository.ListChallengesByCompetition(ctx, competitionID)
	})
	if err != nil {
		return nil, err
	}
	return cloneChallenges(items), nil
}

func (r *ContestRepository) GetChallenge(ctx context.Context, challengeID string) (challenge.Challenge, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, challengePrefix+"id:"+challengeID, func(ctx context.Context) (cachedChallenge, error) {
		item, exists, err := r.Repository.GetChallenge(ctx, challengeID)
		return cachedChallenge{value: item, exists: exists}, err
	})
	if err != nil {
		return challenge.Challenge{}, false, err
	}
	return cached.value.Clone(), cached.exists, nil
}

func (r *ContestRepository) CreateCompetition(ctx context.Context, c competition.Competition) error {
	defer r.cache.DeletePrefix(ctx, competitionPrefix)
	return r.Repository.CreateCompetition(ctx, c)
}

func (r *ContestRepository) UpdateCompetition(ctx context.Context, c competition.Competition) (competition.Competition, error) {
	defer r.cache.DeletePrefix(ctx, competitionPrefix)
	return r.Repository.UpdateCompetition(ctx, c)
}

func (r *ContestRepository) DeleteCompetition(ctx context.Context, competitionID string) (contest.CompetitionCascade, error) {
	defer r.invalidateAll(ctx)
	return r.Repository.DeleteCompetition(ctx, competitionID)
}

func (r *ContestRepository) CreateChallenge(ctx context.Context, c challenge.Challenge) error {
	defer r.cache.DeletePrefix(ctx, challengePrefix)
	return r.Repository.CreateChallenge(ctx, c)
}

func (r *ContestRepository) UpdateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	defer r.cache.DeletePrefix(ctx, challengePrefix)
	return r.Repository.UpdateChallenge(ctx, c)
}

func (r *ContestRepository) DeleteChallenge(ctx context.Context, challengeID string) error {
	defer r.cache.DeletePrefix(ctx, challengePrefix)
	return r.Repository.DeleteChallenge(ctx, challengeID)
}

func (r *ContestRepository) Import(ctx context.Context, snap contest.Snapshot) error {
	defer r.invalidateAll(ctx)
	return r.Repository.Import(ctx, snap)
}

func (r *ContestRepository) invalidateAll(ctx context.Context) {
	r.cache.DeletePrefix(ctx, competitionPrefix)
	r.cache.DeletePrefix(ctx, challengePrefix)
}

func cloneChallenges(items []challenge.Challenge) []challenge.Challenge {
	out := make([]challenge.Challenge, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out
}
