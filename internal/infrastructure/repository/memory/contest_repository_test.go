package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/contest"
	"github.com/riskibarqy/creator-league/internal/domain/rating"
	"github.com/riskibarqy/creator-league/internal/domain/submission"
	"github.com/riskibarqy/creator-league/internal/platform/password"
	"golang.org/x/crypto/bcrypt"
)

func newSeededRepo(t *testing.T) *ContestRepository {
	t.Helper()

	snap, err := SeedSnapshot(password.NewBcryptHasher(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	return NewContestRepository(snap)
}

func TestContestRepository_CreateCompetitionInsertsAtFront(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepo(t)

	err := repo.CreateCompetition(ctx, competition.Competition{ID: "comp-jan", Title: "January Jolt", Status: competition.StatusUpcoming})
	if err != nil {
		t.Fatalf("create competition: %v", err)
	}

	items, _ := repo.ListCompetitions(ctx)
	if len(items) != 3 || items[0].ID != "comp-jan" || items[1].ID != CompetitionIDNovember {
		t.Fatalf("unexpected order: %+v", ids(items, func(c competition.Competition) string { return c.ID }))
	}
	if err := repo.CreateCompetition(ctx, competition.Competition{ID: "comp-jan"}); !errors.Is(err, contest.ErrDuplicateID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestContestRepository_UpdateCompetitionVersioning(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepo(t)

	current, _, _ := repo.GetCompetition(ctx, CompetitionIDNovember)
	current.Title = "Neon Nights Remix"
	updated, err := repo.UpdateCompetition(ctx, current)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != current.Version+1 {
		t.Fatalf("expected version bump, got %d", updated.Version)
	}

	if _, err := repo.UpdateCompetition(ctx, current); !errors.Is(err, contest.ErrVersionConflict) {
		t.Fatalf("stale write should conflict, got %v", err)
	}
	if _, err := repo.UpdateCompetition(ctx, competition.Competition{ID: "missing"}); !errors.Is(err, contest.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestContestRepository_DeleteCompetitionCascadesChallengesOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepo(t)

	cascade, err := repo.DeleteCompetition(ctx, CompetitionIDNovember)
	if err != nil {
		t.Fatalf("delete competition: %v", err)
	}
	if len(cascade.ChallengeIDs) != 3 {
		t.Fatalf("expected 3 cascaded challenges, got %v", cascade.ChallengeIDs)
	}

	if _, ok, _ := repo.GetCompetition(ctx, CompetitionIDNovember); ok {
		t.Fatalf("competition should be gone")
	}
	challenges, _ := repo.ListChallengesByCompetition(ctx, CompetitionIDNovember)
	if len(challenges) != 0 {
		t.Fatalf("expected no challenges left, got %d", len(challenges))
	}

	// Submissions under removed challenges are retained.
	subs, _ := repo.ListSubmissions(ctx)
	if len(subs) != 2 {
		t.Fatalf("submissions must be kept, got %d", len(subs))
	}

	if _, err := repo.DeleteCompetition(ctx, CompetitionIDNovember); !errors.Is(err, contest.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestContestRepository_DeleteChallengeKeepsSubmissions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepo(t)

	if err := repo.DeleteChallenge(ctx, "c1"); err != nil {
		t.Fatalf("delete challenge: %v", err)
	}
	subs, _ := repo.ListSubmissionsByChallenge(ctx, "c1")
	if len(subs) != 2 {
		t.Fatalf("expected c1 submissions to survive, got %d", len(subs))
	}
	if err := repo.DeleteChallenge(ctx, "c1"); !errors.Is(err, contest.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestContestRepository_DeleteUserCascades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepo(t)

	// u1 authored s1 (rated by u2 and u3) and rated s2.
	cascade, err := repo.DeleteUser(ctx, "u1")
	if err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if len(cascade.SubmissionIDs) != 1 || cascade.SubmissionIDs[0] != "s1" {
		t.Fatalf("unexpected cascaded submissions: %v", cascade.SubmissionIDs)
	}
	if len(cascade.RatingIDs) != 3 {
		t.Fatalf("expected r1,r2,r3 removed, got %v", cascade.RatingIDs)
	}

	snap, _ := repo.Snapshot(ctx)
	subIDs := make(map[string]struct{})
	for _, s := range snap.Submissions {
		if s.UserID == "u1" {
			t.Fatalf("submission %s of deleted user survived", s.ID)
		}
		subIDs[s.ID] = struct{}{}
	}
	for _, r := range snap.Ratings {
		if r.RatedByUserID == "u1" {
			t.Fatalf("rating %s by deleted user survived", r.ID)
		}
		if _, ok := subIDs[r.SubmissionID]; !ok {
			t.Fatalf("orphaned rating %s references %s", r.ID, r.SubmissionID)
		}
	}
}

func TestContestRepository_CreateSubmissionCapacity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepo(t)

	entry := func(id, challengeID string) submission.Submission {
		return submission.Submission{
			ID:          id,
			ChallengeID: challengeID,
			UserID:      "u3",
			Link:        "https://tiktok.com/@glitch/" + id,
			SubmittedAt: time.Now(),
			Platform:    submission.PlatformTikTok,
		}
	}

	if err := repo.CreateSubmission(ctx, entry("g1", "c1"), 1); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if err := repo.CreateSubmission(ctx, entry("g2", "c1"), 1); !errors.Is(err, contest.ErrCapacityExceeded) {
		t.Fatalf("expected capacity exceeded, got %v", err)
	}
	if err := repo.CreateSubmission(ctx, entry("g3", "c2"), 3); err != nil {
		t.Fatalf("other challenge must be unaffected: %v", err)
	}
	if err := repo.CreateSubmission(ctx, entry("g4", "missing"), 1); !errors.Is(err, contest.ErrNotFound) {
		t.Fatalf("expected not found for missing challenge, got %v", err)
	}
}

func TestContestRepository_UpsertRatingKeepsOneRecordPerPair(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepo(t)

	first, created, err := repo.UpsertRating(ctx, rating.Rating{ID: "rx", SubmissionID: "s2", RatedByUserID: "u4", Score: 2})
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}
	second, created, err := repo.UpsertRating(ctx, rating.Rating{ID: "ry", SubmissionID: "s2", RatedByUserID: "u4", Score: 4})
	if err != nil || created {
		t.Fatalf("second upsert: created=%v err=%v", created, err)
	}
	if second.ID != first.ID || second.Score != 4 {
		t.Fatalf("expected in-place update of %s, got %+v", first.ID, second)
	}

	ratings, _ := repo.ListRatingsBySubmission(ctx, "s2")
	count := 0
	for _, r := range ratings {
		if r.RatedByUserID == "u4" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one rating by u4, got %d", count)
	}
}

func TestContestRepository_FindUserByUsernameIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepo(t)

	u, ok, err := repo.FindUserByUsername(ctx, "  pixelqueen ")
	if err != nil || !ok || u.ID != "u2" {
		t.Fatalf("expected u2, got %+v ok=%v err=%v", u, ok, err)
	}
}

func TestContestRepository_UpdateChallengeKeepsCompetition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSeededRepo(t)

	c, _, _ := repo.GetChallenge(ctx, "c2")
	c.CompetitionID = CompetitionIDDecember
	c.Criteria[0] = "Mixing"
	updated, err := repo.UpdateChallenge(ctx, c)
	if err != nil {
		t.Fatalf("update challenge: %v", err)
	}
	if updated.CompetitionID != CompetitionIDNovember {
		t.Fatalf("competition id must be immutable, got %s", updated.CompetitionID)
	}

	stored, _, _ := repo.GetChallenge(ctx, "c2")
	stored.Criteria[0] = "mutated by caller"
	again, _, _ := repo.GetChallenge(ctx, "c2")
	if again.Criteria[0] != "Mixing" {
		t.Fatalf("store must hand out copies, got %q", again.Criteria[0])
	}
	if again.Status != challenge.StatusActive {
		t.Fatalf("unexpected status %s", again.Status)
	}
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, id(item))
	}
	return out
}
