package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/creator-league/internal/domain/scoring"
)

func TestLeaderboardService_StandingsFromSeed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	standings, err := f.leaderboard.Standings(context.Background())
	if err != nil {
		t.Fatalf("standings: %v", err)
	}

	want := []struct {
		userID string
		rank   int
		total  int
	}{
		{"u2", 1, 55},
		{"u1", 2, 50},
		{"u3", 3, 0},
		{"u4", 3, 0},
	}
	if len(standings) != len(want) {
		t.Fatalf("leaders must not be ranked, got %d rows", len(standings))
	}
	for i, w := range want {
		got := standings[i]
		if got.UserID != w.userID || got.Rank != w.rank || got.Stats.TotalScore != w.total {
			t.Fatalf("row %d: got %s rank=%d total=%d, want %+v", i, got.UserID, got.Rank, got.Stats.TotalScore, w)
		}
	}
}

func TestLeaderboardService_InvalidatesOnMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	before, _ := f.leaderboard.Standings(ctx)
	if before[0].UserID != "u2" {
		t.Fatalf("expected u2 on top before rating, got %s", before[0].UserID)
	}

	// s1 goes from [4,5] to [4,5,5]: round(4.667*10 + 2*5) = 57.
	if _, err := f.contests.RateSubmission(ctx, "s1", "u4", 5); err != nil {
		t.Fatalf("rate: %v", err)
	}

	after, err := f.leaderboard.Standings(ctx)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if after[0].UserID != "u1" || after[0].Stats.TotalScore != 57 {
		t.Fatalf("expected u1 with 57 on top, got %s with %d", after[0].UserID, after[0].Stats.TotalScore)
	}
}

func TestLeaderboardService_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	first, _ := f.leaderboard.Standings(ctx)
	first[0].Username = "tampered"

	second, _ := f.leaderboard.Standings(ctx)
	if second[0].Username == "tampered" {
		t.Fatalf("cached standings must not be shared with callers")
	}
}

func TestLeaderboardService_PlayerStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	stats, err := f.leaderboard.PlayerStats(ctx, "u1")
	if err != nil {
		t.Fatalf("player stats: %v", err)
	}
	want := scoring.PlayerStats{TotalScore: 50, SubmissionCount: 1, AvgRating: 4.5, FavouriteCount: 1}
	if stats != want {
		t.Fatalf("got %+v, want %+v", stats, want)
	}

	leader, err := f.leaderboard.PlayerStats(ctx, "3mmo")
	if err != nil || leader != (scoring.PlayerStats{}) {
		t.Fatalf("leader without submissions should have zero stats, got %+v err=%v", leader, err)
	}

	if _, err := f.leaderboard.PlayerStats(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLeaderboardService_StandingFor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	row, ok, err := f.leaderboard.StandingFor(ctx, "u1")
	if err != nil || !ok || row.Rank != 2 {
		t.Fatalf("expected u1 at rank 2, got %+v ok=%v err=%v", row, ok, err)
	}
	if _, ok, _ := f.leaderboard.StandingFor(ctx, "3mmo"); ok {
		t.Fatalf("leader must not appear on the leaderboard")
	}
}
