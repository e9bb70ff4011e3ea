package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/riskibarqy/creator-league/internal/domain/rating"
	"github.com/riskibarqy/creator-league/internal/domain/submission"
	"github.com/riskibarqy/creator-league/internal/domain/user"
)

const (
	pointsPerAverageStar = 10
	pointsPerFavourite   = 5
)

// PlayerStats is the aggregate a player's ratings produce.
type PlayerStats struct {
	TotalScore      int
	SubmissionCount int
	AvgRating       float64
	FavouriteCount  int
}

// Standing is one leaderboard row. Equal TotalScore shares a Rank.
type Standing struct {
	Rank      int
	UserID    string
	Username  string
	Avatar    string
	Level     int
	CreatedAt time.Time
	Stats     PlayerStats
}

// Index groups submissions by author and rating scores by submission so
// stats for many users can be computed without rescanning. It is read-only
// after construction and safe for concurrent use.
type Index struct {
	submissionsByUser  map[string][]submission.Submission
	scoresBySubmission map[string][]int
}

func NewIndex(submissions []submission.Submission, ratings []rating.Rating) *Index {
	ix := &Index{
		submissionsByUser:  make(map[string][]submission.Submission),
		scoresBySubmission: make(map[string][]int, len(submissions)),
	}
	for _, s := range submissions {
		ix.submissionsByUser[s.UserID] = append(ix.submissionsByUser[s.UserID], s)
	}
	for _, r := range ratings {
		ix.scoresBySubmission[r.SubmissionID] = append(ix.scoresBySubmission[r.SubmissionID], r.Score)
	}
	return ix
}

// Stats computes a user's PlayerStats.
//
// Submissions without ratings count toward SubmissionCount but not toward the
// average. TotalScore is derived from the unrounded average; only the
// reported AvgRating is rounded to one decimal.
func (ix *Index) Stats(userID string) PlayerStats {
	subs := ix.submissionsByUser[userID]
	if len(subs) == 0 {
		return PlayerStats{}
	}

	var (
		sumOfMeans float64
		rated      int
		favourites int
	)
	for _, s := range subs {
		scores := ix.scoresBySubmission[s.ID]
		if len(scores) == 0 {
			continue
		}
		total := 0
		for _, score := range scores {
			total += score
			if score == rating.FavouriteScore {
				favourites++
			}
		}
		sumOfMeans += float64(total) / float64(len(scores))
		rated++
	}

	stats := PlayerStats{
		SubmissionCount: len(subs),
		FavouriteCount:  favourites,
	}
	if rated == 0 {
		return stats
	}

	avg := sumOfMeans / float64(rated)
	stats.AvgRating = roundToTenth(avg)
	stats.TotalScore = int(math.Round(avg*float64(len(subs))*pointsPerAverageStar + float64(favourites)*pointsPerFavourite))
	return stats
}

// roundToTenth rounds half away from zero after scaling by ten. The scaled
// product is itself rounded to the nearest float64 first, so a mean such as
// 4.35 (stored as 4.3499...) lands on 43.5 and reports 4.4, as a decimal
// reader expects.
func roundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// ComputePlayerStats is a pure function over the full collections.
func ComputePlayerStats(userID string, submissions []submission.Submission, ratings []rating.Rating) PlayerStats {
	return NewIndex(submissions, ratings).Stats(userID)
}

// RankStandings builds the leaderboard for every ranked (player) user.
func RankStandings(users []user.User, submissions []submission.Submission, ratings []rating.Rating) []Standing {
	ix := NewIndex(submissions, ratings)
	standings := make([]Standing, 0, len(users))
	for _, u := range users {
		if !u.Role.Ranked() {
			continue
		}
		standings = append(standings, NewStanding(u, ix.Stats(u.ID)))
	}
	return Rank(standings)
}

func NewStanding(u user.User, stats PlayerStats) Standing {
	return Standing{
		UserID:    u.ID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Level:     u.Level,
		CreatedAt: u.CreatedAt,
		Stats:     stats,
	}
}

// Rank orders standings by TotalScore descending, then earlier account
// creation, then user id, and assigns dense ranks in place.
func Rank(standings []Standing) []Standing {
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Stats.TotalScore != b.Stats.TotalScore {
			return a.Stats.TotalScore > b.Stats.TotalScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.UserID < b.UserID
	})

	lastPoints := 0
	rank := 0
	for idx := range standings {
		if idx == 0 || standings[idx].Stats.TotalScore != lastPoints {
			rank++
			lastPoints = standings[idx].Stats.TotalScore
		}
		standings[idx].Rank = rank
	}
	return standings
}
