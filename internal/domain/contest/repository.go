package contest

import (
	"context"
	"errors"
	"time"

	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/rating"
	"github.com/riskibarqy/creator-league/internal/domain/submission"
	"github.com/riskibarqy/creator-league/internal/domain/user"
)

var (
	ErrNotFound         = errors.New("contest: entity not found")
	ErrDuplicateID      = errors.New("contest: duplicate id")
	ErrVersionConflict  = errors.New("contest: version conflict")
	ErrCapacityExceeded = errors.New("contest: submission capacity exceeded")
)

// Snapshot is a point-in-time copy of every collection, in store order.
type Snapshot struct {
	Users        []user.User
	Competitions []competition.Competition
	Challenges   []challenge.Challenge
	Submissions  []submission.Submission
	Ratings      []rating.Rating
}

// CompetitionCascade lists what a competition delete removed besides the competition.
type CompetitionCascade struct {
	ChallengeIDs []string
}

// UserCascade lists what a user delete removed besides the user.
type UserCascade struct {
	SubmissionIDs []string
	RatingIDs     []string
}

// Repository owns the five contest collections. Every mutation, including
// cascades, is atomic with respect to every other mutation. Updates with a
// non-zero Version fail with ErrVersionConflict when it is stale; successful
// updates return the entity with its new Version.
type Repository interface {
	Snapshot(ctx context.Context) (Snapshot, error)

	ListUsers(ctx context.Context) ([]user.User, error)
	GetUser(ctx context.Context, userID string) (user.User, bool, error)
	// FindUserByUsername matches case-insensitively; the earliest-created match wins.
	FindUserByUsername(ctx context.Context, username string) (user.User, bool, error)
	CreateUser(ctx context.Context, u user.User) error
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	TouchLogin(ctx context.Context, userID string, at time.Time) error
	// DeleteUser removes the user, their submissions, every rating they authored
	// and every rating on their removed submissions.
	DeleteUser(ctx context.Context, userID string) (UserCascade, error)

	ListCompetitions(ctx context.Context) ([]competition.Competition, error)
	GetCompetition(ctx context.Context, competitionID string) (competition.Competition, bool, error)
	// CreateCompetition inserts at the front of the ordering.
	CreateCompetition(ctx context.Context, c competition.Competition) error
	UpdateCompetition(ctx context.Context, c competition.Competition) (competition.Competition, error)
	// DeleteCompetition removes the competition and its challenges. Submissions
	// under those challenges are kept.
	DeleteCompetition(ctx context.Context, competitionID string) (CompetitionCascade, error)

	ListChallenges(ctx context.Context) ([]challenge.Challenge, error)
	ListChallengesByCompetition(ctx context.Context, competitionID string) ([]challenge.Challenge, error)
	GetChallenge(ctx context.Context, challengeID string) (challenge.Challenge, bool, error)
	// CreateChallenge appends; the owning competition must exist.
	CreateChallenge(ctx context.Context, c challenge.Challenge) error
	UpdateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error)
	// DeleteChallenge removes only the challenge; its submissions are kept.
	DeleteChallenge(ctx context.Context, challengeID string) error

	ListSubmissions(ctx context.Context) ([]submission.Submission, error)
	ListSubmissionsByChallenge(ctx context.Context, challengeID string) ([]submission.Submission, error)
	ListSubmissionsByUser(ctx context.Context, userID string) ([]submission.Submission, error)
	GetSubmission(ctx context.Context, submissionID string) (submission.Submission, bool, error)
	// CreateSubmission inserts s unless its author already holds maxPerUser
	// submissions for the challenge, in which case ErrCapacityExceeded.
	CreateSubmission(ctx context.Context, s submission.Submission, maxPerUser int) error

	ListRatings(ctx context.Context) ([]rating.Rating, error)
	ListRatingsBySubmission(ctx context.Context, submissionID string) ([]rating.Rating, error)
	// UpsertRating stores r under its Key. An existing record keeps its ID and
	// CreatedAt and takes the new score. created reports whether it was inserted.
	UpsertRating(ctx context.Context, r rating.Rating) (stored rating.Rating, created bool, err error)

	// Import loads a snapshot, skipping entities whose id already exists.
	Import(ctx context.Context, snap Snapshot) error
}
