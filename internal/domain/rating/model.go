package rating

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MinScore       = 1
	MaxScore       = 5
	FavouriteScore = MaxScore
)

var ErrScoreOutOfRange = errors.New("rating score out of range")

// Rating is one peer's score for one submission. At most one exists per Key.
type Rating struct {
	ID            string
	SubmissionID  string
	RatedByUserID string
	Score         int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Key identifies the (submission, rater) pair a rating belongs to.
type Key struct {
	SubmissionID  string
	RatedByUserID string
}

func (r Rating) Key() Key {
	return Key{SubmissionID: r.SubmissionID, RatedByUserID: r.RatedByUserID}
}

func (r Rating) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("rating id is required")
	}
	if strings.TrimSpace(r.SubmissionID) == "" {
		return fmt.Errorf("rating submission id is required")
	}
	if strings.TrimSpace(r.RatedByUserID) == "" {
		return fmt.Errorf("rating rater id is required")
	}
	return ValidateScore(r.Score)
}

func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("%w: score %d not in [%d,%d]", ErrScoreOutOfRange, score, MinScore, MaxScore)
	}
	return nil
}
