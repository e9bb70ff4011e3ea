package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/contest"
	"github.com/riskibarqy/creator-league/internal/domain/rating"
	"github.com/riskibarqy/creator-league/internal/domain/submission"
	"github.com/riskibarqy/creator-league/internal/domain/user"
)

// ContestRepository keeps every collection behind one lock so cascades are atomic.
type ContestRepository struct {
	mu sync.RWMutex

	users     map[string]user.User
	userOrder []string

	competitions     map[string]competition.Competition
	competitionOrder []string

	challenges     map[string]challenge.Challenge
	challengeOrder []string

	submissions     map[string]submission.Submission
	submissionOrder []string

	ratings     map[rating.Key]rating.Rating
	ratingOrder []rating.Key
}

func NewContestRepository(seed contest.Snapshot) *ContestRepository {
	r := &ContestRepository{
		users:        make(map[string]user.User),
		competitions: make(map[string]competition.Competition),
		challenges:   make(map[string]challenge.Challenge),
		submissions:  make(map[string]submission.Submission),
		ratings:      make(map[rating.Key]rating.Rating),
	}
	r.importLocked(seed)
	return r
}

func (r *ContestRepository) Snapshot(_ context.Context) (contest.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return contest.Snapshot{
		Users:        r.usersLocked(),
		Competitions: r.competitionsLocked(),
		Challenges:   r.challengesLocked(func(challenge.Challenge) bool { return true }),
		Submissions:  r.submissionsLocked(func(submission.Submission) bool { return true }),
		Ratings:      r.ratingsLocked(func(rating.Rating) bool { return true }),
	}, nil
}

func (r *ContestRepository) Import(_ context.Context, snap contest.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.importLocked(snap)
	return nil
}

// Users

func (r *ContestRepository) ListUsers(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.usersLocked(), nil
}

func (r *ContestRepository) GetUser(_ context.Context, userID string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return user.User{}, false, nil
	}
	return cloneUser(u), true, nil
}

func (r *ContestRepository) FindUserByUsername(_ context.Context, username string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.userOrder {
		if u := r.users[id]; u.MatchesUsername(username) {
			return cloneUser(u), true, nil
		}
	}
	return user.User{}, false, nil
}

func (r *ContestRepository) CreateUser(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[u.ID]; exists {
		return fmt.Errorf("%w: user %s", contest.ErrDuplicateID, u.ID)
	}
	u.Version = 1
	r.users[u.ID] = cloneUser(u)
	r.userOrder = append(r.userOrder, u.ID)
	return nil
}

func (r *ContestRepository) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("%w: user %s", contest.ErrNotFound, u.ID)
	}
	if u.Version != 0 && u.Version != current.Version {
		return user.User{}, fmt.Errorf("%w: user %s at version %d, got %d", contest.ErrVersionConflict, u.ID, current.Version, u.Version)
	}
	u.CreatedAt = current.CreatedAt
	u.Version = current.Version + 1
	r.users[u.ID] = cloneUser(u)
	return cloneUser(u), nil
}

func (r *ContestRepository) TouchLogin(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", contest.ErrNotFound, userID)
	}
	u.LastLoginAt = &at
	r.users[userID] = u
	return nil
}

func (r *ContestRepository) DeleteUser(_ context.Context, userID string) (contest.UserCascade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return contest.UserCascade{}, fmt.Errorf("%w: user %s", contest.ErrNotFound, userID)
	}

	var cascade contest.UserCascade
	removedSubs := make(map[string]struct{})
	keptSubs := r.submissionOrder[:0]
	for _, id := range r.submissionOrder {
		if r.submissions[id].UserID == userID {
			removedSubs[id] = struct{}{}
			cascade.SubmissionIDs = append(cascade.SubmissionIDs, id)
			delete(r.submissions, id)
			continue
		}
		keptSubs = append(keptSubs, id)
	}
	r.submissionOrder = keptSubs

	keptRatings := r.ratingOrder[:0]
	for _, key := range r.ratingOrder {
		_, onRemoved := removedSubs[key.SubmissionID]
		if key.RatedByUserID == userID || onRemoved {
			cascade.RatingIDs = append(cascade.RatingIDs, r.ratings[key].ID)
			delete(r.ratings, key)
			continue
		}
		keptRatings = append(keptRatings, key)
	}
	r.ratingOrder = keptRatings

	delete(r.users, userID)
	r.userOrder = removeID(r.userOrder, userID)
	return cascade, nil
}

// Competitions

func (r *ContestRepository) ListCompetitions(_ context.Context) ([]competition.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.competitionsLocked(), nil
}

func (r *ContestRepository) GetCompetition(_ context.Context, competitionID string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.competitions[competitionID]
	return c, ok, nil
}

func (r *ContestRepository) CreateCompetition(_ context.Context, c competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.competitions[c.ID]; exists {
		return fmt.Errorf("%w: competition %s", contest.ErrDuplicateID, c.ID)
	}
	c.Version = 1
	r.competitions[c.ID] = c
	r.competitionOrder = append([]string{c.ID}, r.competitionOrder...)
	return nil
}

func (r *ContestRepository) UpdateCompetition(_ context.Context, c competition.Competition) (competition.Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.competitions[c.ID]
	if !ok {
		return competition.Competition{}, fmt.Errorf("%w: competition %s", contest.ErrNotFound, c.ID)
	}
	if c.Version != 0 && c.Version != current.Version {
		return competition.Competition{}, fmt.Errorf("%w: competition %s at version %d, got %d", contest.ErrVersionConflict, c.ID, current.Version, c.Version)
	}
	c.CreatedAt = current.CreatedAt
	c.Version = current.Version + 1
	r.competitions[c.ID] = c
	return c, nil
}

func (r *ContestRepository) DeleteCompetition(_ context.Context, competitionID string) (contest.CompetitionCascade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.competitions[competitionID]; !ok {
		return contest.CompetitionCascade{}, fmt.Errorf("%w: competition %s", contest.ErrNotFound, competitionID)
	}

	var cascade contest.CompetitionCascade
	kept := r.challengeOrder[:0]
	for _, id := range r.challengeOrder {
		if r.challenges[id].CompetitionID == competitionID {
			cascade.ChallengeIDs = append(cascade.ChallengeIDs, id)
			delete(r.challenges, id)
			continue
		}
		kept = append(kept, id)
	}
	r.challengeOrder = kept

	delete(r.competitions, competitionID)
	r.competitionOrder = removeID(r.competitionOrder, competitionID)
	return cascade, nil
}

// Challenges

func (r *ContestRepository) ListChallenges(_ context.Context) ([]challenge.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.challengesLocked(func(challenge.Challenge) bool { return true }), nil
}

func (r *ContestRepository) ListChallengesByCompetition(_ context.Context, competitionID string) ([]challenge.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.challengesLocked(func(c challenge.Challenge) bool { return c.CompetitionID == competitionID }), nil
}

func (r *ContestRepository) GetChallenge(_ context.Context, challengeID string) (challenge.Challenge, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.challenges[challengeID]
	if !ok {
		return challenge.Challenge{}, false, nil
	}
	return c.Clone(), true, nil
}

func (r *ContestRepository) CreateChallenge(_ context.Context, c challenge.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.challenges[c.ID]; exists {
		return fmt.Errorf("%w: challenge %s", contest.ErrDuplicateID, c.ID)
	}
	if _, ok := r.competitions[c.CompetitionID]; !ok {
		return fmt.Errorf("%w: competition %s", contest.ErrNotFound, c.CompetitionID)
	}
	c.Version = 1
	r.challenges[c.ID] = c.Clone()
	r.challengeOrder = append(r.challengeOrder, c.ID)
	return nil
}

func (r *ContestRepository) UpdateChallenge(_ context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.challenges[c.ID]
	if !ok {
		return challenge.Challenge{}, fmt.Errorf("%w: challenge %s", contest.ErrNotFound, c.ID)
	}
	if c.Version != 0 && c.Version != current.Version {
		return challenge.Challenge{}, fmt.Errorf("%w: challenge %s at version %d, got %d", contest.ErrVersionConflict, c.ID, current.Version, c.Version)
	}
	c.CompetitionID = current.CompetitionID
	c.CreatedAt = current.CreatedAt
	c.Version = current.Version + 1
	r.challenges[c.ID] = c.Clone()
	return c.Clone(), nil
}

func (r *ContestRepository) DeleteChallenge(_ context.Context, challengeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.challenges[challengeID]; !ok {
		return fmt.Errorf("%w: challenge %s", contest.ErrNotFound, challengeID)
	}
	delete(r.challenges, challengeID)
	r.challengeOrder = removeID(r.challengeOrder, challengeID)
	return nil
}

// Submissions

func (r *ContestRepository) ListSubmissions(_ context.Context) ([]submission.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.submissionsLocked(func(submission.Submission) bool { return true }), nil
}

func (r *ContestRepository) ListSubmissionsByChallenge(_ context.Context, challengeID string) ([]submission.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.submissionsLocked(func(s submission.Submission) bool { return s.ChallengeID == challengeID }), nil
}

func (r *ContestRepository) ListSubmissionsByUser(_ context.Context, userID string) ([]submission.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.submissionsLocked(func(s submission.Submission) bool { return s.UserID == userID }), nil
}

func (r *ContestRepository) GetSubmission(_ context.Context, submissionID string) (submission.Submission, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.submissions[submissionID]
	return s, ok, nil
}

func (r *ContestRepository) CreateSubmission(_ context.Context, s submission.Submission, maxPerUser int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.submissions[s.ID]; exists {
		return fmt.Errorf("%w: submission %s", contest.ErrDuplicateID, s.ID)
	}
	if _, ok := r.challenges[s.ChallengeID]; !ok {
		return fmt.Errorf("%w: challenge %s", contest.ErrNotFound, s.ChallengeID)
	}
	if _, ok := r.users[s.UserID]; !ok {
		return fmt.Errorf("%w: user %s", contest.ErrNotFound, s.UserID)
	}

	held := 0
	for _, id := range r.submissionOrder {
		existing := r.submissions[id]
		if existing.ChallengeID == s.ChallengeID && existing.UserID == s.UserID {
			held++
		}
	}
	if held >= maxPerUser {
		return fmt.Errorf("%w: %d of %d used", contest.ErrCapacityExceeded, held, maxPerUser)
	}

	r.submissions[s.ID] = s
	r.submissionOrder = append(r.submissionOrder, s.ID)
	return nil
}

// Ratings

func (r *ContestRepository) ListRatings(_ context.Context) ([]rating.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ratingsLocked(func(rating.Rating) bool { return true }), nil
}

func (r *ContestRepository) ListRatingsBySubmission(_ context.Context, submissionID string) ([]rating.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ratingsLocked(func(v rating.Rating) bool { return v.SubmissionID == submissionID }), nil
}

func (r *ContestRepository) UpsertRating(_ context.Context, v rating.Rating) (rating.Rating, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.submissions[v.SubmissionID]; !ok {
		return rating.Rating{}, false, fmt.Errorf("%w: submission %s", contest.ErrNotFound, v.SubmissionID)
	}

	key := v.Key()
	if existing, ok := r.ratings[key]; ok {
		existing.Score = v.Score
		existing.UpdatedAt = v.UpdatedAt
		r.ratings[key] = existing
		return existing, false, nil
	}

	r.ratings[key] = v
	r.ratingOrder = append(r.ratingOrder, key)
	return v, true, nil
}

func (r *ContestRepository) importLocked(snap contest.Snapshot) {
	for _, u := range snap.Users {
		if _, exists := r.users[u.ID]; exists {
			continue
		}
		if u.Version == 0 {
			u.Version = 1
		}
		r.users[u.ID] = cloneUser(u)
		r.userOrder = append(r.userOrder, u.ID)
	}
	// Snapshot order is display order, so append rather than front-insert.
	for _, c := range snap.Competitions {
		if _, exists := r.competitions[c.ID]; exists {
			continue
		}
		if c.Version == 0 {
			c.Version = 1
		}
		r.competitions[c.ID] = c
		r.competitionOrder = append(r.competitionOrder, c.ID)
	}
	for _, c := range snap.Challenges {
		if _, exists := r.challenges[c.ID]; exists {
			continue
		}
		if c.Version == 0 {
			c.Version = 1
		}
		r.challenges[c.ID] = c.Clone()
		r.challengeOrder = append(r.challengeOrder, c.ID)
	}
	for _, s := range snap.Submissions {
		if _, exists := r.submissions[s.ID]; exists {
			continue
		}
		r.submissions[s.ID] = s
		r.submissionOrder = append(r.submissionOrder, s.ID)
	}
	for _, v := range snap.Ratings {
		key := v.Key()
		if _, exists := r.ratings[key]; exists {
			continue
		}
		r.ratings[key] = v
		r.ratingOrder = append(r.ratingOrder, key)
	}
}

func (r *ContestRepository) usersLocked() []user.User {
	out := make([]user.User, 0, len(r.userOrder))
	for _, id := range r.userOrder {
		out = append(out, cloneUser(r.users[id]))
	}
	return out
}

func (r *ContestRepository) competitionsLocked() []competition.Competition {
	out := make([]competition.Competition, 0, len(r.competitionOrder))
	for _, id := range r.competitionOrder {
		out = append(out, r.competitions[id])
	}
	return out
}

func (r *ContestRepository) challengesLocked(keep func(challenge.Challenge) bool) []challenge.Challenge {
	out := make([]challenge.Challenge, 0, len(r.challengeOrder))
	for _, id := range r.challengeOrder {
		if c := r.challenges[id]; keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func (r *ContestRepository) submissionsLocked(keep func(submission.Submission) bool) []submission.Submission {
	out := make([]submission.Submission, 0, len(r.submissionOrder))
	for _, id := range r.submissionOrder {
		if s := r.submissions[id]; keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func (r *ContestRepository) ratingsLocked(keep func(rating.Rating) bool) []rating.Rating {
	out := make([]rating.Rating, 0, len(r.ratingOrder))
	for _, key := range r.ratingOrder {
		if v := r.ratings[key]; keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func cloneUser(u user.User) user.User {
	if u.LastLoginAt != nil {
		at := *u.LastLoginAt
		u.LastLoginAt = &at
	}
	return u
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
