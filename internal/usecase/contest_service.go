package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/contest"
	"github.com/riskibarqy/creator-league/internal/domain/rating"
	"github.com/riskibarqy/creator-league/internal/domain/submission"
	"github.com/riskibarqy/creator-league/internal/domain/user"
	idgen "github.com/riskibarqy/creator-league/internal/platform/id"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
	"github.com/riskibarqy/creator-league/internal/platform/password"
)

// AvatarProvider turns a seed into a deterministic avatar reference.
type AvatarProvider interface {
	AvatarURL(seed string) string
}

// ChangeListener is told after any mutation that can move scores or projections.
type ChangeListener interface {
	ContestChanged(ctx context.Context)
}

// SubmissionInput is the payload for a new entry.
type SubmissionInput struct {
	ChallengeID string
	AuthorID    string
	Link        string
	Note        string
}

// ContestService is the store facade: it validates, stamps ids and times,
// and translates repository failures. Role checks live in Session.
type ContestService struct {
	repo    contest.Repository
	idGen   idgen.Generator
	hasher  password.Hasher
	avatars AvatarProvider
	logger  *logging.Logger
	now     func() time.Time

	mu        sync.RWMutex
	listeners []ChangeListener
}

func NewContestService(
	repo contest.Repository,
	idGen idgen.Generator,
	hasher password.Hasher,
	avatars AvatarProvider,
	logger *logging.Logger,
) *ContestService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ContestService{
		repo:    repo,
		idGen:   idGen,
		hasher:  hasher,
		avatars: avatars,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *ContestService) Subscribe(l ChangeListener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *ContestService) Snapshot(ctx context.Context) (contest.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.Snapshot")
	defer span.End()

	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return contest.Snapshot{}, translateStoreError("snapshot", err)
	}
	return snap, nil
}

// Competitions

func (s *ContestService) ListCompetitions(ctx context.Context) ([]competition.Competition, error) {
	items, err := s.repo.ListCompetitions(ctx)
	if err != nil {
		return nil, translateStoreError("list competitions", err)
	}
	return items, nil
}

func (s *ContestService) GetCompetition(ctx context.Context, competitionID string) (competition.Competition, error) {
	competitionID = strings.TrimSpace(competitionID)
	c, ok, err := s.repo.GetCompetition(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, translateStoreError("get competition", err)
	}
	if !ok {
		return competition.Competition{}, fmt.Errorf("%w: competition id=%s", ErrNotFound, competitionID)
	}
	return c, nil
}

// CreateCompetition stores c at the front of the ordering, generating an id when absent.
func (s *ContestService) CreateCompetition(ctx context.Context, c competition.Competition) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.CreateCompetition")
	defer span.End()

	if strings.TrimSpace(c.ID) == "" {
		id, err := s.newID("comp")
		if err != nil {
			return competition.Competition{}, err
		}
		c.ID = id
	}
	c = c.Normalize()
	c.CreatedAt = s.now().UTC()
	if err := c.Validate(); err != nil {
		return competition.Competition{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.repo.CreateCompetition(ctx, c); err != nil {
		return competition.Competition{}, translateStoreError("create competition", err)
	}
	c.Version = 1

	s.logger.InfoContext(ctx, "competition created", "competition_id", c.ID, "title", c.Title)
	s.notify(ctx)
	return c, nil
}

// EditCompetition replaces the competition with the same id.
func (s *ContestService) EditCompetition(ctx context.Context, c competition.Competition) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.EditCompetition")
	defer span.End()

	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return competition.Competition{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.repo.UpdateCompetition(ctx, c)
	if err != nil {
		return competition.Competition{}, translateStoreError("edit competition", err)
	}

	s.logger.InfoContext(ctx, "competition updated", "competition_id", updated.ID, "version", updated.Version)
	s.notify(ctx)
	return updated, nil
}

// DeleteCompetition removes the competition and its challenges.
func (s *ContestService) DeleteCompetition(ctx context.Context, competitionID string) (contest.CompetitionCascade, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.DeleteCompetition")
	defer span.End()

	cascade, err := s.repo.DeleteCompetition(ctx, strings.TrimSpace(competitionID))
	if err != nil {
		return contest.CompetitionCascade{}, translateStoreError("delete competition", err)
	}

	s.logger.InfoContext(ctx, "competition deleted",
		"competition_id", competitionID,
		"challenges_removed", len(cascade.ChallengeIDs),
	)
	s.notify(ctx)
	return cascade, nil
}

// Challenges

func (s *ContestService) ListChallenges(ctx context.Context, competitionID string) ([]challenge.Challenge, error) {
	if _, err := s.GetCompetition(ctx, competitionID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListChallengesByCompetition(ctx, strings.TrimSpace(competitionID))
	if err != nil {
		return nil, translateStoreError("list challenges", err)
	}
	return items, nil
}

func (s *ContestService) GetChallenge(ctx context.Context, challengeID string) (challenge.Challenge, error) {
	challengeID = strings.TrimSpace(challengeID)
	c, ok, err := s.repo.GetChallenge(ctx, challengeID)
	if err != nil {
		return challenge.Challenge{}, translateStoreError("get challenge", err)
	}
	if !ok {
		return challenge.Challenge{}, fmt.Errorf("%w: challenge id=%s", ErrNotFound, challengeID)
	}
	return c, nil
}

// CreateChallenge appends c to its competition.
func (s *ContestService) CreateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.CreateChallenge")
	defer span.End()

	if strings.TrimSpace(c.ID) == "" {
		id, err := s.newID("chal")
		if err != nil {
			return challenge.Challenge{}, err
		}
		c.ID = id
	}
	c = c.Normalize()
	c.CreatedAt = s.now().UTC()
	if err := c.Validate(); err != nil {
		return challenge.Challenge{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.repo.CreateChallenge(ctx, c); err != nil {
		return challenge.Challenge{}, translateStoreError("create challenge", err)
	}
	c.Version = 1

	s.logger.InfoContext(ctx, "challenge created",
		"challenge_id", c.ID,
		"competition_id", c.CompetitionID,
		"week", c.WeekNumber,
	)
	s.notify(ctx)
	return c, nil
}

// EditChallenge replaces the challenge; its competition cannot change.
func (s *ContestService) EditChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.EditChallenge")
	defer span.End()

	current, err := s.GetChallenge(ctx, c.ID)
	if err != nil {
		return challenge.Challenge{}, err
	}
	if c.CompetitionID != "" && c.CompetitionID != current.CompetitionID {
		return challenge.Challenge{}, fmt.Errorf("%w: challenge competition cannot change", ErrInvalidInput)
	}
	c.CompetitionID = current.CompetitionID
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return challenge.Challenge{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.repo.UpdateChallenge(ctx, c)
	if err != nil {
		return challenge.Challenge{}, translateStoreError("edit challenge", err)
	}

	s.logger.InfoContext(ctx, "challenge updated", "challenge_id", updated.ID, "version", updated.Version)
	s.notify(ctx)
	return updated, nil
}

// DeleteChallenge removes only the challenge. Its submissions and their
// ratings are retained and keep counting toward player scores.
func (s *ContestService) DeleteChallenge(ctx context.Context, challengeID string) (challenge.Challenge, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.DeleteChallenge")
	defer span.End()

	current, err := s.GetChallenge(ctx, challengeID)
	if err != nil {
		return challenge.Challenge{}, err
	}
	if err := s.repo.DeleteChallenge(ctx, current.ID); err != nil {
		return challenge.Challenge{}, translateStoreError("delete challenge", err)
	}

	s.logger.InfoContext(ctx, "challenge deleted", "challenge_id", current.ID, "competition_id", current.CompetitionID)
	s.notify(ctx)
	return current, nil
}

// Submissions

func (s *ContestService) ListSubmissionsByChallenge(ctx context.Context, challengeID string) ([]submission.Submission, error) {
	items, err := s.repo.ListSubmissionsByChallenge(ctx, strings.TrimSpace(challengeID))
	if err != nil {
		return nil, translateStoreError("list submissions", err)
	}
	return items, nil
}

func (s *ContestService) ListSubmissionsByUser(ctx context.Context, userID string) ([]submission.Submission, error) {
	items, err := s.repo.ListSubmissionsByUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, translateStoreError("list user submissions", err)
	}
	return items, nil
}

func (s *ContestService) GetSubmission(ctx context.Context, submissionID string) (submission.Submission, error) {
	submissionID = strings.TrimSpace(submissionID)
	sub, ok, err := s.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return submission.Submission{}, translateStoreError("get submission", err)
	}
	if !ok {
		return submission.Submission{}, fmt.Errorf("%w: submission id=%s", ErrNotFound, submissionID)
	}
	return sub, nil
}

// CreateSubmission records an entry with a fresh id and timestamp. The author's
// per-challenge cap is checked atomically with the insert.
func (s *ContestService) CreateSubmission(ctx context.Context, input SubmissionInput) (submission.Submission, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.CreateSubmission")
	defer span.End()

	input.Link = strings.TrimSpace(input.Link)
	input.Note = strings.TrimSpace(input.Note)
	if err := submission.ValidateLink(input.Link); err != nil {
		return submission.Submission{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ch, err := s.GetChallenge(ctx, input.ChallengeID)
	if err != nil {
		return submission.Submission{}, err
	}
	maxPerUser := ch.MaxSubmissions
	if maxPerUser <= 0 {
		maxPerUser = challenge.DefaultMaxSubmissions
	}

	id, err := s.newID("sub")
	if err != nil {
		return submission.Submission{}, err
	}
	sub := submission.Submission{
		ID:          id,
		ChallengeID: ch.ID,
		UserID:      strings.TrimSpace(input.AuthorID),
		Link:        input.Link,
		Note:        input.Note,
		SubmittedAt: s.now().UTC(),
		Platform:    submission.DetectPlatform(input.Link),
	}
	if err := sub.Validate(); err != nil {
		return submission.Submission{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.repo.CreateSubmission(ctx, sub, maxPerUser); err != nil {
		return submission.Submission{}, translateStoreError("create submission", err)
	}

	s.logger.InfoContext(ctx, "submission created",
		"submission_id", sub.ID,
		"challenge_id", sub.ChallengeID,
		"user_id", sub.UserID,
		"platform", string(sub.Platform),
	)
	s.notify(ctx)
	return sub, nil
}

// RemainingSubmissions reports how many more entries userID may post to the challenge.
func (s *ContestService) RemainingSubmissions(ctx context.Context, ch challenge.Challenge, userID string) (int, error) {
	mine, err := s.repo.ListSubmissionsByUser(ctx, userID)
	if err != nil {
		return 0, translateStoreError("list user submissions", err)
	}
	used := 0
	for _, sub := range mine {
		if sub.ChallengeID == ch.ID {
			used++
		}
	}
	max := ch.MaxSubmissions
	if max <= 0 {
		max = challenge.DefaultMaxSubmissions
	}
	if used >= max {
		return 0, nil
	}
	return max - used, nil
}

// Ratings

func (s *ContestService) ListRatingsBySubmission(ctx context.Context, submissionID string) ([]rating.Rating, error) {
	items, err := s.repo.ListRatingsBySubmission(ctx, strings.TrimSpace(submissionID))
	if err != nil {
		return nil, translateStoreError("list ratings", err)
	}
	return items, nil
}

// RateSubmission upserts the rater's score for a submission. Scores outside
// [1,5] are rejected, never clamped, and authors cannot rate their own entries.
func (s *ContestService) RateSubmission(ctx context.Context, submissionID, raterID string, score int) (rating.Rating, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.RateSubmission")
	defer span.End()

	if err := rating.ValidateScore(score); err != nil {
		return rating.Rating{}, fmt.Errorf("%w: %w", ErrIntegrityViolation, err)
	}

	raterID = strings.TrimSpace(raterID)
	sub, err := s.GetSubmission(ctx, submissionID)
	if err != nil {
		return rating.Rating{}, err
	}
	if sub.UserID == raterID {
		return rating.Rating{}, fmt.Errorf("%w: cannot rate your own submission", ErrForbidden)
	}
	if _, err := s.GetUser(ctx, raterID); err != nil {
		return rating.Rating{}, err
	}

	id, err := s.newID("rate")
	if err != nil {
		return rating.Rating{}, err
	}
	now := s.now().UTC()
	candidate := rating.Rating{
		ID:            id,
		SubmissionID:  sub.ID,
		RatedByUserID: raterID,
		Score:         score,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := candidate.Validate(); err != nil {
		return rating.Rating{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	stored, created, err := s.repo.UpsertRating(ctx, candidate)
	if err != nil {
		return rating.Rating{}, translateStoreError("rate submission", err)
	}

	s.logger.InfoContext(ctx, "submission rated",
		"submission_id", stored.SubmissionID,
		"rater_id", raterID,
		"score", score,
		"created", created,
	)
	s.notify(ctx)
	return stored, nil
}

// Users

func (s *ContestService) ListUsers(ctx context.Context) ([]user.User, error) {
	items, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, translateStoreError("list users", err)
	}
	return items, nil
}

func (s *ContestService) GetUser(ctx context.Context, userID string) (user.User, error) {
	userID = strings.TrimSpace(userID)
	u, ok, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return user.User{}, translateStoreError("get user", err)
	}
	if !ok {
		return user.User{}, fmt.Errorf("%w: user id=%s", ErrNotFound, userID)
	}
	return u, nil
}

// Authenticate resolves a case-insensitive username and checks the password.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *ContestService) Authenticate(ctx context.Context, username, plain string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.Authenticate")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" || plain == "" {
		return user.User{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	u, ok, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return user.User{}, translateStoreError("find user", err)
	}
	if !ok {
		return user.User{}, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}
	if err := s.hasher.Compare(u.PasswordHash, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return user.User{}, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
		}
		return user.User{}, fmt.Errorf("verify password: %w", err)
	}

	at := s.now().UTC()
	if err := s.repo.TouchLogin(ctx, u.ID, at); err != nil {
		return user.User{}, translateStoreError("record login", err)
	}
	u.LastLoginAt = &at
	return u, nil
}

// CreateUser registers a level-1 player with an avatar seeded from the username.
// Usernames are not required to be unique.
func (s *ContestService) CreateUser(ctx context.Context, username, plain string) (user.User, error) {
	return s.createUser(ctx, username, plain, user.RolePlayer)
}

// EnsureSuperAdmin creates the super-admin account unless a user with that
// username already exists.
func (s *ContestService) EnsureSuperAdmin(ctx context.Context, username, plain string) (user.User, error) {
	existing, ok, err := s.repo.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return user.User{}, translateStoreError("find user", err)
	}
	if ok {
		return existing, nil
	}
	return s.createUser(ctx, username, plain, user.RoleSuperAdmin)
}

func (s *ContestService) createUser(ctx context.Context, username, plain string, role user.Role) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.CreateUser")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" {
		return user.User{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if strings.TrimSpace(plain) == "" {
		return user.User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return user.User{}, err
	}
	id, err := s.newID("user")
	if err != nil {
		return user.User{}, err
	}

	u := user.User{
		ID:           id,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Level:        1,
		XP:           0,
		CreatedAt:    s.now().UTC(),
		Version:      1,
	}
	if s.avatars != nil {
		u.Avatar = s.avatars.AvatarURL(username)
	}
	if err := u.Validate(); err != nil {
		return user.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return user.User{}, translateStoreError("create user", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", u.ID, "username", u.Username, "role", string(u.Role))
	s.notify(ctx)
	return u, nil
}

// EditUser renames a user in place.
func (s *ContestService) EditUser(ctx context.Context, userID, newUsername string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.EditUser")
	defer span.End()

	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return user.User{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	return s.updateUser(ctx, userID, func(u *user.User) { u.Username = newUsername })
}

// UpdateAvatar replaces the user's avatar reference.
func (s *ContestService) UpdateAvatar(ctx context.Context, userID, avatar string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.UpdateAvatar")
	defer span.End()

	avatar = strings.TrimSpace(avatar)
	if avatar == "" {
		return user.User{}, fmt.Errorf("%w: avatar is required", ErrInvalidInput)
	}

	return s.updateUser(ctx, userID, func(u *user.User) { u.Avatar = avatar })
}

func (s *ContestService) updateUser(ctx context.Context, userID string, mutate func(*user.User)) (user.User, error) {
	current, err := s.GetUser(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	mutate(&current)
	if err := current.Validate(); err != nil {
		return user.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.repo.UpdateUser(ctx, current)
	if err != nil {
		return user.User{}, translateStoreError("update user", err)
	}

	s.logger.InfoContext(ctx, "user updated", "user_id", updated.ID, "version", updated.Version)
	s.notify(ctx)
	return updated, nil
}

// DeleteUser removes the user with their submissions, the ratings they gave
// and the ratings their submissions received.
func (s *ContestService) DeleteUser(ctx context.Context, userID string) (contest.UserCascade, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ContestService.DeleteUser")
	defer span.End()

	cascade, err := s.repo.DeleteUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return contest.UserCascade{}, translateStoreError("delete user", err)
	}

	s.logger.InfoContext(ctx, "user deleted",
		"user_id", userID,
		"submissions_removed", len(cascade.SubmissionIDs),
		"ratings_removed", len(cascade.RatingIDs),
	)
	s.notify(ctx)
	return cascade, nil
}

func (s *ContestService) newID(prefix string) (string, error) {
	id, err := s.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", prefix, err)
	}
	return prefix + "-" + id, nil
}

func (s *ContestService) notify(ctx context.Context) {
	s.mu.RLock()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		l.ContestChanged(ctx)
	}
}
