package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/rating"
	"github.com/riskibarqy/creator-league/internal/domain/submission"
	"github.com/riskibarqy/creator-league/internal/domain/user"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
)

type View string

const (
	ViewHome        View = "home"
	ViewCompetition View = "competition"
	ViewChallenge   View = "challenge"
	ViewLeaderboard View = "leaderboard"
	ViewProfile     View = "profile"
	ViewAdminUsers  View = "admin-users"
	ViewSuperAdmin  View = "super-admin"
)

func (v View) Valid() bool {
	switch v {
	case ViewHome, ViewCompetition, ViewChallenge, ViewLeaderboard, ViewProfile, ViewAdminUsers, ViewSuperAdmin:
		return true
	default:
		return false
	}
}

// State is the navigation state of one session.
type State struct {
	CurrentUser           *user.User
	View                  View
	SelectedCompetitionID string
	SelectedChallengeID   string
}

func (s State) Authenticated() bool {
	return s.CurrentUser != nil
}

func (s State) clone() State {
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		s.CurrentUser = &u
	}
	return s
}

// Confirmer answers the yes/no question guarding destructive operations.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Confirmed is a Confirmer with a fixed answer.
func Confirmed(answer bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return answer })
}

// NavigateInput selects a view. Empty ids keep the current selection.
type NavigateInput struct {
	View          View
	CompetitionID string
	ChallengeID   string
}

// Session is the per-user controller: it holds navigation state, enforces
// role gates and routes every mutation to the store. Calls are serialized.
type Session struct {
	mu       sync.Mutex
	contests *ContestService
	feedback *FeedbackService
	logger   *logging.Logger
	state    State
}

func NewSession(contests *ContestService, feedback *FeedbackService, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.Default()
	}

	return &Session{
		contests: contests,
		feedback: feedback,
		logger:   logger,
		state:    State{View: ViewHome},
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Login authenticates and lands on home, or on the super-admin view for
// super-admins. A failed login leaves the state untouched.
func (s *Session) Login(ctx context.Context, username, plain string) (State, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Session.Login")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.contests.Authenticate(ctx, username, plain)
	if err != nil {
		return s.state.clone(), err
	}

	view := ViewHome
	if u.Role == user.RoleSuperAdmin {
		view = ViewSuperAdmin
	}
	s.state = State{CurrentUser: &u, View: view}

	s.logger.InfoContext(ctx, "session started", "user_id", u.ID, "role", string(u.Role))
	return s.state.clone(), nil
}

// Logout clears the user and every selection.
func (s *Session) Logout(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentUser != nil {
		s.logger.InfoContext(ctx, "session ended", "user_id", s.state.CurrentUser.ID)
	}
	s.state = State{View: ViewHome}
	return s.state.clone()
}

// Navigate sets the view and overwrites any selection that is supplied.
// Selections are sticky otherwise.
func (s *Session) Navigate(ctx context.Context, in NavigateInput) (State, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Session.Navigate")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	actor, err := s.requireUser()
	if err != nil {
		return s.state.clone(), err
	}
	if !in.View.Valid() {
		return s.state.clone(), fmt.Errorf("%w: unknown view %q", ErrInvalidInput, in.View)
	}
	switch in.View {
	case ViewAdminUsers:
		if !actor.Role.IsAdmin() {
			return s.state.clone(), fmt.Errorf("%w: user management requires a leader", ErrForbidden)
		}
	case ViewSuperAdmin:
		if actor.Role != user.RoleSuperAdmin {
			return s.state.clone(), fmt.Errorf("%w: view requires a super-admin", ErrForbidden)
		}
	}

	next := s.state
	next.View = in.View

	if id := strings.TrimSpace(in.CompetitionID); id != "" {
		if _, err := s.contests.GetCompetition(ctx, id); err != nil {
			return s.state.clone(), err
		}
		next.SelectedCompetitionID = id
	}
	if id := strings.TrimSpace(in.ChallengeID); id != "" {
		ch, err := s.contests.GetChallenge(ctx, id)
		if err != nil {
			return s.state.clone(), err
		}
		if ch.Status == challenge.StatusLocked && !actor.Role.IsAdmin() {
			return s.state.clone(), fmt.Errorf("%w: challenge %s is locked", ErrForbidden, ch.ID)
		}
		next.SelectedChallengeID = ch.ID
		next.SelectedCompetitionID = ch.CompetitionID
	}

	if next.View == ViewCompetition {
		if err := s.ensureCompetitionSelected(ctx, &next); err != nil {
			return s.state.clone(), err
		}
	}

	s.state = next
	return s.state.clone(), nil
}

// ensureCompetitionSelected falls back to the first active competition when
// the selection is empty or stale.
func (s *Session) ensureCompetitionSelected(ctx context.Context, st *State) error {
	if st.SelectedCompetitionID != "" {
		if _, err := s.contests.GetCompetition(ctx, st.SelectedCompetitionID); err == nil {
			return nil
		}
	}

	items, err := s.contests.ListCompetitions(ctx)
	if err != nil {
		return err
	}
	st.SelectedCompetitionID = ""
	for _, c := range items {
		if c.Status == competition.StatusActive {
			st.SelectedCompetitionID = c.ID
			return nil
		}
	}
	return nil
}

// Competitions

func (s *Session) CreateCompetition(ctx context.Context, c competition.Competition) (competition.Competition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin("create competition"); err != nil {
		return competition.Competition{}, err
	}
	return s.contests.CreateCompetition(ctx, c)
}

func (s *Session) EditCompetition(ctx context.Context, c competition.Competition) (competition.Competition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin("edit competition"); err != nil {
		return competition.Competition{}, err
	}
	return s.contests.EditCompetition(ctx, c)
}

// DeleteCompetition removes a competition and its challenges once confirmed.
// If the deleted competition was selected, the session returns home.
func (s *Session) DeleteCompetition(ctx context.Context, competitionID string, confirm Confirmer) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin("delete competition"); err != nil {
		return s.state.clone(), err
	}
	current, err := s.contests.GetCompetition(ctx, competitionID)
	if err != nil {
		return s.state.clone(), err
	}
	if !s.confirm(ctx, confirm, fmt.Sprintf("Delete competition %q and all of its challenges?", current.Title)) {
		return s.state.clone(), fmt.Errorf("%w: delete competition %s", ErrNotConfirmed, current.ID)
	}

	cascade, err := s.contests.DeleteCompetition(ctx, current.ID)
	if err != nil {
		return s.state.clone(), err
	}

	selectedChallengeGone := false
	for _, id := range cascade.ChallengeIDs {
		if id == s.state.SelectedChallengeID {
			selectedChallengeGone = true
			break
		}
	}
	if s.state.SelectedCompetitionID == current.ID || selectedChallengeGone {
		s.state.SelectedCompetitionID = ""
		s.state.SelectedChallengeID = ""
		s.state.View = ViewHome
	}
	return s.state.clone(), nil
}

// Challenges

func (s *Session) CreateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin("create challenge"); err != nil {
		return challenge.Challenge{}, err
	}
	return s.contests.CreateChallenge(ctx, c)
}

func (s *Session) EditChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin("edit challenge"); err != nil {
		return challenge.Challenge{}, err
	}
	return s.contests.EditChallenge(ctx, c)
}

// DeleteChallenge removes one challenge once confirmed. Its submissions are kept.
func (s *Session) DeleteChallenge(ctx context.Context, challengeID string, confirm Confirmer) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin("delete challenge"); err != nil {
		return s.state.clone(), err
	}
	current, err := s.contests.GetChallenge(ctx, challengeID)
	if err != nil {
		return s.state.clone(), err
	}
	if !s.confirm(ctx, confirm, fmt.Sprintf("Delete challenge %q?", current.Title)) {
		return s.state.clone(), fmt.Errorf("%w: delete challenge %s", ErrNotConfirmed, current.ID)
	}

	if _, err := s.contests.DeleteChallenge(ctx, current.ID); err != nil {
		return s.state.clone(), err
	}
	if s.state.SelectedChallengeID == current.ID {
		s.state.SelectedChallengeID = ""
		s.state.View = ViewHome
	}
	return s.state.clone(), nil
}

// Entries

// SubmitEntry posts a link for the signed-in player.
func (s *Session) SubmitEntry(ctx context.Context, challengeID, link, note string) (submission.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, err := s.requireUser()
	if err != nil {
		return submission.Submission{}, err
	}
	if actor.Role != user.RolePlayer {
		return submission.Submission{}, fmt.Errorf("%w: only players can submit entries", ErrForbidden)
	}
	ch, err := s.contests.GetChallenge(ctx, challengeID)
	if err != nil {
		return submission.Submission{}, err
	}
	if !ch.AcceptsSubmissions() {
		return submission.Submission{}, fmt.Errorf("%w: challenge %s is locked", ErrForbidden, ch.ID)
	}

	return s.contests.CreateSubmission(ctx, SubmissionInput{
		ChallengeID: ch.ID,
		AuthorID:    actor.ID,
		Link:        link,
		Note:        note,
	})
}

// RateSubmission records the signed-in user's score for a submission.
func (s *Session) RateSubmission(ctx context.Context, submissionID string, score int) (rating.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, err := s.requireUser()
	if err != nil {
		return rating.Rating{}, err
	}
	return s.contests.RateSubmission(ctx, submissionID, actor.ID, score)
}

// RequestFeedback asks the coach about a submission.
func (s *Session) RequestFeedback(ctx context.Context, submissionID string) (Feedback, error) {
	s.mu.Lock()
	actor, err := s.requireUser()
	s.mu.Unlock()
	if err != nil {
		return Feedback{}, err
	}
	sub, err := s.contests.GetSubmission(ctx, submissionID)
	if err != nil {
		return Feedback{}, err
	}
	if sub.UserID != actor.ID && !actor.Role.IsAdmin() {
		return Feedback{}, fmt.Errorf("%w: feedback is only available to the author", ErrForbidden)
	}
	if s.feedback == nil {
		return Feedback{SubmissionID: sub.ID, Text: FeedbackMissingKey, Fallback: true}, nil
	}
	return s.feedback.RequestFeedback(ctx, sub.ID)
}

// Users

func (s *Session) CreateUser(ctx context.Context, username, plain string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin("create user"); err != nil {
		return user.User{}, err
	}
	return s.contests.CreateUser(ctx, username, plain)
}

func (s *Session) EditUser(ctx context.Context, userID, newUsername string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, err := s.requireAdmin("edit user")
	if err != nil {
		return user.User{}, err
	}
	if err := s.guardTarget(ctx, actor, userID); err != nil {
		return user.User{}, err
	}

	updated, err := s.contests.EditUser(ctx, userID, newUsername)
	if err != nil {
		return user.User{}, err
	}
	s.refreshCurrentUser(updated)
	return updated, nil
}

// DeleteUser removes a user and everything they authored once confirmed.
func (s *Session) DeleteUser(ctx context.Context, userID string, confirm Confirmer) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, err := s.requireAdmin("delete user")
	if err != nil {
		return s.state.clone(), err
	}
	if strings.TrimSpace(userID) == actor.ID {
		return s.state.clone(), fmt.Errorf("%w: cannot delete the signed-in user", ErrForbidden)
	}
	if err := s.guardTarget(ctx, actor, userID); err != nil {
		return s.state.clone(), err
	}
	target, err := s.contests.GetUser(ctx, userID)
	if err != nil {
		return s.state.clone(), err
	}
	if !s.confirm(ctx, confirm, fmt.Sprintf("Delete user %q with all of their submissions and ratings?", target.Username)) {
		return s.state.clone(), fmt.Errorf("%w: delete user %s", ErrNotConfirmed, target.ID)
	}

	if _, err := s.contests.DeleteUser(ctx, target.ID); err != nil {
		return s.state.clone(), err
	}
	return s.state.clone(), nil
}

// UpdateAvatar changes the signed-in user's avatar.
func (s *Session) UpdateAvatar(ctx context.Context, avatar string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, err := s.requireUser()
	if err != nil {
		return user.User{}, err
	}
	updated, err := s.contests.UpdateAvatar(ctx, actor.ID, avatar)
	if err != nil {
		return user.User{}, err
	}
	s.refreshCurrentUser(updated)
	return updated, nil
}

func (s *Session) requireUser() (user.User, error) {
	if s.state.CurrentUser == nil {
		return user.User{}, fmt.Errorf("%w: sign in required", ErrUnauthorized)
	}
	return *s.state.CurrentUser, nil
}

// RequireAdmin fails with ErrUnauthorized or ErrForbidden unless a leader is
// signed in. Callers use it to gate an action before touching the store.
func (s *Session) RequireAdmin(action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.requireAdmin(action)
	return err
}

func (s *Session) requireAdmin(action string) (user.User, error) {
	actor, err := s.requireUser()
	if err != nil {
		return user.User{}, err
	}
	if !actor.Role.IsAdmin() {
		return user.User{}, fmt.Errorf("%w: %s requires a leader", ErrForbidden, action)
	}
	return actor, nil
}

// guardTarget keeps leaders from managing super-admin accounts.
func (s *Session) guardTarget(ctx context.Context, actor user.User, userID string) error {
	target, err := s.contests.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if target.Role == user.RoleSuperAdmin && actor.Role != user.RoleSuperAdmin {
		return fmt.Errorf("%w: super-admin accounts are managed by super-admins", ErrForbidden)
	}
	return nil
}

func (s *Session) confirm(ctx context.Context, confirm Confirmer, prompt string) bool {
	if confirm == nil {
		return false
	}
	return confirm.Confirm(ctx, prompt)
}

func (s *Session) refreshCurrentUser(u user.User) {
	if s.state.CurrentUser != nil && s.state.CurrentUser.ID == u.ID {
		s.state.CurrentUser = &u
	}
}
