package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/user"
	"github.com/riskibarqy/creator-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
)

func TestSession_LoginAndLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	s := NewSession(f.contests, nil, logging.NewNop())

	if st := s.State(); st.Authenticated() || st.View != ViewHome {
		t.Fatalf("unexpected initial state: %+v", st)
	}

	if _, err := s.Login(ctx, "nobody", "123"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if s.State().Authenticated() {
		t.Fatalf("failed login must not change state")
	}

	st, err := s.Login(ctx, "pixelqueen", memory.SeedPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if st.CurrentUser.ID != "u2" || st.View != ViewHome {
		t.Fatalf("unexpected state after login: %+v", st)
	}

	if _, err := s.Navigate(ctx, NavigateInput{View: ViewChallenge, ChallengeID: "c1"}); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	st = s.Logout(ctx)
	if st.Authenticated() || st.SelectedChallengeID != "" || st.SelectedCompetitionID != "" || st.View != ViewHome {
		t.Fatalf("logout must clear everything, got %+v", st)
	}
}

func TestSession_SuperAdminLandsOnElevatedView(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.contests.EnsureSuperAdmin(ctx, "root", "toor"); err != nil {
		t.Fatalf("ensure super admin: %v", err)
	}

	s := NewSession(f.contests, nil, logging.NewNop())
	st, err := s.Login(ctx, "root", "toor")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if st.View != ViewSuperAdmin {
		t.Fatalf("expected super-admin view, got %s", st.View)
	}
}

func TestSession_NavigateSelectionsAreSticky(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, "ShadowBlade")

	st, err := s.Navigate(ctx, NavigateInput{View: ViewChallenge, ChallengeID: "c2"})
	if err != nil {
		t.Fatalf("navigate to challenge: %v", err)
	}
	if st.SelectedChallengeID != "c2" || st.SelectedCompetitionID != memory.CompetitionIDNovember {
		t.Fatalf("challenge selection should select its competition, got %+v", st)
	}

	if _, err := s.Navigate(ctx, NavigateInput{View: ViewLeaderboard}); err != nil {
		t.Fatalf("navigate to leaderboard: %v", err)
	}
	st, err = s.Navigate(ctx, NavigateInput{View: ViewChallenge})
	if err != nil {
		t.Fatalf("navigate back: %v", err)
	}
	if st.SelectedChallengeID != "c2" {
		t.Fatalf("selection should be sticky, got %+v", st)
	}
}

func TestSession_NavigateGuards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	player := f.session(t, "ShadowBlade")
	leader := f.session(t, "3mmo")

	tests := []struct {
		name    string
		session *Session
		input   NavigateInput
		want    error
	}{
		{"unknown view", player, NavigateInput{View: "lobby"}, ErrInvalidInput},
		{"player to admin users", player, NavigateInput{View: ViewAdminUsers}, ErrForbidden},
		{"leader to super admin", leader, NavigateInput{View: ViewSuperAdmin}, ErrForbidden},
		{"missing competition", player, NavigateInput{View: ViewCompetition, CompetitionID: "comp-missing"}, ErrNotFound},
		{"missing challenge", player, NavigateInput{View: ViewChallenge, ChallengeID: "c9"}, ErrNotFound},
		{"player opens locked challenge", player, NavigateInput{View: ViewChallenge, ChallengeID: "c3"}, ErrForbidden},
	}
	for _, tc := range tests {
		before := tc.session.State()
		_, err := tc.session.Navigate(ctx, tc.input)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if after := tc.session.State(); after.View != before.View || after.SelectedChallengeID != before.SelectedChallengeID {
			t.Fatalf("%s: rejected navigation changed state", tc.name)
		}
	}

	if _, err := leader.Navigate(ctx, NavigateInput{View: ViewChallenge, ChallengeID: "c3"}); err != nil {
		t.Fatalf("leader may open locked challenge: %v", err)
	}
	if _, err := leader.Navigate(ctx, NavigateInput{View: ViewAdminUsers}); err != nil {
		t.Fatalf("leader may manage users: %v", err)
	}

	anonymous := NewSession(f.contests, nil, logging.NewNop())
	if _, err := anonymous.Navigate(ctx, NavigateInput{View: ViewLeaderboard}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSession_CompetitionViewAutoSelectsActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, "NeonNinja")

	st, err := s.Navigate(ctx, NavigateInput{View: ViewCompetition})
	if err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if st.SelectedCompetitionID != memory.CompetitionIDNovember {
		t.Fatalf("expected the active competition to be selected, got %q", st.SelectedCompetitionID)
	}

	st, err = s.Navigate(ctx, NavigateInput{View: ViewCompetition, CompetitionID: memory.CompetitionIDDecember})
	if err != nil || st.SelectedCompetitionID != memory.CompetitionIDDecember {
		t.Fatalf("explicit selection should win, got %+v err=%v", st, err)
	}
}

func TestSession_PlayerCannotRunLeaderMutations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, "ShadowBlade")

	before, _ := f.contests.Snapshot(ctx)

	checks := []struct {
		name string
		run  func() error
	}{
		{"create competition", func() error {
			_, err := s.CreateCompetition(ctx, competition.Competition{Title: "Rogue"})
			return err
		}},
		{"edit competition", func() error {
			_, err := s.EditCompetition(ctx, competition.Competition{ID: memory.CompetitionIDNovember, Title: "Rogue"})
			return err
		}},
		{"delete competition", func() error {
			_, err := s.DeleteCompetition(ctx, memory.CompetitionIDNovember, Confirmed(true))
			return err
		}},
		{"create challenge", func() error {
			_, err := s.CreateChallenge(ctx, challenge.Challenge{CompetitionID: memory.CompetitionIDNovember, Title: "Rogue", WeekNumber: 4})
			return err
		}},
		{"delete challenge", func() error {
			_, err := s.DeleteChallenge(ctx, "c1", Confirmed(true))
			return err
		}},
		{"create user", func() error {
			_, err := s.CreateUser(ctx, "Sneaky", "pw")
			return err
		}},
		{"edit user", func() error {
			_, err := s.EditUser(ctx, "u2", "Renamed")
			return err
		}},
		{"delete user", func() error {
			_, err := s.DeleteUser(ctx, "u2", Confirmed(true))
			return err
		}},
	}
	for _, c := range checks {
		if err := c.run(); !errors.Is(err, ErrForbidden) {
			t.Fatalf("%s: expected forbidden, got %v", c.name, err)
		}
	}

	after, _ := f.contests.Snapshot(ctx)
	if len(after.Users) != len(before.Users) ||
		len(after.Competitions) != len(before.Competitions) ||
		len(after.Challenges) != len(before.Challenges) ||
		after.Competitions[0].Title != before.Competitions[0].Title ||
		after.Users[2].Username != before.Users[2].Username {
		t.Fatalf("rejected mutations must not change the store")
	}
}

func TestSession_DeleteRequiresConfirmation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, "3mmo")

	asked := ""
	declined := ConfirmFunc(func(_ context.Context, prompt string) bool {
		asked = prompt
		return false
	})
	if _, err := s.DeleteCompetition(ctx, memory.CompetitionIDNovember, declined); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected not confirmed, got %v", err)
	}
	if asked == "" {
		t.Fatalf("confirmer was not consulted")
	}
	if _, err := s.DeleteUser(ctx, "u1", nil); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("nil confirmer must decline, got %v", err)
	}
	if _, err := f.contests.GetCompetition(ctx, memory.CompetitionIDNovember); err != nil {
		t.Fatalf("declined delete must keep the competition: %v", err)
	}
}

func TestSession_DeletingSelectedCompetitionReturnsHome(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, "3mmo")

	if _, err := s.Navigate(ctx, NavigateInput{View: ViewChallenge, ChallengeID: "c2"}); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	st, err := s.DeleteCompetition(ctx, memory.CompetitionIDNovember, Confirmed(true))
	if err != nil {
		t.Fatalf("delete competition: %v", err)
	}
	if st.View != ViewHome || st.SelectedCompetitionID != "" || st.SelectedChallengeID != "" {
		t.Fatalf("expected selections cleared and home view, got %+v", st)
	}
}

func TestSession_DeletingOtherCompetitionKeepsSelection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, "3mmo")

	if _, err := s.Navigate(ctx, NavigateInput{View: ViewChallenge, ChallengeID: "c1"}); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	st, err := s.DeleteCompetition(ctx, memory.CompetitionIDDecember, Confirmed(true))
	if err != nil {
		t.Fatalf("delete competition: %v", err)
	}
	if st.View != ViewChallenge || st.SelectedChallengeID != "c1" {
		t.Fatalf("unrelated delete must not move the session, got %+v", st)
	}
}

func TestSession_DeletingSelectedChallengeReturnsHome(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, "3mmo")

	if _, err := s.Navigate(ctx, NavigateInput{View: ViewChallenge, ChallengeID: "c1"}); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	st, err := s.DeleteChallenge(ctx, "c1", Confirmed(true))
	if err != nil {
		t.Fatalf("delete challenge: %v", err)
	}
	if st.View != ViewHome || st.SelectedChallengeID != "" {
		t.Fatalf("expected home with cleared challenge, got %+v", st)
	}
	if st.SelectedCompetitionID != memory.CompetitionIDNovember {
		t.Fatalf("competition selection should survive, got %q", st.SelectedCompetitionID)
	}
}

func TestSession_SubmitEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	player := f.session(t, "GlitchMage")
	leader := f.session(t, "3mmo")

	sub, err := player.SubmitEntry(ctx, "c2", "https://www.instagram.com/reel/xyz", "reverb test")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.UserID != "u3" {
		t.Fatalf("entry must be attributed to the signed-in player, got %s", sub.UserID)
	}

	if _, err := leader.SubmitEntry(ctx, "c2", "https://tiktok.com/x", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("leaders cannot submit, got %v", err)
	}
	if _, err := player.SubmitEntry(ctx, "c3", "https://tiktok.com/x", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("locked challenge must reject entries, got %v", err)
	}
	if _, err := player.SubmitEntry(ctx, "c1", "https://tiktok.com/1", ""); err != nil {
		t.Fatalf("first entry on c1: %v", err)
	}
	if _, err := player.SubmitEntry(ctx, "c1", "https://tiktok.com/2", ""); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected capacity exceeded, got %v", err)
	}
}

func TestSession_RateAndAvatar(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, "NeonNinja")

	r, err := s.RateSubmission(ctx, "s1", 3)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if r.RatedByUserID != "u4" {
		t.Fatalf("rating must be attributed to the signed-in user, got %s", r.RatedByUserID)
	}

	u, err := s.UpdateAvatar(ctx, "https://avatars.test/ninja-2")
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if s.State().CurrentUser.Avatar != u.Avatar {
		t.Fatalf("session user should reflect the new avatar")
	}
}

func TestSession_UserManagement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	leader := f.session(t, "3mmo")

	created, err := leader.CreateUser(ctx, "FreshCut", "pw")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.Role != user.RolePlayer {
		t.Fatalf("created users are players, got %s", created.Role)
	}
	if _, err := leader.EditUser(ctx, created.ID, "FreshCutPro"); err != nil {
		t.Fatalf("edit user: %v", err)
	}
	if _, err := leader.DeleteUser(ctx, "3mmo", Confirmed(true)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("deleting yourself must be refused, got %v", err)
	}
	if _, err := leader.DeleteUser(ctx, created.ID, Confirmed(true)); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	root, err := f.contests.EnsureSuperAdmin(ctx, "root", "toor")
	if err != nil {
		t.Fatalf("ensure super admin: %v", err)
	}
	if _, err := leader.DeleteUser(ctx, root.ID, Confirmed(true)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("leaders cannot remove super-admins, got %v", err)
	}
}

func TestSession_RequestFeedbackWithoutCoach(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	s := f.session(t, "ShadowBlade")

	fb, err := s.RequestFeedback(ctx, "s1")
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if !fb.Fallback || fb.Text != FeedbackMissingKey {
		t.Fatalf("expected missing-key fallback, got %+v", fb)
	}
}
