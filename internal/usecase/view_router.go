package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/contest"
	"github.com/riskibarqy/creator-league/internal/domain/scoring"
	"github.com/riskibarqy/creator-league/internal/domain/submission"
	"github.com/riskibarqy/creator-league/internal/domain/user"
)

const recentLoginLimit = 10

// Projection is the read-only payload for one view. Exactly one of the view
// fields is set, matching View.
type Projection struct {
	View        View
	Home        *HomeProjection
	Competition *CompetitionProjection
	Challenge   *ChallengeProjection
	Leaderboard *LeaderboardProjection
	Profile     *ProfileProjection
	AdminUsers  *AdminUsersProjection
	SuperAdmin  *SuperAdminProjection
}

type HomeProjection struct {
	Competitions     []competition.Competition
	ActiveChallenges []challenge.Challenge
}

type ChallengeCard struct {
	Challenge challenge.Challenge
	Locked    bool
}

type CompetitionProjection struct {
	Competition competition.Competition
	Challenges  []ChallengeCard
}

type EntryView struct {
	Submission   submission.Submission
	Author       *user.User
	AverageScore float64
	RatingCount  int
	MyScore      int
}

type ChallengeProjection struct {
	Challenge            challenge.Challenge
	Entries              []EntryView
	MySubmissionCount    int
	RemainingSubmissions int
}

type LeaderboardProjection struct {
	Standings []scoring.Standing
}

type ProfileProjection struct {
	User        user.User
	Stats       scoring.PlayerStats
	Rank        int
	Submissions []submission.Submission
}

type UserRow struct {
	User  user.User
	Stats scoring.PlayerStats
}

type AdminUsersProjection struct {
	Users []UserRow
}

type PlatformCounters struct {
	TotalUsers         int
	Admins             int
	Players            int
	Competitions       int
	ActiveCompetitions int
	Submissions        int
	Ratings            int
}

type SuperAdminProjection struct {
	Counters     PlatformCounters
	RecentLogins []user.User
}

// ViewRouter dispatches a navigation state to its projection.
type ViewRouter struct {
	contests    *ContestService
	leaderboard *LeaderboardService
}

func NewViewRouter(contests *ContestService, leaderboard *LeaderboardService) *ViewRouter {
	return &ViewRouter{contests: contests, leaderboard: leaderboard}
}

// Render builds the projection for state. Views whose selection no longer
// resolves fall back to home.
func (r *ViewRouter) Render(ctx context.Context, state State) (Projection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ViewRouter.Render")
	defer span.End()

	if state.CurrentUser == nil {
		return Projection{}, fmt.Errorf("%w: sign in required", ErrUnauthorized)
	}
	viewer := *state.CurrentUser

	switch state.View {
	case ViewCompetition:
		p, err := r.competition(ctx, viewer, state.SelectedCompetitionID)
		if errors.Is(err, ErrNotFound) {
			return r.home(ctx)
		}
		return p, err
	case ViewChallenge:
		p, err := r.challenge(ctx, viewer, state.SelectedChallengeID)
		if errors.Is(err, ErrNotFound) {
			return r.home(ctx)
		}
		return p, err
	case ViewLeaderboard:
		return r.leaderboardView(ctx)
	case ViewProfile:
		return r.profile(ctx, viewer)
	case ViewAdminUsers:
		if !viewer.Role.IsAdmin() {
			return Projection{}, fmt.Errorf("%w: user management requires a leader", ErrForbidden)
		}
		return r.adminUsers(ctx)
	case ViewSuperAdmin:
		if viewer.Role != user.RoleSuperAdmin {
			return Projection{}, fmt.Errorf("%w: view requires a super-admin", ErrForbidden)
		}
		return r.superAdmin(ctx)
	default:
		return r.home(ctx)
	}
}

func (r *ViewRouter) home(ctx context.Context) (Projection, error) {
	snap, err := r.contests.Snapshot(ctx)
	if err != nil {
		return Projection{}, err
	}

	active := make([]challenge.Challenge, 0)
	for _, ch := range snap.Challenges {
		if ch.Status == challenge.StatusActive {
			active = append(active, ch)
		}
	}
	return Projection{
		View: ViewHome,
		Home: &HomeProjection{Competitions: snap.Competitions, ActiveChallenges: active},
	}, nil
}

func (r *ViewRouter) competition(ctx context.Context, viewer user.User, competitionID string) (Projection, error) {
	if competitionID == "" {
		return Projection{}, ErrNotFound
	}
	comp, err := r.contests.GetCompetition(ctx, competitionID)
	if err != nil {
		return Projection{}, err
	}
	items, err := r.contests.ListChallenges(ctx, comp.ID)
	if err != nil {
		return Projection{}, err
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].WeekNumber < items[j].WeekNumber })
	cards := make([]ChallengeCard, 0, len(items))
	for _, ch := range items {
		cards = append(cards, ChallengeCard{
			Challenge: ch,
			Locked:    ch.Status == challenge.StatusLocked && !viewer.Role.IsAdmin(),
		})
	}
	return Projection{
		View:        ViewCompetition,
		Competition: &CompetitionProjection{Competition: comp, Challenges: cards},
	}, nil
}

func (r *ViewRouter) challenge(ctx context.Context, viewer user.User, challengeID string) (Projection, error) {
	if challengeID == "" {
		return Projection{}, ErrNotFound
	}
	ch, err := r.contests.GetChallenge(ctx, challengeID)
	if err != nil {
		return Projection{}, err
	}
	snap, err := r.contests.Snapshot(ctx)
	if err != nil {
		return Projection{}, err
	}

	users := indexUsers(snap)
	scores := make(map[string][]int)
	mine := make(map[string]int)
	for _, rt := range snap.Ratings {
		scores[rt.SubmissionID] = append(scores[rt.SubmissionID], rt.Score)
		if rt.RatedByUserID == viewer.ID {
			mine[rt.SubmissionID] = rt.Score
		}
	}

	entries := make([]EntryView, 0)
	mySubmissions := 0
	for _, sub := range snap.Submissions {
		if sub.ChallengeID != ch.ID {
			continue
		}
		if sub.UserID == viewer.ID {
			mySubmissions++
		}
		entry := EntryView{Submission: sub, MyScore: mine[sub.ID], RatingCount: len(scores[sub.ID])}
		if author, ok := users[sub.UserID]; ok {
			entry.Author = &author
		}
		if entry.RatingCount > 0 {
			total := 0
			for _, s := range scores[sub.ID] {
				total += s
			}
			entry.AverageScore = float64(total) / float64(entry.RatingCount)
		}
		entries = append(entries, entry)
	}

	remaining := 0
	if viewer.Role == user.RolePlayer {
		remaining, err = r.contests.RemainingSubmissions(ctx, ch, viewer.ID)
		if err != nil {
			return Projection{}, err
		}
	}
	return Projection{
		View: ViewChallenge,
		Challenge: &ChallengeProjection{
			Challenge:            ch,
			Entries:              entries,
			MySubmissionCount:    mySubmissions,
			RemainingSubmissions: remaining,
		},
	}, nil
}

func (r *ViewRouter) leaderboardView(ctx context.Context) (Projection, error) {
	standings, err := r.leaderboard.Standings(ctx)
	if err != nil {
		return Projection{}, err
	}
	return Projection{View: ViewLeaderboard, Leaderboard: &LeaderboardProjection{Standings: standings}}, nil
}

func (r *ViewRouter) profile(ctx context.Context, viewer user.User) (Projection, error) {
	current, err := r.contests.GetUser(ctx, viewer.ID)
	if err != nil {
		return Projection{}, err
	}
	stats, err := r.leaderboard.PlayerStats(ctx, current.ID)
	if err != nil {
		return Projection{}, err
	}
	subs, err := r.contests.ListSubmissionsByUser(ctx, current.ID)
	if err != nil {
		return Projection{}, err
	}

	p := &ProfileProjection{User: current, Stats: stats, Submissions: subs}
	if row, ok, err := r.leaderboard.StandingFor(ctx, current.ID); err != nil {
		return Projection{}, err
	} else if ok {
		p.Rank = row.Rank
	}
	return Projection{View: ViewProfile, Profile: p}, nil
}

func (r *ViewRouter) adminUsers(ctx context.Context) (Projection, error) {
	snap, err := r.contests.Snapshot(ctx)
	if err != nil {
		return Projection{}, err
	}

	ix := scoring.NewIndex(snap.Submissions, snap.Ratings)
	rows := make([]UserRow, 0, len(snap.Users))
	for _, u := range snap.Users {
		rows = append(rows, UserRow{User: u, Stats: ix.Stats(u.ID)})
	}
	return Projection{View: ViewAdminUsers, AdminUsers: &AdminUsersProjection{Users: rows}}, nil
}

func (r *ViewRouter) superAdmin(ctx context.Context) (Projection, error) {
	snap, err := r.contests.Snapshot(ctx)
	if err != nil {
		return Projection{}, err
	}

	counters := PlatformCounters{
		TotalUsers:   len(snap.Users),
		Competitions: len(snap.Competitions),
		Submissions:  len(snap.Submissions),
		Ratings:      len(snap.Ratings),
	}
	logins := make([]user.User, 0)
	for _, u := range snap.Users {
		switch u.Role {
		case user.RoleLeader:
			counters.Admins++
		case user.RolePlayer:
			counters.Players++
		}
		if u.LastLoginAt != nil {
			logins = append(logins, u)
		}
	}
	for _, c := range snap.Competitions {
		if c.Status == competition.StatusActive {
			counters.ActiveCompetitions++
		}
	}

	sort.SliceStable(logins, func(i, j int) bool { return logins[i].LastLoginAt.After(*logins[j].LastLoginAt) })
	if len(logins) > recentLoginLimit {
		logins = logins[:recentLoginLimit]
	}
	return Projection{
		View:       ViewSuperAdmin,
		SuperAdmin: &SuperAdminProjection{Counters: counters, RecentLogins: logins},
	}, nil
}

func indexUsers(snap contest.Snapshot) map[string]user.User {
	out := make(map[string]user.User, len(snap.Users))
	for _, u := range snap.Users {
		out[u.ID] = u
	}
	return out
}
