package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/rating"
	"github.com/riskibarqy/creator-league/internal/domain/scoring"
	"github.com/riskibarqy/creator-league/internal/domain/submission"
	"github.com/riskibarqy/creator-league/internal/domain/user"
	"github.com/riskibarqy/creator-league/internal/usecase"
)

func decodeJSON(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// confirmFromQuery answers destructive prompts from ?confirm=true.
func confirmFromQuery(r *http.Request) usecase.Confirmer {
	ok, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("confirm")))
	return usecase.Confirmed(err == nil && ok)
}

func pathID(r *http.Request, name string) (string, error) {
	id := strings.TrimSpace(r.PathValue(name))
	if id == "" {
		return "", fmt.Errorf("%w: %s is required", usecase.ErrInvalidInput, name)
	}
	return id, nil
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type navigateRequest struct {
	View          string `json:"view" validate:"required,oneof=home competition challenge leaderboard profile admin-users super-admin"`
	CompetitionID string `json:"competition_id" validate:"omitempty,max=64"`
	ChallengeID   string `json:"challenge_id" validate:"omitempty,max=64"`
}

type createCompetitionRequest struct {
	Title         string `json:"title" validate:"required,max=120"`
	Description   string `json:"description" validate:"omitempty,max=2000"`
	StartDate     string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Status        string `json:"status" validate:"omitempty,oneof=upcoming active completed"`
	Theme         string `json:"theme" validate:"omitempty,max=120"`
	Prize         string `json:"prize" validate:"omitempty,max=200"`
	BackgroundURL string `json:"background_url" validate:"omitempty,url"`
}

type editCompetitionRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=120"`
	Description   *string `json:"description" validate:"omitempty,max=2000"`
	StartDate     *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Status        *string `json:"status" validate:"omitempty,oneof=upcoming active completed"`
	Theme         *string `json:"theme" validate:"omitempty,max=120"`
	Prize         *string `json:"prize" validate:"omitempty,max=200"`
	BackgroundURL *string `json:"background_url" validate:"omitempty,url"`
	Version       int64   `json:"version" validate:"gte=0"`
}

type createChallengeRequest struct {
	Title          string     `json:"title" validate:"required,max=120"`
	Description    string     `json:"description" validate:"omitempty,max=2000"`
	Criteria       []string   `json:"criteria" validate:"omitempty,dive,max=200"`
	WeekNumber     int        `json:"week_number" validate:"required,gt=0"`
	Status         string     `json:"status" validate:"omitempty,oneof=upcoming active rating locked completed"`
	Rules          []string   `json:"rules" validate:"omitempty,dive,max=200"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	MaxSubmissions int        `json:"max_submissions" validate:"omitempty,gt=0"`
	BackgroundURL  string     `json:"background_url" validate:"omitempty,url"`
}

type editChallengeRequest struct {
	Title          *string    `json:"title" validate:"omitempty,min=1,max=120"`
	Description    *string    `json:"description" validate:"omitempty,max=2000"`
	Criteria       []string   `json:"criteria" validate:"omitempty,dive,max=200"`
	WeekNumber     *int       `json:"week_number" validate:"omitempty,gt=0"`
	Status         *string    `json:"status" validate:"omitempty,oneof=upcoming active rating locked completed"`
	Rules          []string   `json:"rules" validate:"omitempty,dive,max=200"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	MaxSubmissions *int       `json:"max_submissions" validate:"omitempty,gt=0"`
	BackgroundURL  *string    `json:"background_url" validate:"omitempty,url"`
	Version        int64      `json:"version" validate:"gte=0"`
}

type submitEntryRequest struct {
	Link string `json:"link" validate:"required,url,max=500"`
	Note string `json:"note" validate:"omitempty,max=500"`
}

// Score range is checked by the store; out-of-range values are integrity violations.
type rateSubmissionRequest struct {
	Score *int `json:"score" validate:"required"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=40"`
	Password string `json:"password" validate:"required,max=72"`
}

type editUserRequest struct {
	Username string `json:"username" validate:"required,max=40"`
}

type updateAvatarRequest struct {
	Avatar string `json:"avatar" validate:"required,url"`
}

func (req createCompetitionRequest) toDomain() (competition.Competition, error) {
	start, err := competition.ParseDate(req.StartDate)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	end, err := competition.ParseDate(req.EndDate)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	return competition.Competition{
		Title:         req.Title,
		Description:   req.Description,
		StartDate:     start,
		EndDate:       end,
		Status:        competition.Status(req.Status),
		Theme:         req.Theme,
		Prize:         req.Prize,
		BackgroundURL: req.BackgroundURL,
	}, nil
}

// apply overlays the supplied fields on the current competition.
func (req editCompetitionRequest) apply(current competition.Competition) (competition.Competition, error) {
	next := current
	next.Version = req.Version
	if req.Title != nil {
		next.Title = *req.Title
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.StartDate != nil {
		start, err := competition.ParseDate(*req.StartDate)
		if err != nil {
			return competition.Competition{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
		}
		next.StartDate = start
	}
	if req.EndDate != nil {
		end, err := competition.ParseDate(*req.EndDate)
		if err != nil {
			return competition.Competition{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
		}
		next.EndDate = end
	}
	if req.Status != nil {
		next.Status = competition.Status(*req.Status)
	}
	if req.Theme != nil {
		next.Theme = *req.Theme
	}
	if req.Prize != nil {
		next.Prize = *req.Prize
	}
	if req.BackgroundURL != nil {
		next.BackgroundURL = *req.BackgroundURL
	}
	return next, nil
}

func (req createChallengeRequest) toDomain(competitionID string) challenge.Challenge {
	return challenge.Challenge{
		CompetitionID:  competitionID,
		Title:          req.Title,
		Description:    req.Description,
		Criteria:       req.Criteria,
		WeekNumber:     req.WeekNumber,
		Status:         challenge.Status(req.Status),
		Rules:          req.Rules,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		MaxSubmissions: req.MaxSubmissions,
		BackgroundURL:  req.BackgroundURL,
	}
}

func (req editChallengeRequest) apply(current challenge.Challenge) challenge.Challenge {
	next := current.Clone()
	next.Version = req.Version
	if req.Title != nil {
		next.Title = *req.Title
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.Criteria != nil {
		next.Criteria = req.Criteria
	}
	if req.WeekNumber != nil {
		next.WeekNumber = *req.WeekNumber
	}
	if req.Status != nil {
		next.Status = challenge.Status(*req.Status)
	}
	if req.Rules != nil {
		next.Rules = req.Rules
	}
	if req.StartDate != nil {
		next.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		next.EndDate = req.EndDate
	}
	if req.MaxSubmissions != nil {
		next.MaxSubmissions = *req.MaxSubmissions
	}
	if req.BackgroundURL != nil {
		next.BackgroundURL = *req.BackgroundURL
	}
	return next
}

type userDTO struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Avatar      string     `json:"avatar"`
	Role        string     `json:"role"`
	Level       int        `json:"level"`
	XP          int        `json:"xp"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	Version     int64      `json:"version"`
}

type sessionDTO struct {
	User                  *userDTO `json:"user,omitempty"`
	View                  string   `json:"view"`
	SelectedCompetitionID string   `json:"selected_competition_id,omitempty"`
	SelectedChallengeID   string   `json:"selected_challenge_id,omitempty"`
}

type loginDTO struct {
	Token   string     `json:"token"`
	User    userDTO    `json:"user"`
	Session sessionDTO `json:"session"`
}

type competitionDTO struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	StartDate     string    `json:"start_date,omitempty"`
	EndDate       string    `json:"end_date,omitempty"`
	Status        string    `json:"status"`
	Theme         string    `json:"theme,omitempty"`
	Prize         string    `json:"prize,omitempty"`
	BackgroundURL string    `json:"background_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Version       int64     `json:"version"`
}

type challengeDTO struct {
	ID             string     `json:"id"`
	CompetitionID  string     `json:"competition_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Criteria       []string   `json:"criteria"`
	WeekNumber     int        `json:"week_number"`
	Status         string     `json:"status"`
	Rules          []string   `json:"rules"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	MaxSubmissions int        `json:"max_submissions"`
	BackgroundURL  string     `json:"background_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	Version        int64      `json:"version"`
}

type submissionDTO struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challenge_id"`
	UserID      string    `json:"user_id"`
	Link        string    `json:"link"`
	Note        string    `json:"note,omitempty"`
	Platform    string    `json:"platform"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ratingDTO struct {
	ID            string    `json:"id"`
	SubmissionID  string    `json:"submission_id"`
	RatedByUserID string    `json:"rated_by_user_id"`
	Score         int       `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type feedbackDTO struct {
	SubmissionID string `json:"submission_id"`
	Text         string `json:"text"`
	Fallback     bool   `json:"fallback"`
}

type playerStatsDTO struct {
	TotalScore      int     `json:"total_score"`
	SubmissionCount int     `json:"submission_count"`
	AvgRating       float64 `json:"avg_rating"`
	FavouriteCount  int     `json:"favourite_count"`
}

type standingDTO struct {
	Rank     int            `json:"rank"`
	UserID   string         `json:"user_id"`
	Username string         `json:"username"`
	Avatar   string         `json:"avatar"`
	Level    int            `json:"level"`
	Stats    playerStatsDTO `json:"stats"`
}

type challengeCardDTO struct {
	Challenge challengeDTO `json:"challenge"`
	Locked    bool         `json:"locked"`
}

type entryDTO struct {
	Submission   submissionDTO `json:"submission"`
	Author       *userDTO      `json:"author,omitempty"`
	AverageScore float64       `json:"average_score"`
	RatingCount  int           `json:"rating_count"`
	MyScore      int           `json:"my_score,omitempty"`
}

type userRowDTO struct {
	User  userDTO        `json:"user"`
	Stats playerStatsDTO `json:"stats"`
}

type platformCountersDTO struct {
	TotalUsers         int `json:"total_users"`
	Admins             int `json:"admins"`
	Players            int `json:"players"`
	Competitions       int `json:"competitions"`
	ActiveCompetitions int `json:"active_competitions"`
	Submissions        int `json:"submissions"`
	Ratings            int `json:"ratings"`
}

type homeViewDTO struct {
	Competitions     []competitionDTO `json:"competitions"`
	ActiveChallenges []challengeDTO   `json:"active_challenges"`
}

type competitionViewDTO struct {
	Competition competitionDTO     `json:"competition"`
	Challenges  []challengeCardDTO `json:"challenges"`
}

type challengeViewDTO struct {
	Challenge            challengeDTO `json:"challenge"`
	Entries              []entryDTO   `json:"entries"`
	MySubmissionCount    int          `json:"my_submission_count"`
	RemainingSubmissions int          `json:"remaining_submissions"`
}

type leaderboardViewDTO struct {
	Standings []standingDTO `json:"standings"`
}

type profileViewDTO struct {
	User        userDTO         `json:"user"`
	Stats       playerStatsDTO  `json:"stats"`
	Rank        int             `json:"rank,omitempty"`
	Submissions []submissionDTO `json:"submissions"`
}

type adminUsersViewDTO struct {
	Users []userRowDTO `json:"users"`
}

type superAdminViewDTO struct {
	Counters     platformCountersDTO `json:"counters"`
	RecentLogins []userDTO           `json:"recent_logins"`
}

type viewDTO struct {
	View        string              `json:"view"`
	Home        *homeViewDTO        `json:"home,omitempty"`
	Competition *competitionViewDTO `json:"competition,omitempty"`
	Challenge   *challengeViewDTO   `json:"challenge,omitempty"`
	Leaderboard *leaderboardViewDTO `json:"leaderboard,omitempty"`
	Profile     *profileViewDTO     `json:"profile,omitempty"`
	AdminUsers  *adminUsersViewDTO  `json:"admin_users,omitempty"`
	SuperAdmin  *superAdminViewDTO  `json:"super_admin,omitempty"`
}

func userToDTO(u user.User) userDTO {
	return userDTO{
		ID:          u.ID,
		Username:    u.Username,
		Avatar:      u.Avatar,
		Role:        string(u.Role),
		Level:       u.Level,
		XP:          u.XP,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
		Version:     u.Version,
	}
}

func usersToDTO(items []user.User) []userDTO {
	out := make([]userDTO, 0, len(items))
	for _, item := range items {
		out = append(out, userToDTO(item))
	}
	return out
}

func stateToDTO(state usecase.State) sessionDTO {
	out := sessionDTO{
		View:                  string(state.View),
		SelectedCompetitionID: state.SelectedCompetitionID,
		SelectedChallengeID:   state.SelectedChallengeID,
	}
	if state.CurrentUser != nil {
		u := userToDTO(*state.CurrentUser)
		out.User = &u
	}
	return out
}

func competitionToDTO(c competition.Competition) competitionDTO {
	return competitionDTO{
		ID:            c.ID,
		Title:         c.Title,
		Slug:          c.Slug,
		Description:   c.Description,
		StartDate:     competition.FormatDate(c.StartDate),
		EndDate:       competition.FormatDate(c.EndDate),
		Status:        string(c.Status),
		Theme:         c.Theme,
		Prize:         c.Prize,
		BackgroundURL: c.BackgroundURL,
		CreatedAt:     c.CreatedAt,
		Version:       c.Version,
	}
}

func competitionsToDTO(items []competition.Competition) []competitionDTO {
	out := make([]competitionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, competitionToDTO(item))
	}
	return out
}

func challengeToDTO(c challenge.Challenge) challengeDTO {
	criteria := append([]string{}, c.Criteria...)
	rules := append([]string{}, c.Rules...)
	return challengeDTO{
		ID:             c.ID,
		CompetitionID:  c.CompetitionID,
		Title:          c.Title,
		Description:    c.Description,
		Criteria:       criteria,
		WeekNumber:     c.WeekNumber,
		Status:         string(c.Status),
		Rules:          rules,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		MaxSubmissions: c.MaxSubmissions,
		BackgroundURL:  c.BackgroundURL,
		CreatedAt:      c.CreatedAt,
		Version:        c.Version,
	}
}

func challengesToDTO(items []challenge.Challenge) []challengeDTO {
	out := make([]challengeDTO, 0, len(items))
	for _, item := range items {
		out = append(out, challengeToDTO(item))
	}
	return out
}

func submissionToDTO(s submission.Submission) submissionDTO {
	return submissionDTO{
		ID:          s.ID,
		ChallengeID: s.ChallengeID,
		UserID:      s.UserID,
		Link:        s.Link,
		Note:        s.Note,
		Platform:    string(s.Platform),
		SubmittedAt: s.SubmittedAt,
	}
}

func submissionsToDTO(items []submission.Submission) []submissionDTO {
	out := make([]submissionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, submissionToDTO(item))
	}
	return out
}

func ratingToDTO(r rating.Rating) ratingDTO {
	return ratingDTO{
		ID:            r.ID,
		SubmissionID:  r.SubmissionID,
		RatedByUserID: r.RatedByUserID,
		Score:         r.Score,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func statsToDTO(s scoring.PlayerStats) playerStatsDTO {
	return playerStatsDTO{
		TotalScore:      s.TotalScore,
		SubmissionCount: s.SubmissionCount,
		AvgRating:       s.AvgRating,
		FavouriteCount:  s.FavouriteCount,
	}
}

func standingsToDTO(items []scoring.Standing) []standingDTO {
	out := make([]standingDTO, 0, len(items))
	for _, item := range items {
		out = append(out, standingDTO{
			Rank:     item.Rank,
			UserID:   item.UserID,
			Username: item.Username,
			Avatar:   item.Avatar,
			Level:    item.Level,
			Stats:    statsToDTO(item.Stats),
		})
	}
	return out
}

func projectionToDTO(p usecase.Projection) viewDTO {
	out := viewDTO{View: string(p.View)}

	switch {
	case p.Home != nil:
		out.Home = &homeViewDTO{
			Competitions:     competitionsToDTO(p.Home.Competitions),
			ActiveChallenges: challengesToDTO(p.Home.ActiveChallenges),
		}
	case p.Competition != nil:
		cards := make([]challengeCardDTO, 0, len(p.Competition.Challenges))
		for _, card := range p.Competition.Challenges {
			cards = append(cards, challengeCardDTO{Challenge: challengeToDTO(card.Challenge), Locked: card.Locked})
		}
		out.Competition = &competitionViewDTO{
			Competition: competitionToDTO(p.Competition.Competition),
			Challenges:  cards,
		}
	case p.Challenge != nil:
		entries := make([]entryDTO, 0, len(p.Challenge.Entries))
		for _, e := range p.Challenge.Entries {
			entry := entryDTO{
				Submission:   submissionToDTO(e.Submission),
				AverageScore: e.AverageScore,
				RatingCount:  e.RatingCount,
				MyScore:      e.MyScore,
			}
			if e.Author != nil {
				author := userToDTO(*e.Author)
				entry.Author = &author
			}
			entries = append(entries, entry)
		}
		out.Challenge = &challengeViewDTO{
			Challenge:            challengeToDTO(p.Challenge.Challenge),
			Entries:              entries,
			MySubmissionCount:    p.Challenge.MySubmissionCount,
			RemainingSubmissions: p.Challenge.RemainingSubmissions,
		}
	case p.Leaderboard != nil:
		out.Leaderboard = &leaderboardViewDTO{Standings: standingsToDTO(p.Leaderboard.Standings)}
	case p.Profile != nil:
		out.Profile = &profileViewDTO{
			User:        userToDTO(p.Profile.User),
			Stats:       statsToDTO(p.Profile.Stats),
			Rank:        p.Profile.Rank,
			Submissions: submissionsToDTO(p.Profile.Submissions),
		}
	case p.AdminUsers != nil:
		rows := make([]userRowDTO, 0, len(p.AdminUsers.Users))
		for _, row := range p.AdminUsers.Users {
			rows = append(rows, userRowDTO{User: userToDTO(row.User), Stats: statsToDTO(row.Stats)})
		}
		out.AdminUsers = &adminUsersViewDTO{Users: rows}
	case p.SuperAdmin != nil:
		c := p.SuperAdmin.Counters
		out.SuperAdmin = &superAdminViewDTO{
			Counters: platformCountersDTO{
				TotalUsers:         c.TotalUsers,
				Admins:             c.Admins,
				Players:            c.Players,
				Competitions:       c.Competitions,
				ActiveCompetitions: c.ActiveCompetitions,
				Submissions:        c.Submissions,
				Ratings:            c.Ratings,
			},
			RecentLogins: usersToDTO(p.SuperAdmin.RecentLogins),
		}
	}

	return out
}
