package postgres

import (
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/rating"
	"github.com/riskibarqy/creator-league/internal/domain/submission"
	"github.com/riskibarqy/creator-league/internal/domain/user"
)

type userTableModel struct {
	Seq          int64      `db:"seq,readonly"`
	ID           string     `db:"id"`
	Username     string     `db:"username"`
	PasswordHash string     `db:"password_hash"`
	Avatar       string     `db:"avatar"`
	Role         string     `db:"role"`
	Level        int        `db:"level"`
	XP           int        `db:"xp"`
	CreatedAt    time.Time  `db:"created_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	Version      int64      `db:"version"`
}

type competitionTableModel struct {
	Seq           int64      `db:"seq,readonly"`
	SortKey       int64      `db:"sort_key"`
	ID            string     `db:"id"`
	Title         string     `db:"title"`
	Slug          string     `db:"slug"`
	Description   string     `db:"description"`
	StartDate     *time.Time `db:"start_date"`
	EndDate       *time.Time `db:"end_date"`
	Status        string     `db:"status"`
	Theme         string     `db:"theme"`
	Prize         string     `db:"prize"`
	BackgroundURL string     `db:"background_url"`
	CreatedAt     time.Time  `db:"created_at"`
	Version       int64      `db:"version"`
}

type challengeTableModel struct {
	Seq            int64          `db:"seq,readonly"`
	ID             string         `db:"id"`
	CompetitionID  string         `db:"competition_id"`
	Title          string         `db:"title"`
	Description    string         `db:"description"`
	Criteria       pq.StringArray `db:"criteria"`
	WeekNumber     int            `db:"week_number"`
	Status         string         `db:"status"`
	Rules          pq.StringArray `db:"rules"`
	StartDate      *time.Time     `db:"start_date"`
	EndDate        *time.Time     `db:"end_date"`
	MaxSubmissions int            `db:"max_submissions"`
	BackgroundURL  string         `db:"background_url"`
	CreatedAt      time.Time      `db:"created_at"`
	Version        int64          `db:"version"`
}

type submissionTableModel struct {
	Seq         int64     `db:"seq,readonly"`
	ID          string    `db:"id"`
	ChallengeID string    `db:"challenge_id"`
	UserID      string    `db:"user_id"`
	Link        string    `db:"link"`
	Note        string    `db:"note"`
	Platform    string    `db:"platform"`
	SubmittedAt time.Time `db:"submitted_at"`
}

type ratingTableModel struct {
	Seq           int64     `db:"seq,readonly"`
	ID            string    `db:"id"`
	SubmissionID  string    `db:"submission_id"`
	RatedByUserID string    `db:"rated_by_user_id"`
	Score         int       `db:"score"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func userModelFrom(u user.User) userTableModel {
	return userTableModel{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Avatar:       u.Avatar,
		Role:         string(u.Role),
		Level:        u.Level,
		XP:           u.XP,
		CreatedAt:    u.CreatedAt.UTC(),
		LastLoginAt:  utcPtr(u.LastLoginAt),
		Version:      u.Version,
	}
}

func (m userTableModel) toDomain() user.User {
	return user.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Avatar:       m.Avatar,
		Role:         user.Role(m.Role),
		Level:        m.Level,
		XP:           m.XP,
		CreatedAt:    m.CreatedAt.UTC(),
		LastLoginAt:  utcPtr(m.LastLoginAt),
		Version:      m.Version,
	}
}

func competitionModelFrom(c competition.Competition, sortKey int64) competitionTableModel {
	return competitionTableModel{
		SortKey:       sortKey,
		ID:            c.ID,
		Title:         c.Title,
		Slug:          c.Slug,
		Description:   c.Description,
		StartDate:     datePtr(c.StartDate),
		EndDate:       datePtr(c.EndDate),
		Status:        string(c.Status),
		Theme:         c.Theme,
		Prize:         c.Prize,
		BackgroundURL: c.BackgroundURL,
		CreatedAt:     c.CreatedAt.UTC(),
		Version:       c.Version,
	}
}

func (m competitionTableModel) toDomain() competition.Competition {
	return competition.Competition{
		ID:            m.ID,
		Title:         m.Title,
		Slug:          m.Slug,
		Description:   m.Description,
		StartDate:     dateValue(m.StartDate),
		EndDate:       dateValue(m.EndDate),
		Status:        competition.Status(m.Status),
		Theme:         m.Theme,
		Prize:         m.Prize,
		BackgroundURL: m.BackgroundURL,
		CreatedAt:     m.CreatedAt.UTC(),
		Version:       m.Version,
	}
}

func challengeModelFrom(c challenge.Challenge) challengeTableModel {
	return challengeTableModel{
		ID:             c.ID,
		CompetitionID:  c.CompetitionID,
		Title:          c.Title,
		Description:    c.Description,
		Criteria:       nonNilStrings(c.Criteria),
		WeekNumber:     c.WeekNumber,
		Status:         string(c.Status),
		Rules:          nonNilStrings(c.Rules),
		StartDate:      utcPtr(c.StartDate),
		EndDate:        utcPtr(c.EndDate),
		MaxSubmissions: c.MaxSubmissions,
		BackgroundURL:  c.BackgroundURL,
		CreatedAt:      c.CreatedAt.UTC(),
		Version:        c.Version,
	}
}

func (m challengeTableModel) toDomain() challenge.Challenge {
	return challenge.Challenge{
		ID:             m.ID,
		CompetitionID:  m.CompetitionID,
		Title:          m.Title,
		Description:    m.Description,
		Criteria:       append([]string(nil), m.Criteria...),
		WeekNumber:     m.WeekNumber,
		Status:         challenge.Status(m.Status),
		Rules:          append([]string(nil), m.Rules...),
		StartDate:      utcPtr(m.StartDate),
		EndDate:        utcPtr(m.EndDate),
		MaxSubmissions: m.MaxSubmissions,
		BackgroundURL:  m.BackgroundURL,
		CreatedAt:      m.CreatedAt.UTC(),
		Version:        m.Version,
	}
}

func submissionModelFrom(s submission.Submission) submissionTableModel {
	return submissionTableModel{
		ID:          s.ID,
		ChallengeID: s.ChallengeID,
		UserID:      s.UserID,
		Link:        s.Link,
		Note:        s.Note,
		Platform:    string(s.Platform),
		SubmittedAt: s.SubmittedAt.UTC(),
	}
}

func (m submissionTableModel) toDomain() submission.Submission {
	return submission.Submission{
		ID:          m.ID,
		ChallengeID: m.ChallengeID,
		UserID:      m.UserID,
		Link:        m.Link,
		Note:        m.Note,
		Platform:    submission.Platform(m.Platform),
		SubmittedAt: m.SubmittedAt.UTC(),
	}
}

func ratingModelFrom(r rating.Rating) ratingTableModel {
	return ratingTableModel{
		ID:            r.ID,
		SubmissionID:  r.SubmissionID,
		RatedByUserID: r.RatedByUserID,
		Score:         r.Score,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func (m ratingTableModel) toDomain() rating.Rating {
	return rating.Rating{
		ID:            m.ID,
		SubmissionID:  m.SubmissionID,
		RatedByUserID: m.RatedByUserID,
		Score:         m.Score,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func datePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	v := competition.TruncateDate(t)
	return &v
}

func dateValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return competition.TruncateDate(*t)
}

func nonNilStrings(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(values)
}
