package postgres

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/contest"
	"github.com/riskibarqy/creator-league/internal/domain/rating"
	"github.com/riskibarqy/creator-league/internal/domain/submission"
	"github.com/riskibarqy/creator-league/internal/domain/user"
	qb "github.com/riskibarqy/creator-league/internal/platform/querybuilder"
)

const (
	usersTable        = "users"
	competitionsTable = "competitions"
	challengesTable   = "challenges"
	submissionsTable  = "submissions"
	ratingsTable      = "ratings"
)

// ContestRepository stores the contest collections in Postgres. Store order is
// the insertion sequence, except competitions which follow sort_key.
type ContestRepository struct {
	db *sqlx.DB
}

func NewContestRepository(db *sqlx.DB) *ContestRepository {
	return &ContestRepository{db: db}
}

type deletedRow struct {
	ID  string `db:"id"`
	Seq int64  `db:"seq"`
}

type upsertedRating struct {
	ratingTableModel
	Inserted bool `db:"inserted"`
}

func (r *ContestRepository) Snapshot(ctx context.Context) (contest.Snapshot, error) {
	var snap contest.Snapshot
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := withTx(ctx, r.db, opts, "snapshot", func(tx *sqlx.Tx) error {
		users, err := selectRows[userTableModel](ctx, tx, qb.Select("*").From(usersTable).OrderBy("seq"), "users")
		if err != nil {
			return err
		}
		comps, err := selectRows[competitionTableModel](ctx, tx, competitionsQuery(), "competitions")
		if err != nil {
			return err
		}
		chals, err := selectRows[challengeTableModel](ctx, tx, qb.Select("*").From(challengesTable).OrderBy("seq"), "challenges")
		if err != nil {
			return err
		}
		subs, err := selectRows[submissionTableModel](ctx, tx, qb.Select("*").From(submissionsTable).OrderBy("seq"), "submissions")
		if err != nil {
			return err
		}
		rates, err := selectRows[ratingTableModel](ctx, tx, qb.Select("*").From(ratingsTable).OrderBy("seq"), "ratings")
		if err != nil {
			return err
		}

		snap = contest.Snapshot{
			Users:        mapRows[user.User](users),
			Competitions: mapRows[competition.Competition](comps),
			Challenges:   mapRows[challenge.Challenge](chals),
			Submissions:  mapRows[submission.Submission](subs),
			Ratings:      mapRows[rating.Rating](rates),
		}
		return nil
	})
	if err != nil {
		return contest.Snapshot{}, err
	}
	return snap, nil
}

// Users

func (r *ContestRepository) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := selectRows[userTableModel](ctx, r.db, qb.Select("*").From(usersTable).OrderBy("seq"), "users")
	if err != nil {
		return nil, err
	}
	return mapRows[user.User](rows), nil
}

func (r *ContestRepository) GetUser(ctx context.Context, userID string) (user.User, bool, error) {
	row, ok, err := getRow[userTableModel](ctx, r.db, qb.Select("*").From(usersTable).Where(qb.Eq("id", userID)), "user by id")
	if err != nil || !ok {
		return user.User{}, false, err
	}
	return row.toDomain(), true, nil
}

func (r *ContestRepository) FindUserByUsername(ctx context.Context, username string) (user.User, bool, error) {
	query := qb.Select("*").From(usersTable).
		Where(qb.EqFold("username", username)).
		OrderBy("seq").
		Limit(1)
	row, ok, err := getRow[userTableModel](ctx, r.db, query, "user by username")
	if err != nil || !ok {
		return user.User{}, false, err
	}
	return row.toDomain(), true, nil
}

func (r *ContestRepository) CreateUser(ctx context.Context, u user.User) error {
	u.Version = 1
	query, args, err := qb.InsertModel(usersTable, userModelFrom(u), "")
	if err != nil {
		return fmt.Errorf("build insert user query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s", contest.ErrDuplicateID, u.ID)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *ContestRepository) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	m := userModelFrom(u)
	update := qb.Update(usersTable).
		Set("username", m.Username).
		Set("password_hash", m.PasswordHash).
		Set("avatar", m.Avatar).
		Set("role", m.Role).
		Set("level", m.Level).
		Set("xp", m.XP).
		Set("last_login_at", m.LastLoginAt).
		SetExpr("version", "version + 1").
		Where(versionedWhere(u.ID, u.Version)...).
		Suffix("RETURNING *")

	row, ok, err := getRow[userTableModel](ctx, r.db, update, "update user")
	if err != nil {
		return user.User{}, err
	}
	if !ok {
		return user.User{}, r.missOrConflict(ctx, usersTable, "user", u.ID, u.Version)
	}
	return row.toDomain(), nil
}

func (r *ContestRepository) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	affected, err := execAffected(ctx, r.db, qb.Update(usersTable).Set("last_login_at", at.UTC()).Where(qb.Eq("id", userID)), "touch user login")
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %s", contest.ErrNotFound, userID)
	}
	return nil
}

func (r *ContestRepository) DeleteUser(ctx context.Context, userID string) (contest.UserCascade, error) {
	var cascade contest.UserCascade
	err := withTx(ctx, r.db, nil, "delete user", func(tx *sqlx.Tx) error {
		if _, ok, err := getRow[deletedRow](ctx, tx, lockRow(usersTable, userID), "lock user"); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: user %s", contest.ErrNotFound, userID)
		}

		ratingIDs, err := deleteReturning(ctx, tx, qb.DeleteFrom(ratingsTable).Where(qb.Expr(
			"(rated_by_user_id = ? OR submission_id IN (SELECT id FROM submissions WHERE user_id = ?))",
			userID, userID,
		)), "delete user ratings")
		if err != nil {
			return err
		}
		submissionIDs, err := deleteReturning(ctx, tx, qb.DeleteFrom(submissionsTable).Where(qb.Eq("user_id", userID)), "delete user submissions")
		if err != nil {
			return err
		}
		if _, err := execAffected(ctx, tx, qb.DeleteFrom(usersTable).Where(qb.Eq("id", userID)), "delete user"); err != nil {
			return err
		}

		cascade = contest.UserCascade{SubmissionIDs: submissionIDs, RatingIDs: ratingIDs}
		return nil
	})
	if err != nil {
		return contest.UserCascade{}, err
	}
	return cascade, nil
}

// Competitions

func (r *ContestRepository) ListCompetitions(ctx context.Context) ([]competition.Competition, error) {
	rows, err := selectRows[competitionTableModel](ctx, r.db, competitionsQuery(), "competitions")
	if err != nil {
		return nil, err
	}
	return mapRows[competition.Competition](rows), nil
}

func (r *ContestRepository) GetCompetition(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	row, ok, err := getRow[competitionTableModel](ctx, r.db, qb.Select("*").From(competitionsTable).Where(qb.Eq("id", competitionID)), "competition by id")
	if err != nil || !ok {
		return competition.Competition{}, false, err
	}
	return row.toDomain(), true, nil
}

func (r *ContestRepository) CreateCompetition(ctx context.Context, c competition.Competition) error {
	c.Version = 1
	return withTx(ctx, r.db, nil, "create competition", func(tx *sqlx.Tx) error {
		sortKey, err := competitionSortKey(ctx, tx, "MIN(sort_key) - 1")
		if err != nil {
			return err
		}
		query, args, err := qb.InsertModel(competitionsTable, competitionModelFrom(c, sortKey), "")
		if err != nil {
			return fmt.Errorf("build insert competition query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: competition %s", contest.ErrDuplicateID, c.ID)
			}
			return fmt.Errorf("insert competition: %w", err)
		}
		return nil
	})
}

func (r *ContestRepository) UpdateCompetition(ctx context.Context, c competition.Competition) (competition.Competition, error) {
	m := competitionModelFrom(c, 0)
	update := qb.Update(competitionsTable).
		Set("title", m.Title).
		Set("slug", m.Slug).
		Set("description", m.Description).
		Set("start_date", m.StartDate).
		Set("end_date", m.EndDate).
		Set("status", m.Status).
		Set("theme", m.Theme).
		Set("prize", m.Prize).
		Set("background_url", m.BackgroundURL).
		SetExpr("version", "version + 1").
		Where(versionedWhere(c.ID, c.Version)...).
		Suffix("RETURNING *")

	row, ok, err := getRow[competitionTableModel](ctx, r.db, update, "update competition")
	if err != nil {
		return competition.Competition{}, err
	}
	if !ok {
		return competition.Competition{}, r.missOrConflict(ctx, competitionsTable, "competition", c.ID, c.Version)
	}
	return row.toDomain(), nil
}

func (r *ContestRepository) DeleteCompetition(ctx context.Context, competitionID string) (contest.CompetitionCascade, error) {
	var cascade contest.CompetitionCascade
	err := withTx(ctx, r.db, nil, "delete competition", func(tx *sqlx.Tx) error {
		if _, ok, err := getRow[deletedRow](ctx, tx, lockRow(competitionsTable, competitionID), "lock competition"); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: competition %s", contest.ErrNotFound, competitionID)
		}

		challengeIDs, err := deleteReturning(ctx, tx, qb.DeleteFrom(challengesTable).Where(qb.Eq("competition_id", competitionID)), "delete competition challenges")
		if err != nil {
			return err
		}
		if _, err := execAffected(ctx, tx, qb.DeleteFrom(competitionsTable).Where(qb.Eq("id", competitionID)), "delete competition"); err != nil {
			return err
		}

		cascade = contest.CompetitionCascade{ChallengeIDs: challengeIDs}
		return nil
	})
	if err != nil {
		return contest.CompetitionCascade{}, err
	}
	return cascade, nil
}

// Challenges

func (r *ContestRepository) ListChallenges(ctx context.Context) ([]challenge.Challenge, error) {
	rows, err := selectRows[challengeTableModel](ctx, r.db, qb.Select("*").From(challengesTable).OrderBy("seq"), "challenges")
	if err != nil {
		return nil, err
	}
	return mapRows[challenge.Challenge](rows), nil
}

func (r *ContestRepository) ListChallengesByCompetition(ctx context.Context, competitionID string) ([]challenge.Challenge, error) {
	query := qb.Select("*").From(challengesTable).
		Where(qb.Eq("competition_id", competitionID)).
		OrderBy("seq")
	rows, err := selectRows[challengeTableModel](ctx, r.db, query, "challenges by competition")
	if err != nil {
		return nil, err
	}
	return mapRows[challenge.Challenge](rows), nil
}

func (r *ContestRepository) GetChallenge(ctx context.Context, challengeID string) (challenge.Challenge, bool, error) {
	row, ok, err := getRow[challengeTableModel](ctx, r.db, qb.Select("*").From(challengesTable).Where(qb.Eq("id", challengeID)), "challenge by id")
	if err != nil || !ok {
		return challenge.Challenge{}, false, err
	}
	return row.toDomain(), true, nil
}

func (r *ContestRepository) CreateChallenge(ctx context.Context, c challenge.Challenge) error {
	c.Version = 1
	query, args, err := qb.InsertModel(challengesTable, challengeModelFrom(c), "")
	if err != nil {
		return fmt.Errorf("build insert challenge query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("%w: challenge %s", contest.ErrDuplicateID, c.ID)
		case isForeignKeyViolation(err):
			return fmt.Errorf("%w: competition %s", contest.ErrNotFound, c.CompetitionID)
		}
		return fmt.Errorf("insert challenge: %w", err)
	}
	return nil
}

func (r *ContestRepository) UpdateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	m := challengeModelFrom(c)
	update := qb.Update(challengesTable).
		Set("title", m.Title).
		Set("description", m.Description).
		Set("criteria", m.Criteria).
		Set("week_number", m.WeekNumber).
		Set("status", m.Status).
		Set("rules", m.Rules).
		Set("start_date", m.StartDate).
		Set("end_date", m.EndDate).
		Set("max_submissions", m.MaxSubmissions).
		Set("background_url", m.BackgroundURL).
		SetExpr("version", "version + 1").
		Where(versionedWhere(c.ID, c.Version)...).
		Suffix("RETURNING *")

	row, ok, err := getRow[challengeTableModel](ctx, r.db, update, "update challenge")
	if err != nil {
		return challenge.Challenge{}, err
	}
	if !ok {
		return challenge.Challenge{}, r.missOrConflict(ctx, challengesTable, "challenge", c.ID, c.Version)
	}
	return row.toDomain(), nil
}

func (r *ContestRepository) DeleteChallenge(ctx context.Context, challengeID string) error {
	affected, err := execAffected(ctx, r.db, qb.DeleteFrom(challengesTable).Where(qb.Eq("id", challengeID)), "delete challenge")
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: challenge %s", contest.ErrNotFound, challengeID)
	}
	return nil
}

// Submissions

func (r *ContestRepository) ListSubmissions(ctx context.Context) ([]submission.Submission, error) {
	return r.listSubmissions(ctx, nil, "submissions")
}

func (r *ContestRepository) ListSubmissionsByChallenge(ctx context.Context, challengeID string) ([]submission.Submission, error) {
	return r.listSubmissions(ctx, []qb.Condition{qb.Eq("challenge_id", challengeID)}, "submissions by challenge")
}

func (r *ContestRepository) ListSubmissionsByUser(ctx context.Context, userID string) ([]submission.Submission, error) {
	return r.listSubmissions(ctx, []qb.Condition{qb.Eq("user_id", userID)}, "submissions by user")
}

func (r *ContestRepository) listSubmissions(ctx context.Context, where []qb.Condition, what string) ([]submission.Submission, error) {
	rows, err := selectRows[submissionTableModel](ctx, r.db, qb.Select("*").From(submissionsTable).Where(where...).OrderBy("seq"), what)
	if err != nil {
		return nil, err
	}
	return mapRows[submission.Submission](rows), nil
}

func (r *ContestRepository) GetSubmission(ctx context.Context, submissionID string) (submission.Submission, bool, error) {
	row, ok, err := getRow[submissionTableModel](ctx, r.db, qb.Select("*").From(submissionsTable).Where(qb.Eq("id", submissionID)), "submission by id")
	if err != nil || !ok {
		return submission.Submission{}, false, err
	}
	return row.toDomain(), true, nil
}

// CreateSubmission locks the challenge row so concurrent submissions by the
// same author cannot both pass the capacity check.
func (r *ContestRepository) CreateSubmission(ctx context.Context, s submission.Submission, maxPerUser int) error {
	return withTx(ctx, r.db, nil, "create submission", func(tx *sqlx.Tx) error {
		if _, ok, err := getRow[deletedRow](ctx, tx, lockRow(challengesTable, s.ChallengeID), "lock challenge"); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: challenge %s", contest.ErrNotFound, s.ChallengeID)
		}
		if _, ok, err := getRow[deletedRow](ctx, tx, qb.Select("id", "seq").From(usersTable).Where(qb.Eq("id", s.UserID)), "submission author"); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: user %s", contest.ErrNotFound, s.UserID)
		}

		held, _, err := getRow[int](ctx, tx, qb.Select("COUNT(*)").From(submissionsTable).Where(
			qb.Eq("challenge_id", s.ChallengeID),
			qb.Eq("user_id", s.UserID),
		), "held submissions")
		if err != nil {
			return err
		}
		if held >= maxPerUser {
			return fmt.Errorf("%w: %d of %d used", contest.ErrCapacityExceeded, held, maxPerUser)
		}

		query, args, err := qb.InsertModel(submissionsTable, submissionModelFrom(s), "")
		if err != nil {
			return fmt.Errorf("build insert submission query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: submission %s", contest.ErrDuplicateID, s.ID)
			}
			return fmt.Errorf("insert submission: %w", err)
		}
		return nil
	})
}

// Ratings

func (r *ContestRepository) ListRatings(ctx context.Context) ([]rating.Rating, error) {
	rows, err := selectRows[ratingTableModel](ctx, r.db, qb.Select("*").From(ratingsTable).OrderBy("seq"), "ratings")
	if err != nil {
		return nil, err
	}
	return mapRows[rating.Rating](rows), nil
}

func (r *ContestRepository) ListRatingsBySubmission(ctx context.Context, submissionID string) ([]rating.Rating, error) {
	query := qb.Select("*").From(ratingsTable).
		Where(qb.Eq("submission_id", submissionID)).
		OrderBy("seq")
	rows, err := selectRows[ratingTableModel](ctx, r.db, query, "ratings by submission")
	if err != nil {
		return nil, err
	}
	return mapRows[rating.Rating](rows), nil
}

// UpsertRating relies on xmax being zero only for freshly inserted tuples.
func (r *ContestRepository) UpsertRating(ctx context.Context, v rating.Rating) (rating.Rating, bool, error) {
	query, args, err := qb.InsertModel(ratingsTable, ratingModelFrom(v),
		"ON CONFLICT (submission_id, rated_by_user_id) DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at "+
			"RETURNING *, (xmax = 0) AS inserted")
	if err != nil {
		return rating.Rating{}, false, fmt.Errorf("build upsert rating query: %w", err)
	}

	var row upsertedRating
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return rating.Rating{}, false, fmt.Errorf("%w: submission %s", contest.ErrNotFound, v.SubmissionID)
		}
		return rating.Rating{}, false, fmt.Errorf("upsert rating: %w", err)
	}
	return row.toDomain(), row.Inserted, nil
}

func (r *ContestRepository) Import(ctx context.Context, snap contest.Snapshot) error {
	return withTx(ctx, r.db, nil, "import snapshot", func(tx *sqlx.Tx) error {
		for _, u := range snap.Users {
			if u.Version == 0 {
				u.Version = 1
			}
			if err := insertIgnoring(ctx, tx, usersTable, userModelFrom(u), "ON CONFLICT (id) DO NOTHING"); err != nil {
				return err
			}
		}

		sortKey, err := competitionSortKey(ctx, tx, "MAX(sort_key) + 1")
		if err != nil {
			return err
		}
		for _, c := range snap.Competitions {
			if c.Version == 0 {
				c.Version = 1
			}
			if err := insertIgnoring(ctx, tx, competitionsTable, competitionModelFrom(c, sortKey), "ON CONFLICT (id) DO NOTHING"); err != nil {
				return err
			}
			sortKey++
		}

		for _, c := range snap.Challenges {
			if c.Version == 0 {
				c.Version = 1
			}
			if err := insertIgnoring(ctx, tx, challengesTable, challengeModelFrom(c), "ON CONFLICT (id) DO NOTHING"); err != nil {
				return err
			}
		}
		for _, s := range snap.Submissions {
			if err := insertIgnoring(ctx, tx, submissionsTable, submissionModelFrom(s), "ON CONFLICT (id) DO NOTHING"); err != nil {
				return err
			}
		}
		for _, v := range snap.Ratings {
			if err := insertIgnoring(ctx, tx, ratingsTable, ratingModelFrom(v), "ON CONFLICT DO NOTHING"); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ContestRepository) missOrConflict(ctx context.Context, table, kind, id string, version int64) error {
	current, ok, err := getRow[int64](ctx, r.db, qb.Select("version").From(table).Where(qb.Eq("id", id)), kind+" version")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", contest.ErrNotFound, kind, id)
	}
	return fmt.Errorf("%w: %s %s at version %d, got %d", contest.ErrVersionConflict, kind, id, current, version)
}

func competitionsQuery() *qb.SelectBuilder {
	return qb.Select("*").From(competitionsTable).OrderBy("sort_key", "seq")
}

// competitionSortKey serialises competition ordering writes for the rest of tx.
func competitionSortKey(ctx context.Context, tx *sqlx.Tx, aggregate string) (int64, error) {
	if _, err := tx.ExecContext(ctx, "LOCK TABLE competitions IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return 0, fmt.Errorf("lock competitions: %w", err)
	}
	key, _, err := getRow[int64](ctx, tx, qb.Select("COALESCE("+aggregate+", 0)").From(competitionsTable), "competition sort key")
	return key, err
}

func versionedWhere(id string, version int64) []qb.Condition {
	where := []qb.Condition{qb.Eq("id", id)}
	if version != 0 {
		where = append(where, qb.Eq("version", version))
	}
	return where
}

func lockRow(table, id string) *qb.SelectBuilder {
	return qb.Select("id", "seq").From(table).Where(qb.Eq("id", id)).ForUpdate()
}

func deleteReturning(ctx context.Context, tx *sqlx.Tx, b *qb.DeleteBuilder, what string) ([]string, error) {
	rows, err := selectRows[deletedRow](ctx, tx, b.Suffix("RETURNING id, seq"), what)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(rows, func(x, y deletedRow) int {
		return cmp.Compare(x.Seq, y.Seq)
	})

	var ids []string
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func insertIgnoring(ctx context.Context, tx *sqlx.Tx, table string, model any, suffix string) error {
	query, args, err := qb.InsertModel(table, model, suffix)
	if err != nil {
		return fmt.Errorf("build import %s query: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("import %s: %w", table, err)
	}
	return nil
}
