package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "title").
		From("challenges").
		Where(Eq("competition_id", "comp-nov"), Expr("week_number > ?", 0)).
		OrderBy("seq").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, title FROM challenges WHERE competition_id = $1 AND week_number > $2 ORDER BY seq LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "comp-nov" || args[1] != 0 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderForUpdate(t *testing.T) {
	query, _, err := Select("id").
		From("challenges").
		Where(Eq("id", "c1")).
		ForUpdate().
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM challenges WHERE id = $1 FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
}

func TestEqFoldCondition(t *testing.T) {
	query, args, err := Select("*").
		From("users").
		Where(EqFold("username", " Sarah ")).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT * FROM users WHERE lower(btrim(username)) = lower(btrim($1))"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != " Sarah " {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("ratings").
		Columns("id", "score").
		Values("r1", 4).
		Suffix("ON CONFLICT (submission_id, rated_by_user_id) DO UPDATE SET score = EXCLUDED.score RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO ratings (id, score) VALUES ($1, $2) ON CONFLICT (submission_id, rated_by_user_id) DO UPDATE SET score = EXCLUDED.score RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "r1" || args[1] != 4 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("competitions").
		Set("title", "new").
		SetExpr("version", "version + ?", 1).
		Where(Eq("id", "c1"), Eq("version", int64(3))).
		Suffix("RETURNING version").
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE competitions SET title = $1, version = version + $2 WHERE id = $3 AND version = $4 RETURNING version"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[0] != "new" || args[2] != "c1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("challenges").
		Where(Eq("competition_id", "c1")).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM challenges WHERE competition_id = $1 RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "c1" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("challenges").ToSQL(); err == nil {
		t.Fatalf("expected unconditional delete to be rejected")
	}
}

func TestInsertModelSkipsReadonlyColumns(t *testing.T) {
	type row struct {
		Seq       int64     `db:"seq,readonly"`
		ID        string    `db:"id"`
		Title     string    `db:"title"`
		CreatedAt time.Time `db:"created_at"`
		Ignored   string    `db:"-"`
	}

	at := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	query, args, err := InsertModel("competitions", row{Seq: 9, ID: "c1", Title: "Neon", CreatedAt: at}, "")
	if err != nil {
		t.Fatalf("insert model: %v", err)
	}

	wantQuery := "INSERT INTO competitions (id, title, created_at) VALUES ($1, $2, $3)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "c1" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertModel("competitions", (*row)(nil), ""); err == nil {
		t.Fatalf("expected nil model error")
	}
}
