package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	return hasPQCode(err, pqUniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasPQCode(err, pqForeignKeyViolation)
}

func hasPQCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == code
}

// withTx runs fn in a transaction that is committed only when fn succeeds.
func withTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx %s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s tx: %w", op, err)
	}

	return nil
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func selectRows[T any](ctx context.Context, q sqlx.QueryerContext, b sqlBuilder, what string) ([]T, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select %s query: %w", what, err)
	}

	var rows []T
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", what, err)
	}
	return rows, nil
}

func getRow[T any](ctx context.Context, q sqlx.QueryerContext, b sqlBuilder, what string) (T, bool, error) {
	var row T
	query, args, err := b.ToSQL()
	if err != nil {
		return row, false, fmt.Errorf("build get %s query: %w", what, err)
	}

	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return row, false, nil
		}
		return row, false, fmt.Errorf("get %s: %w", what, err)
	}
	return row, true, nil
}

func execAffected(ctx context.Context, e sqlx.ExecerContext, b sqlBuilder, what string) (int64, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build %s query: %w", what, err)
	}

	result, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected %s: %w", what, err)
	}
	return affected, nil
}

func mapRows[D any, M interface{ toDomain() D }](rows []M) []D {
	out := make([]D, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
