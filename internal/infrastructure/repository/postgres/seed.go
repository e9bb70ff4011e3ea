package postgres

import (
	"context"
	"fmt"

	"github.com/riskibarqy/creator-league/internal/domain/contest"
	qb "github.com/riskibarqy/creator-league/internal/platform/querybuilder"
)

// BootstrapSeed imports snap when the users table is empty. It reports
// whether the seed was applied.
func BootstrapSeed(ctx context.Context, repo *ContestRepository, snap contest.Snapshot) (bool, error) {
	count, _, err := getRow[int](ctx, repo.db, qb.Select("COUNT(1)").From(usersTable), "user count for bootstrap seed")
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if err := repo.Import(ctx, snap); err != nil {
		return false, fmt.Errorf("import bootstrap seed: %w", err)
	}
	return true, nil
}
