package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/creator-league/internal/config"
	"github.com/riskibarqy/creator-league/internal/domain/contest"
	repocache "github.com/riskibarqy/creator-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/creator-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/creator-league/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/creator-league/internal/platform/cache"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
	"github.com/riskibarqy/creator-league/internal/platform/password"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const dbPingTimeout = 5 * time.Second

// openStore returns the contest repository selected by STORE_DRIVER and a
// func that releases its resources.
func openStore(ctx context.Context, cfg config.Config, hasher password.Hasher, logger *logging.Logger) (contest.Repository, func() error, error) {
	noop := func() error { return nil }

	var seed contest.Snapshot
	if cfg.SeedEnabled {
		snap, err := memory.SeedSnapshot(hasher)
		if err != nil {
			return nil, nil, fmt.Errorf("build seed snapshot: %w", err)
		}
		seed = snap
	}

	if cfg.StoreDriver != config.StorePostgres {
		logger.Info("contest store ready", "driver", config.StoreMemory, "seeded", cfg.SeedEnabled)
		return memory.NewContestRepository(seed), noop, nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	pgRepo := postgres.NewContestRepository(db)

	seeded := false
	if cfg.SeedEnabled {
		seeded, err = postgres.BootstrapSeed(ctx, pgRepo, seed)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap seed: %w", err)
		}
	}

	logger.Info("contest store ready",
		"driver", config.StorePostgres,
		"db_name", dbNameFromURL(cfg.DBURL),
		"seeded", seeded,
		"read_cache_ttl", cfg.ReadCacheTTL.String(),
	)
	return repocache.NewContestRepository(pgRepo, cache.NewStore(cfg.ReadCacheTTL)), db.Close, nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := withApplicationName(cfg.DBURL, cfg.ServiceName)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
