package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/creator-league/external/dicebear"
	"github.com/riskibarqy/creator-league/external/gemini"
	"github.com/riskibarqy/creator-league/internal/config"
	"github.com/riskibarqy/creator-league/internal/infrastructure/scheduler"
	"github.com/riskibarqy/creator-league/internal/interfaces/httpapi"
	"github.com/riskibarqy/creator-league/internal/platform/cache"
	idgen "github.com/riskibarqy/creator-league/internal/platform/id"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
	"github.com/riskibarqy/creator-league/internal/platform/password"
	"github.com/riskibarqy/creator-league/internal/platform/resilience"
	"github.com/riskibarqy/creator-league/internal/usecase"
)

// App owns the HTTP server and the background pieces that live as long as it.
type App struct {
	Server *http.Server

	sweeper *scheduler.StatusSweeper
	closeDB func() error
	logger  *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	hasher := password.NewBcryptHasher(cfg.PasswordHashCost)
	repo, closeDB, err := openStore(ctx, cfg, hasher, logger.Named("store"))
	if err != nil {
		return nil, err
	}

	avatars := dicebear.NewProvider(cfg.AvatarBaseURL, cfg.AvatarStyle)
	contests := usecase.NewContestService(repo, idgen.NewUUIDGenerator(), hasher, avatars, logger.Named("contest"))

	if cfg.SuperAdminUsername != "" {
		admin, err := contests.EnsureSuperAdmin(ctx, cfg.SuperAdminUsername, cfg.SuperAdminPassword)
		if err != nil {
			_ = closeDB()
			return nil, fmt.Errorf("ensure super-admin: %w", err)
		}
		logger.Info("super-admin ready", "user_id", admin.ID, "username", admin.Username)
	}

	leaderboard := usecase.NewLeaderboardService(contests, cache.NewStore(cfg.LeaderboardTTL), cfg.LeaderboardWorkers, logger.Named("leaderboard"))
	feedback := usecase.NewFeedbackService(contests, newCoach(cfg, logger), logger.Named("feedback"))
	sessions := usecase.NewSessionManager(contests, feedback, idgen.NewPrefixedGenerator("sess"), cfg.SessionTTL, logger.Named("session"))
	views := usecase.NewViewRouter(contests, leaderboard)

	contests.Subscribe(leaderboard)
	contests.Subscribe(sessions)

	var sweeper *scheduler.StatusSweeper
	if cfg.StatusSweepEnabled {
		status := usecase.NewStatusService(contests, cfg.StatusSweepWorkers, logger.Named("status"))
		sweeper, err = scheduler.NewStatusSweeper(status, cfg.StatusSweepInterval, logger.Named("scheduler"))
		if err != nil {
			_ = closeDB()
			return nil, fmt.Errorf("build status sweeper: %w", err)
		}
	}

	handler := httpapi.NewHandler(sessions, contests, leaderboard, views, avatars, logger.Named("http"))
	router := httpapi.NewRouter(handler, sessions, logger.Named("http"), cfg.SwaggerEnabled, cfg.CORSAllowedOrigins)

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		sweeper: sweeper,
		closeDB: closeDB,
		logger:  logger,
	}, nil
}

// newCoach returns nil when the coach is disabled, which makes feedback
// requests answer with the missing-key notice.
func newCoach(cfg config.Config, logger *logging.Logger) usecase.Coach {
	if !cfg.CoachEnabled {
		logger.Info("ai coach disabled", "reason", "COACH_ENABLED=false")
		return nil
	}

	return gemini.NewClient(gemini.ClientConfig{
		BaseURL: cfg.CoachBaseURL,
		APIKey:  cfg.CoachAPIKey,
		Model:   cfg.CoachModel,
		Timeout: cfg.CoachTimeout,
		Logger:  logger.Named("gemini"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CoachCircuitEnabled,
			FailureThreshold: cfg.CoachCircuitFailureCount,
			OpenTimeout:      cfg.CoachCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CoachCircuitHalfOpenMax,
		},
	})
}

// StartBackground starts jobs that run alongside the HTTP server.
func (a *App) StartBackground() {
	if a.sweeper != nil {
		a.sweeper.Start()
	}
}

// Shutdown drains the HTTP server, then stops background jobs and the store.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if a.sweeper != nil {
		if err := a.sweeper.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.closeDB != nil {
		if err := a.closeDB(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
