package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
	"github.com/riskibarqy/creator-league/internal/usecase"
)

const statusSweepJobName = "competition-status-sweep"

// Sweeper runs one status sweep.
type Sweeper interface {
	Sweep(ctx context.Context) (usecase.SweepResult, error)
}

// StatusSweeper runs Sweeper on a fixed interval. Runs never overlap; a run
// that outlasts the interval delays the next one.
type StatusSweeper struct {
	sched   gocron.Scheduler
	sweeper Sweeper
	timeout time.Duration
	logger  *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewStatusSweeper(sweeper Sweeper, interval time.Duration, logger *logging.Logger) (*StatusSweeper, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("status sweeper requires a sweeper")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("status sweep interval must be > 0")
	}
	if logger == nil {
		logger = logging.Default()
	}

	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &StatusSweeper{
		sched:   sched,
		sweeper: sweeper,
		timeout: interval,
		logger:  logger.With("job", statusSweepJobName),
		ctx:     ctx,
		cancel:  cancel,
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.run),
		gocron.WithName(statusSweepJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = sched.Shutdown()
		return nil, fmt.Errorf("register status sweep job: %w", err)
	}

	return s, nil
}

func (s *StatusSweeper) Start() {
	s.sched.Start()
	s.logger.Info("status sweeper started")
}

// Shutdown cancels an in-flight sweep and waits for the scheduler to stop.
func (s *StatusSweeper) Shutdown() error {
	s.cancel()
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	s.logger.Info("status sweeper stopped")
	return nil
}

func (s *StatusSweeper) run() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	startedAt := time.Now()
	result, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "status sweep failed",
			"duration_ms", time.Since(startedAt).Milliseconds(),
			"error", err,
		)
		return
	}
	s.logger.DebugContext(ctx, "status sweep done",
		"checked", result.Checked,
		"updated", result.Updated,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)
}
