package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const defaultSweepWorkers = 4

// SweepResult summarizes one status sweep.
type SweepResult struct {
	Checked int
	Updated int
	Skipped int
}

// StatusService moves competitions between upcoming, active and completed
// as their date windows open and close.
type StatusService struct {
	contests *ContestService
	workers  int
	logger   *logging.Logger
	now      func() time.Time
}

func NewStatusService(contests *ContestService, workers int, logger *logging.Logger) *StatusService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = defaultSweepWorkers
	}

	return &StatusService{
		contests: contests,
		workers:  workers,
		logger:   logger,
		now:      time.Now,
	}
}

// Sweep recomputes every competition status for the current day. For a
// competition with both dates the date window wins, so a status set by hand is
// reset on the next sweep. Undated competitions keep whatever status they
// have. Entries edited concurrently are skipped and picked up by the next sweep.
func (s *StatusService) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatusService.Sweep")
	defer span.End()

	items, err := s.contests.ListCompetitions(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	now := s.now()
	var updated, skipped atomic.Int32

	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.workers)
	for _, item := range items {
		item := item
		next := item.StatusAt(now)
		if next == item.Status {
			continue
		}
		p.Go(func(ctx context.Context) error {
			return s.advance(ctx, item, next, &updated, &skipped)
		})
	}
	if err := p.Wait(); err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{
		Checked: len(items),
		Updated: int(updated.Load()),
		Skipped: int(skipped.Load()),
	}
	if result.Updated > 0 || result.Skipped > 0 {
		s.logger.InfoContext(ctx, "competition status sweep finished",
			"checked", result.Checked,
			"updated", result.Updated,
			"skipped", result.Skipped,
		)
	}
	return result, nil
}

func (s *StatusService) advance(
	ctx context.Context,
	item competition.Competition,
	next competition.Status,
	updated, skipped *atomic.Int32,
) error {
	prev := item.Status
	item.Status = next
	if _, err := s.contests.EditCompetition(ctx, item); err != nil {
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
			skipped.Add(1)
			s.logger.WarnContext(ctx, "competition status sweep skipped entry",
				"competition_id", item.ID,
				"error", err,
			)
			return nil
		}
		return err
	}

	updated.Add(1)
	s.logger.InfoContext(ctx, "competition status advanced",
		"competition_id", item.ID,
		"from", string(prev),
		"to", string(next),
	)
	return nil
}
