package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/creator-league/internal/platform/logging"
	"github.com/riskibarqy/creator-league/internal/usecase"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) Sweep(ctx context.Context) (usecase.SweepResult, error) {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return usecase.SweepResult{}, errors.New("sweep context must carry a deadline")
	}
	return usecase.SweepResult{Checked: 3, Updated: 1}, c.err
}

func TestStatusSweeper_RunsImmediatelyAndRepeats(t *testing.T) {
	sweeper := &countingSweeper{}
	s, err := NewStatusSweeper(sweeper, 20*time.Millisecond, logging.NewNop())
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Shutdown())

	stopped := sweeper.calls.Load()
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, stopped, sweeper.calls.Load(), "no sweeps after shutdown")
}

func TestStatusSweeper_SurvivesSweepErrors(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("store offline")}
	s, err := NewStatusSweeper(sweeper, 20*time.Millisecond, logging.NewNop())
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Shutdown())
}

func TestNewStatusSweeper_RejectsBadInput(t *testing.T) {
	_, err := NewStatusSweeper(nil, time.Second, nil)
	require.Error(t, err)

	_, err = NewStatusSweeper(&countingSweeper{}, 0, nil)
	require.Error(t, err)
}
