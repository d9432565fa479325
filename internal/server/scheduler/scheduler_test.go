package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls   atomic.Int32
	running atomic.Int32
	overlap atomic.Bool
	delay   time.Duration
	err     error

	mu       sync.Mutex
	lastCtx  context.Context
	finished atomic.Int32
}

func (f *fakeSweeper) RunSweepOnce(ctx context.Context) (*services.SweepReport, error) {
	if f.running.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.running.Add(-1)
	f.calls.Add(1)

	f.mu.Lock()
	f.lastCtx = ctx
	f.mu.Unlock()

	time.Sleep(f.delay)
	f.finished.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &services.SweepReport{}, nil
}

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	sw := &fakeSweeper{}
	s := New(sw, 10*time.Millisecond, logging.Discard())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return sw.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	n := sw.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, sw.calls.Load(), "no sweeps after Stop")
}

func TestScheduler_NeverOverlaps(t *testing.T) {
	sw := &fakeSweeper{delay: 25 * time.Millisecond}
	s := New(sw, time.Millisecond, logging.Discard())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return sw.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.False(t, sw.overlap.Load())
}

func TestScheduler_StopWaitsForRunningSweep(t *testing.T) {
	sw := &fakeSweeper{delay: 50 * time.Millisecond}
	s := New(sw, time.Hour, logging.Discard())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return sw.calls.Load() == 1 }, time.Second, time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), sw.finished.Load())
	sw.mu.Lock()
	defer sw.mu.Unlock()
	assert.Error(t, sw.lastCtx.Err(), "sweep context is cancelled by Stop")
}

func TestScheduler_SurvivesSweepErrors(t *testing.T) {
	sw := &fakeSweeper{err: errors.New("db down")}
	s := New(sw, 5*time.Millisecond, logging.Discard())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return sw.calls.Load() >= 2 }, time.Second, time.Millisecond)
	s.Stop()
}

func TestScheduler_StartStopIdempotent(t *testing.T) {
	sw := &fakeSweeper{}
	s := New(sw, time.Hour, logging.Discard())

	s.Stop()
	s.Start(context.Background())
	s.Start(context.Background())
	require.Eventually(t, func() bool { return sw.calls.Load() == 1 }, time.Second, time.Millisecond)
	s.Stop()
	s.Stop()
	assert.Equal(t, int32(1), sw.calls.Load())
}

func TestScheduler_NonPositiveIntervalFallsBack(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Minute} {
		sw := &fakeSweeper{}
		s := New(sw, interval, logging.Discard())
		assert.Equal(t, DefaultInterval, s.interval)

		require.NotPanics(t, func() {
			s.Start(context.Background())
			require.Eventually(t, func() bool { return sw.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
			s.Stop()
		})
	}
}
