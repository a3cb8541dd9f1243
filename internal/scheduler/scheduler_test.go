package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *callLog) add() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.times = append(c.times, time.Now())
	return len(c.times)
}

func (c *callLog) snapshot() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Time(nil), c.times...)
}

func TestScheduler_FailingRunDoesNotStopSchedule(t *testing.T) {
	calls := &callLog{}
	s := New(func(ctx context.Context) error {
		if calls.add() == 1 {
			return errors.New("source down")
		}
		return nil
	})

	const period = 150 * time.Millisecond
	require.NoError(t, s.startEvery(period))
	assert.Equal(t, StateRunning, s.State())

	require.Eventually(t, func() bool { return len(calls.snapshot()) >= 2 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()
	assert.Equal(t, StateStopped, s.State())
	assert.True(t, s.NextRun().IsZero())

	times := calls.snapshot()
	gap := times[1].Sub(times[0])
	assert.GreaterOrEqual(t, gap, period-30*time.Millisecond)
	assert.Less(t, gap, 2*period)

	stats := s.Stats()
	assert.Equal(t, 1, stats.Failures)
	assert.GreaterOrEqual(t, stats.Runs, 2)

	n := len(times)
	time.Sleep(3 * period)
	assert.Len(t, calls.snapshot(), n, "no ticks after stop")
}

func TestScheduler_PanicIsIsolated(t *testing.T) {
	var calls atomic.Int32
	s := New(func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return nil
	})
	require.NoError(t, s.startEvery(100*time.Millisecond))
	defer s.Stop()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, s.Stats().Failures)
}

func TestScheduler_StartAndStopAreIdempotent(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil })

	s.Stop()
	assert.Equal(t, StateStopped, s.State())

	require.NoError(t, s.StartImmediately())
	require.NoError(t, s.StartImmediately())
	require.NoError(t, s.StartWithCustomInterval(5))
	assert.Equal(t, StateRunning, s.State())

	s.Stop()
	s.Stop()
	assert.Equal(t, StateStopped, s.State())
}

func TestScheduler_InvalidInterval(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil })
	err := s.StartWithCustomInterval(0)
	assert.ErrorIs(t, err, ErrSchedule)
	assert.Equal(t, StateStopped, s.State())
}

func TestScheduler_NextRunAtHourBoundary(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil })
	require.NoError(t, s.StartAtNextHourBoundary())
	defer s.Stop()

	next := s.NextRun()
	now := time.Now()
	assert.True(t, next.After(now))
	assert.LessOrEqual(t, next.Sub(now), time.Hour)
	assert.Equal(t, 0, next.Minute())
	assert.Equal(t, 0, next.Second())
}

func TestScheduler_StopCancelsAfterGracePeriod(t *testing.T) {
	started := make(chan struct{})
	var cancelled atomic.Bool
	s := New(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}, WithGracePeriod(50*time.Millisecond), WithHardWait(time.Second))

	require.NoError(t, s.StartImmediately())
	<-started

	begin := time.Now()
	s.Stop()
	assert.GreaterOrEqual(t, time.Since(begin), 50*time.Millisecond)
	assert.True(t, cancelled.Load())
	assert.ErrorIs(t, s.Stats().LastError, context.Canceled)
}

func TestScheduler_StopGivesUpOnStuckRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	s := New(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}, WithGracePeriod(20*time.Millisecond), WithHardWait(20*time.Millisecond))

	require.NoError(t, s.StartImmediately())
	<-started

	begin := time.Now()
	s.Stop()
	assert.Less(t, time.Since(begin), time.Second)
	assert.Equal(t, StateStopped, s.State())
}

func TestScheduler_RunOnce(t *testing.T) {
	s := New(func(ctx context.Context) error { return errors.New("scrape failed") })
	err := s.RunOnce(context.Background())
	assert.EqualError(t, err, "scrape failed")
	assert.Equal(t, StateStopped, s.State())

	s = New(func(ctx context.Context) error { panic("bad row") })
	err = s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "task panic: bad row")
	assert.Equal(t, 1, s.Stats().Runs)
}

func TestFixedRate(t *testing.T) {
	anchor := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f := &fixedRate{anchor: anchor, interval: 10 * time.Minute, immediate: true}

	assert.Equal(t, anchor, f.Next(anchor))
	assert.Equal(t, anchor.Add(10*time.Minute), f.Next(anchor))
	assert.Equal(t, anchor.Add(30*time.Minute), f.Next(anchor.Add(25*time.Minute)))
	assert.Equal(t, anchor.Add(30*time.Minute), f.Next(anchor.Add(20*time.Minute)))
}

func TestScheduler_SlowRunsDoNotOverlapAndStayOnGrid(t *testing.T) {
	const (
		period  = 100 * time.Millisecond
		runTime = 150 * time.Millisecond
		slack   = 40 * time.Millisecond
	)
	var active, maxActive atomic.Int32
	calls := &callLog{}
	s := New(func(ctx context.Context) error {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		calls.add()
		time.Sleep(runTime)
		return nil
	})

	require.NoError(t, s.startEvery(period))
	require.Eventually(t, func() bool { return len(calls.snapshot()) >= 4 }, 3*time.Second, 10*time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), maxActive.Load(), "runs never overlap")

	times := calls.snapshot()
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), runTime, "run %d started before the previous one finished", i)

		off := times[i].Sub(times[0]) % period
		onGrid := off <= slack || period-off <= slack
		assert.True(t, onGrid, "run %d is %s off the fixed-rate grid", i, off)
	}
}
