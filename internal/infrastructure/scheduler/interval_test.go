package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerFiresOnInterval(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(10 * time.Millisecond)
	var ticks int32

	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		atomic.AddInt32(&ticks, 1)
	}))
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ticks) >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerStopPreventsFurtherTicks(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(10 * time.Millisecond)
	var ticks int32

	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		atomic.AddInt32(&ticks, 1)
	}))

	time.Sleep(25 * time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	seen := atomic.LoadInt32(&ticks)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, seen, atomic.LoadInt32(&ticks))
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(10 * time.Millisecond)
	var ticks int32
	job := func(time.Time) { atomic.AddInt32(&ticks, 1) }

	ctx := context.Background()
	require.NoError(t, s.Start(ctx, job))
	require.NoError(t, s.Start(ctx, job))
	defer s.Stop(ctx)

	time.Sleep(35 * time.Millisecond)

	// A double Start must not run the job twice per tick.
	assert.LessOrEqual(t, atomic.LoadInt32(&ticks), int32(4))
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Minute)
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestSchedulerZeroIntervalNeverStarts(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(0)
	var ticks int32
	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		atomic.AddInt32(&ticks, 1)
	}))

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&ticks))
}
