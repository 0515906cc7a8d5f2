package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSchedulerRunsTasksOnIndependentIntervals(t *testing.T) {
	var fast, slow atomic.Int64

	s := New(
		Task{Name: "fast", Interval: 50 * time.Millisecond, Run: func() error {
			fast.Add(1)
			return nil
		}},
		Task{Name: "slow", Interval: time.Hour, Run: func() error {
			slow.Add(1)
			return nil
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	waitFor(t, 5*time.Second, func() bool { return fast.Load() >= 3 })

	// The slow task only got its startup run.
	assert.Equal(t, int64(1), slow.Load())
}

func TestSchedulerSurvivesFailingAndPanickingTasks(t *testing.T) {
	var failing, panicking, healthy atomic.Int64

	s := New(
		Task{Name: "failing", Interval: 30 * time.Millisecond, Run: func() error {
			failing.Add(1)
			return errors.New("task error")
		}},
		Task{Name: "panicking", Interval: 30 * time.Millisecond, Run: func() error {
			panicking.Add(1)
			panic("task panic")
		}},
		Task{Name: "healthy", Interval: 30 * time.Millisecond, Run: func() error {
			healthy.Add(1)
			return nil
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	waitFor(t, 5*time.Second, func() bool {
		return failing.Load() >= 3 && panicking.Load() >= 3 && healthy.Load() >= 3
	})
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	var runs atomic.Int64

	s := New(Task{Name: "task", Interval: 20 * time.Millisecond, Run: func() error {
		runs.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	waitFor(t, 5*time.Second, func() bool { return runs.Load() >= 1 })

	cancel()
	time.Sleep(100 * time.Millisecond)
	after := runs.Load()
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}
