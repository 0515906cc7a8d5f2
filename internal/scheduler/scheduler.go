// Package scheduler runs the periodic reconciliation tasks: orphan media
// reaping, unlock notification sweeps and the profile safety net. One
// Scheduler runs per process, constructed and started by the composition
// root; the PROCESS_ROLE gate in main keeps supervised reloads from
// starting a second one.
package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"
)

// Task is one periodic job. Errors are logged, never fatal.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func() error
}

type Scheduler struct {
	tasks []Task
}

func New(tasks ...Task) *Scheduler {
	return &Scheduler{tasks: tasks}
}

// Start launches the scheduler goroutine. Every task gets its own ticker
// inside a single loop; a panicking or failing task never stops the loop
// or the other tickers. Each task also runs once shortly after start so a
// restarted process catches up without waiting a full interval.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	slog.Info("scheduler started", "tasks", len(s.tasks))

	tickers := make([]*time.Ticker, len(s.tasks))
	cases := make([]<-chan time.Time, len(s.tasks))
	for i, task := range s.tasks {
		tickers[i] = time.NewTicker(task.Interval)
		cases[i] = tickers[i].C
		slog.Info("scheduler task registered", "task", task.Name, "interval", task.Interval.String())
	}
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	for i := range s.tasks {
		s.runTask(&s.tasks[i])
	}

	// Sub-second polling keeps the loop responsive without a dedicated
	// event driver; the tickers accumulate at most one pending tick each.
	poll := time.NewTicker(500 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-poll.C:
			for i := range s.tasks {
				select {
				case <-cases[i]:
					s.runTask(&s.tasks[i])
				default:
				}
			}
		}
	}
}

// runTask executes one task invocation behind a recover barrier. The loop
// must stay alive across unbounded task failures.
func (s *Scheduler) runTask(task *Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduled task panicked",
				"task", task.Name,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	start := time.Now()
	if err := task.Run(); err != nil {
		slog.Error("scheduled task failed", "task", task.Name, "error", err)
		return
	}
	slog.Debug("scheduled task completed", "task", task.Name, "duration", time.Since(start).String())
}
