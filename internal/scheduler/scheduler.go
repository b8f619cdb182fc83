package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is a unit of recurring work: a position refresh, a dashboard
// rebuild. Run is invoked once at startup and then every Interval.
type Task interface {
	Run(ctx context.Context) error
	Interval() time.Duration
	Name() string
}

// Scheduler drives tasks on their own tickers and tracks consecutive
// failures per task so a flaky upstream shows up in the logs with a count.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	tasks  []Task
	wg     sync.WaitGroup
}

// New creates a scheduler bound to the given parent context.
func New(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		tasks:  make([]Task, 0),
	}
}

// AddTask registers a task. Must be called before Start.
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start launches one goroutine per task.
func (s *Scheduler) Start() {
	slog.Info("Starting task scheduler")
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task)
	}
	slog.Info("Task scheduler started", "task_count", len(s.tasks))
}

// Stop cancels all tasks and waits for them to finish.
func (s *Scheduler) Stop() {
	slog.Info("Stopping task scheduler")
	s.cancel()
	s.wg.Wait()
	slog.Info("Task scheduler stopped")
}

func (s *Scheduler) runTask(task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval())
	defer ticker.Stop()

	failures := 0
	run := func() {
		start := time.Now()
		if err := task.Run(s.ctx); err != nil {
			failures++
			slog.Error("Task failed",
				"task", task.Name(),
				"error", err,
				"consecutive_failures", failures)
			return
		}
		if failures > 0 {
			slog.Info("Task recovered", "task", task.Name(), "after_failures", failures)
		}
		failures = 0
		slog.Debug("Task completed", "task", task.Name(), "duration", time.Since(start))
	}

	// Run immediately on start so the dashboard is fresh right away.
	run()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
