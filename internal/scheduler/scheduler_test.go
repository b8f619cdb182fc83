package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingTask struct {
	runs     atomic.Int32
	interval time.Duration
	err      error
}

func (t *countingTask) Run(ctx context.Context) error {
	t.runs.Add(1)
	return t.err
}

func (t *countingTask) Interval() time.Duration { return t.interval }

func (t *countingTask) Name() string { return "counting" }

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	task := &countingTask{interval: 20 * time.Millisecond}

	s := New(context.Background())
	s.AddTask(task)
	s.Start()

	time.Sleep(70 * time.Millisecond)
	s.Stop()

	// One immediate run plus at least two ticks.
	assert.GreaterOrEqual(t, task.runs.Load(), int32(3))
}

func TestScheduler_StopHaltsTasks(t *testing.T) {
	task := &countingTask{interval: 10 * time.Millisecond}

	s := New(context.Background())
	s.AddTask(task)
	s.Start()
	time.Sleep(25 * time.Millisecond)
	s.Stop()

	runs := task.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, runs, task.runs.Load())
}

func TestScheduler_FailingTaskKeepsRunning(t *testing.T) {
	task := &countingTask{interval: 10 * time.Millisecond, err: errors.New("boom")}

	s := New(context.Background())
	s.AddTask(task)
	s.Start()
	time.Sleep(35 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, task.runs.Load(), int32(2))
}
