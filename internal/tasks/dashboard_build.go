package tasks

import (
	"context"
	"time"

	"fleetboard/internal/pipeline"
)

// DashboardBuild regenerates the dashboard HTML from whatever inputs are on
// disk at the time of the run.
type DashboardBuild struct {
	runner   *pipeline.Runner
	interval time.Duration
}

func NewDashboardBuild(runner *pipeline.Runner, interval time.Duration) *DashboardBuild {
	return &DashboardBuild{runner: runner, interval: interval}
}

func (t *DashboardBuild) Name() string { return "dashboard_build" }

func (t *DashboardBuild) Interval() time.Duration { return t.interval }

func (t *DashboardBuild) Run(ctx context.Context) error {
	return t.runner.Run(time.Now())
}
