package tasks

import (
	"context"
	"log/slog"
	"time"

	"fleetboard/internal/assign"
	"fleetboard/internal/config"
	"fleetboard/internal/fetcher"
	"fleetboard/internal/models"
	"fleetboard/internal/state"
)

// PositionRefresh pulls the latest fleet positions from SkyRouter, recomputes
// base assignments, and persists both snapshots for the dashboard build.
type PositionRefresh struct {
	client          *fetcher.Client
	bases           []models.Base
	positionsPath   string
	assignmentsPath string
	interval        time.Duration
}

func NewPositionRefresh(client *fetcher.Client, cfg *config.Config) *PositionRefresh {
	return &PositionRefresh{
		client:          client,
		bases:           cfg.Bases,
		positionsPath:   cfg.Path(cfg.PositionsFile),
		assignmentsPath: cfg.Path(cfg.AssignmentsFile),
		interval:        time.Duration(cfg.Daemon.FetchMinutes) * time.Minute,
	}
}

func (t *PositionRefresh) Name() string { return "position_refresh" }

func (t *PositionRefresh) Interval() time.Duration { return t.interval }

// Run fetches positions and merges them over the previous snapshot so an
// aircraft that did not report this cycle keeps its last known position.
func (t *PositionRefresh) Run(ctx context.Context) error {
	fresh, err := t.client.Fetch(ctx)
	if err != nil {
		return err
	}

	snap := mergePositions(state.LoadPositions(t.positionsPath), fresh)
	if err := fetcher.WriteSnapshot(t.positionsPath, snap); err != nil {
		return err
	}

	previous := state.LoadAssignments(t.assignmentsPath)
	assignments := assign.Assign(t.bases, snap, previous, fresh.LastUpdated)
	if err := assign.WriteSnapshot(t.assignmentsPath, assignments); err != nil {
		return err
	}

	slog.Info("Position snapshot refreshed",
		"aircraft", len(snap.Aircraft),
		"reported", len(fresh.Aircraft),
		"unassigned", len(assignments.Unassigned))
	return nil
}

// mergePositions overlays newly-reported aircraft on the previous snapshot.
func mergePositions(previous, fresh *models.PositionSnapshot) *models.PositionSnapshot {
	merged := &models.PositionSnapshot{
		LastUpdated: fresh.LastUpdated,
		Aircraft:    make(map[string]models.AircraftPosition, len(previous.Aircraft)+len(fresh.Aircraft)),
	}
	for tail, pos := range previous.Aircraft {
		merged.Aircraft[tail] = pos
	}
	for tail, pos := range fresh.Aircraft {
		merged.Aircraft[tail] = pos
	}
	return merged
}
