// Package pipeline runs one end-to-end dashboard build: parse the due-list
// exports, fold in position and base-assignment snapshots, roll the flight
// hours history forward, and write the HTML document.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"fleetboard/internal/config"
	"fleetboard/internal/database"
	"fleetboard/internal/engine"
	"fleetboard/internal/models"
	"fleetboard/internal/parser"
	"fleetboard/internal/renderer"
	"fleetboard/internal/state"
)

// Runner holds everything one dashboard build needs. A Runner is reused
// across runs in daemon mode.
type Runner struct {
	cfg    *config.Config
	db     *database.DB
	parser *parser.Parser
	engine *engine.Engine
}

// New prepares a Runner against an already-open database.
func New(cfg *config.Config, db *database.DB) (*Runner, error) {
	p, err := parser.New(parser.Options{
		Intervals:            cfg.Intervals,
		ComponentWindowHours: cfg.Thresholds.ComponentWindowHrs,
		ComponentWindowDays:  cfg.Thresholds.ComponentWindowDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build due-list parser: %w", err)
	}

	return &Runner{
		cfg:    cfg,
		db:     db,
		parser: p,
		engine: engine.New(cfg.Thresholds),
	}, nil
}

// Run executes one build. The daily export is required; everything else
// degrades to an empty state when absent. The previous dashboard file is
// left untouched on any error.
func (r *Runner) Run(now time.Time) error {
	dailyPath := r.cfg.Path(r.cfg.DailyCSV)
	daily, err := r.parser.ParseFile(dailyPath)
	if err != nil {
		return fmt.Errorf("daily due list: %w", err)
	}

	dl := daily
	weeklyPath := r.cfg.Path(r.cfg.WeeklyCSV)
	if _, statErr := os.Stat(weeklyPath); statErr == nil {
		weekly, werr := r.parser.ParseFile(weeklyPath)
		if werr != nil {
			slog.Warn("Skipping unreadable weekly due list", "path", weeklyPath, "error", werr)
		} else {
			dl = parser.Merge(weekly, daily)
		}
	} else {
		slog.Info("No weekly due list, using daily export only", "path", weeklyPath)
	}
	dl.Finalize()

	positions := state.LoadPositions(r.cfg.Path(r.cfg.PositionsFile))
	assignments := state.LoadAssignments(r.cfg.Path(r.cfg.AssignmentsFile))

	history, err := r.rollHistory(dl, now)
	if err != nil {
		return err
	}

	intervals := make([]int, 0, len(r.cfg.Intervals))
	for interval := range r.cfg.Intervals {
		intervals = append(intervals, interval)
	}
	sort.Ints(intervals)

	res := r.engine.Build(dl, positions, assignments, history, intervals, now)

	html, err := renderer.Render(res, assignments, now)
	if err != nil {
		return err
	}

	outPath := r.cfg.Path(r.cfg.DashboardOut)
	if err := renderer.WriteFile(outPath, html); err != nil {
		return err
	}

	slog.Info("Dashboard written",
		"path", outPath,
		"aircraft", res.Summary.TotalAircraft,
		"inspections_critical", res.Summary.InspectionCritical,
		"components_overdue", res.Summary.ComponentsOverdue)
	return nil
}

// rollHistory records the export's airframe-hours readings under its report
// date, imports the legacy JSON history into an empty store, prunes past the
// retention window, and returns the retained per-aircraft series.
func (r *Runner) rollHistory(dl *parser.DueList, now time.Time) (map[string][]models.DailyHours, error) {
	repo := r.db.FlightHours()

	empty, err := repo.IsEmpty()
	if err != nil {
		return nil, fmt.Errorf("flight hours store: %w", err)
	}
	if empty {
		legacy := state.LoadLegacyHistory(r.cfg.Path(r.cfg.LegacyHistory))
		if len(legacy) > 0 {
			if err := repo.RecordBatch(legacy); err != nil {
				return nil, fmt.Errorf("failed to import legacy history: %w", err)
			}
			slog.Info("Imported legacy flight hours history", "records", len(legacy))
		}
	}

	// A stale export re-run later must not fabricate fresh readings, so the
	// date key is the export's report date, not the run date.
	reportDay := now.Format("2006-01-02")
	if dl.ReportDate != nil {
		reportDay = dl.ReportDate.Format("2006-01-02")
	}
	var readings []models.FlightHoursRecord
	for tail, meta := range dl.Meta {
		if meta.AirframeHours == nil {
			continue
		}
		readings = append(readings, models.FlightHoursRecord{
			TailNumber: tail,
			Date:       reportDay,
			Hours:      *meta.AirframeHours,
		})
	}
	if len(readings) > 0 {
		if err := repo.RecordBatch(readings); err != nil {
			return nil, fmt.Errorf("failed to record flight hours: %w", err)
		}
	}

	cutoff := now.AddDate(0, 0, -r.cfg.Thresholds.HistoryRetainDays).Format("2006-01-02")
	pruned, err := repo.Prune(cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to prune flight hours: %w", err)
	}
	if pruned > 0 {
		slog.Debug("Pruned flight hours history", "removed", pruned, "cutoff", cutoff)
	}

	history, err := repo.HistorySince(cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load flight hours history: %w", err)
	}
	return history, nil
}
