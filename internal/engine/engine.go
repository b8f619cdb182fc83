// Package engine joins due-list items with the auxiliary snapshots by tail
// number and derives dashboard-ready records. Missing auxiliary data never
// drops an aircraft; at worst its base and position stay unknown.
package engine

import (
	"sort"
	"strings"
	"time"

	"fleetboard/internal/config"
	"fleetboard/internal/models"
	"fleetboard/internal/parser"
)

// Engine derives due statuses and flight-hour rollups.
type Engine struct {
	th config.Thresholds
}

func New(th config.Thresholds) *Engine {
	return &Engine{th: th}
}

// Summary is the counter row at the top of the maintenance tab.
type Summary struct {
	TotalAircraft      int
	InspectionCritical int // overdue or critical inspection cells
	InspectionComing   int // due-soon inspection cells
	ComponentsOverdue  int
}

// Result is one run's derived record set.
type Result struct {
	ReportDate string
	Records    []models.DashboardRecord
	Intervals  []int // configured phase intervals, ascending
	Summary    Summary
}

// Build merges the due list with positions, assignments and hours history
// into the final record set, sorted by urgency then tail number.
func (e *Engine) Build(dl *parser.DueList, positions *models.PositionSnapshot, assignments *models.AssignmentSnapshot, history map[string][]models.DailyHours, intervals []int, now time.Time) Result {
	res := Result{
		ReportDate: reportDateLabel(dl.ReportDate, now),
		Intervals:  append([]int(nil), intervals...),
	}
	sort.Ints(res.Intervals)

	for _, tail := range dl.Tails() {
		meta := dl.Meta[tail]

		rec := models.DashboardRecord{
			TailNumber:    tail,
			AirframeHours: meta.AirframeHours,
			Inspections:   make(map[int]models.RatedItem),
		}

		if positions != nil {
			if pos, ok := positions.Aircraft[tail]; ok {
				p := pos
				rec.Position = &p
			}
		}
		if assignments != nil {
			rec.BaseCode = assignments.BaseFor(tail)
		}

		for interval, item := range dl.Inspections[tail] {
			rated := models.RatedItem{
				MaintenanceItem: item,
				Status:          e.Classify(item, meta.AirframeHours, now),
			}
			rec.Inspections[interval] = rated
			rec.DueStatus = models.MoreUrgent(rec.DueStatus, rated.Status)

			switch rated.Status {
			case models.StatusOverdue, models.StatusCritical:
				res.Summary.InspectionCritical++
			case models.StatusDueSoon:
				res.Summary.InspectionComing++
			}
		}

		for _, item := range dl.Components[tail] {
			rated := models.RatedItem{
				MaintenanceItem: item,
				Status:          e.Classify(item, meta.AirframeHours, now),
			}
			rec.Components = append(rec.Components, rated)
			rec.DueStatus = models.MoreUrgent(rec.DueStatus, rated.Status)

			if rated.Status == models.StatusOverdue {
				res.Summary.ComponentsOverdue++
			}
		}

		rec.Hours = e.HoursStats(history[tail], meta.AirframeHours, now)

		res.Records = append(res.Records, rec)
	}

	res.Summary.TotalAircraft = len(res.Records)

	// Most urgent first, tail number as the stable tie-break.
	sort.SliceStable(res.Records, func(i, j int) bool {
		if res.Records[i].DueStatus != res.Records[j].DueStatus {
			return res.Records[i].DueStatus > res.Records[j].DueStatus
		}
		return res.Records[i].TailNumber < res.Records[j].TailNumber
	})

	return res
}

// Classify derives an item's due status. Date- and hour-based thresholds are
// evaluated independently and the more urgent result wins; when neither is
// available the CAMP status text decides.
func (e *Engine) Classify(item models.MaintenanceItem, currentHours *float64, now time.Time) models.DueStatus {
	status := models.StatusUnknown

	if item.DueDate != nil {
		status = models.MoreUrgent(status, e.classifyDate(*item.DueDate, now))
	} else if item.RemainingDays != nil {
		due := now.AddDate(0, 0, int(*item.RemainingDays))
		status = models.MoreUrgent(status, e.classifyDate(due, now))
	}

	if remaining := remainingHours(item, currentHours); remaining != nil {
		status = models.MoreUrgent(status, e.classifyHours(*remaining))
	}

	if status == models.StatusUnknown {
		status = classifyFromText(item.StatusText)
	}

	return status
}

func (e *Engine) classifyDate(due, now time.Time) models.DueStatus {
	days := int(due.Sub(now).Hours() / 24)
	switch {
	case due.Before(now):
		return models.StatusOverdue
	case days <= e.th.CriticalDays:
		return models.StatusCritical
	case days <= e.th.DueSoonDays:
		return models.StatusDueSoon
	default:
		return models.StatusCurrent
	}
}

func (e *Engine) classifyHours(remaining float64) models.DueStatus {
	switch {
	case remaining < 0:
		return models.StatusOverdue
	case remaining <= e.th.CriticalHours:
		return models.StatusCritical
	case remaining <= e.th.DueSoonHours:
		return models.StatusDueSoon
	default:
		return models.StatusCurrent
	}
}

// remainingHours prefers the live difference between the due threshold and
// the cumulative flown hours, falling back to the export's remaining value.
func remainingHours(item models.MaintenanceItem, currentHours *float64) *float64 {
	if item.DueHours != nil && currentHours != nil {
		r := *item.DueHours - *currentHours
		return &r
	}
	return item.RemainingHours
}

// classifyFromText is the fallback classification from CAMP's own Next Due
// Status wording.
func classifyFromText(statusText string) models.DueStatus {
	s := strings.ToUpper(strings.TrimSpace(statusText))
	switch {
	case s == "":
		return models.StatusUnknown
	case strings.Contains(s, "PAST DUE"):
		return models.StatusOverdue
	case strings.Contains(s, "COMING DUE"):
		return models.StatusDueSoon
	case strings.Contains(s, "WITHIN TOLERANCE"), strings.Contains(s, "10+"):
		return models.StatusCurrent
	default:
		return models.StatusUnknown
	}
}

// HoursStats computes the per-aircraft flight-hours rollup from its recorded
// history, oldest-first. With no history the rollup is all-nil except the
// current reading.
func (e *Engine) HoursStats(history []models.DailyHours, currentHours *float64, now time.Time) models.FlightHoursStats {
	stats := models.FlightHoursStats{CurrentHours: currentHours}
	if len(history) == 0 || currentHours == nil {
		return stats
	}

	// Last 7 observations, oldest first, for the mini chart.
	start := len(history) - 7
	if start < 0 {
		start = 0
	}
	stats.Daily = append(stats.Daily, history[start:]...)

	if len(history) < 2 {
		return stats
	}

	latest := history[len(history)-1]
	weekAgo := now.AddDate(0, 0, -7).Format("2006-01-02")
	monthAgo := now.AddDate(0, 0, -30).Format("2006-01-02")

	if h := readingAtOrBefore(history, weekAgo); h != nil {
		w := latest.Hours - *h
		stats.Weekly = &w
	}
	if h := readingAtOrBefore(history, monthAgo); h != nil {
		m := latest.Hours - *h
		stats.Monthly = &m

		avg := m / 30
		pw := avg * 7
		pm := avg * 30
		stats.AvgDaily = &avg
		stats.ProjectionWeekly = &pw
		stats.ProjectionMonthly = &pm
	}

	return stats
}

// readingAtOrBefore returns the newest reading on or before the cutoff date.
func readingAtOrBefore(history []models.DailyHours, cutoff string) *float64 {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Date <= cutoff {
			h := history[i].Hours
			return &h
		}
	}
	return nil
}

// reportDateLabel renders the header's report date, falling back to the run
// date when no row carried one.
func reportDateLabel(reportDate *time.Time, now time.Time) string {
	t := now
	if reportDate != nil {
		t = *reportDate
	}
	return strings.ToUpper(t.Format("02 Jan 2006"))
}
