package models

import "time"

// DueStatus classifies how urgent a maintenance item is. Values are ordered
// by severity so the more urgent of two statuses can be picked directly.
type DueStatus int

const (
	StatusUnknown DueStatus = iota
	StatusCurrent
	StatusDueSoon
	StatusCritical
	StatusOverdue
)

func (s DueStatus) String() string {
	switch s {
	case StatusCurrent:
		return "current"
	case StatusDueSoon:
		return "due-soon"
	case StatusCritical:
		return "critical"
	case StatusOverdue:
		return "overdue"
	default:
		return "unknown"
	}
}

// MoreUrgent returns the more urgent of two statuses.
func MoreUrgent(a, b DueStatus) DueStatus {
	if b > a {
		return b
	}
	return a
}

// ItemCategory distinguishes the two kinds of due-list rows the dashboard
// tracks: scheduled phase inspections and component retirement/overhaul items.
type ItemCategory string

const (
	CategoryInspection ItemCategory = "inspection"
	CategoryComponent  ItemCategory = "component"
)

// MaintenanceItem is one row of a CAMP due-list export, reduced to the fields
// the dashboard needs. Identity is (TailNumber, Description). Items are
// immutable within a run.
type MaintenanceItem struct {
	TailNumber  string
	Description string
	Category    ItemCategory

	// IntervalHours is the phase inspection bucket (50, 100, 200, ...).
	// Zero for component items.
	IntervalHours int

	// Remaining thresholds as reported by CAMP. Either may be absent.
	RemainingHours *float64
	RemainingDays  *float64

	// DueDate and DueHours are derived at parse time: report date plus
	// remaining days, and airframe hours plus remaining hours.
	DueDate  *time.Time
	DueHours *float64

	// LastCompleted is not present in either export variant consumed today;
	// it is carried so richer exports populate it without a schema change.
	LastCompleted *time.Time

	// StatusText is CAMP's own "Next Due Status" wording, used as a fallback
	// classification when no numeric threshold is present.
	StatusText string

	// RII marks items whose disposition or description requires inspection.
	RII bool
}

// AircraftMeta is the per-aircraft header data repeated on every due-list row.
type AircraftMeta struct {
	TailNumber    string
	AirframeHours *float64
	ReportDate    *time.Time
}
