package models

// RatedItem is a maintenance item together with its derived due status.
type RatedItem struct {
	MaintenanceItem
	Status DueStatus
}

// DashboardRecord is the fully derived per-aircraft record the renderer
// consumes. Computed fresh each run, never persisted.
type DashboardRecord struct {
	TailNumber    string
	BaseCode      string // "" means unknown base
	AirframeHours *float64

	// Position is nil when the tail has no entry in the positions snapshot;
	// the record still renders, with an unknown-base marker.
	Position *AircraftPosition

	// Inspections holds the most urgent item per configured phase interval.
	// Intervals with no due item are absent.
	Inspections map[int]RatedItem

	// Components are retirement/overhaul items within the component window,
	// sorted most urgent first.
	Components []RatedItem

	Hours FlightHoursStats

	// DueStatus is the worst status across all of the aircraft's items.
	DueStatus DueStatus
}
