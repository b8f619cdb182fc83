package models

// FlightHoursRecord is one observed airframe-hours reading for one aircraft
// on one day. The history is append-only; re-observing the same (tail, date)
// replaces the reading.
type FlightHoursRecord struct {
	TailNumber string  `json:"tail"`
	Date       string  `json:"date"` // YYYY-MM-DD
	Hours      float64 `json:"hours"`
}

// DailyHours is one point of an aircraft's recent hours series.
type DailyHours struct {
	Date  string
	Hours float64
}

// FlightHoursStats is the per-aircraft rollup computed fresh each run from
// the recorded history. Pointer fields are nil when there is not enough
// history to compute them.
type FlightHoursStats struct {
	CurrentHours      *float64
	Daily             []DailyHours // last 7 observations, oldest first
	Weekly            *float64     // hours flown over the last 7 days
	Monthly           *float64     // hours flown over the last 30 days
	AvgDaily          *float64
	ProjectionWeekly  *float64
	ProjectionMonthly *float64
}
