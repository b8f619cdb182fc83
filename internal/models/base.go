package models

import "time"

// Base is an operating location aircraft can be assigned to.
type Base struct {
	ID          string  `json:"-" mapstructure:"id"`
	Name        string  `json:"name" mapstructure:"name"`
	Latitude    float64 `json:"lat" mapstructure:"lat"`
	Longitude   float64 `json:"lon" mapstructure:"lon"`
	RadiusMiles float64 `json:"radius_miles" mapstructure:"radius_miles"`
}

// AssignedAircraft is one aircraft placed at (or away from) a base.
type AssignedAircraft struct {
	TailNumber    string   `json:"tail"`
	Hours         *float64 `json:"hours"`
	DistanceMiles *float64 `json:"distance,omitempty"`
	AtBase        bool     `json:"at_base"`
	SeenUTC       string   `json:"seen,omitempty"`
}

// UnassignedAircraft is an aircraft with a position that is outside every
// base radius, or with no usable position at all.
type UnassignedAircraft struct {
	TailNumber    string   `json:"tail"`
	Hours         *float64 `json:"hours"`
	ClosestBase   string   `json:"closest_base,omitempty"`
	DistanceMiles *float64 `json:"distance_from_closest,omitempty"`
	LastKnownBase string   `json:"last_known_base,omitempty"`
}

// BaseAssignment is the per-base entry of the assignments snapshot.
type BaseAssignment struct {
	Aircraft []AssignedAircraft `json:"aircraft"`
	Status   string             `json:"status"` // "occupied" or "available"
}

// AssignmentSnapshot is the on-disk shape of base_assignments.json.
type AssignmentSnapshot struct {
	LastUpdated time.Time                 `json:"last_updated"`
	Source      string                    `json:"source"`
	Bases       map[string]Base           `json:"bases"`
	Assignments map[string]BaseAssignment `json:"assignments"`
	Unassigned  []UnassignedAircraft      `json:"unassigned"`
}

// BaseFor returns the base ID an aircraft is currently assigned to, or ""
// when it is unassigned or unknown.
func (s *AssignmentSnapshot) BaseFor(tail string) string {
	if s == nil {
		return ""
	}
	for id, ba := range s.Assignments {
		for _, ac := range ba.Aircraft {
			if ac.TailNumber == tail {
				return id
			}
		}
	}
	return ""
}
