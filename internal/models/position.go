package models

import "time"

// AircraftPosition is the latest known position report for one aircraft,
// as written to the positions snapshot by the SkyRouter fetcher.
type AircraftPosition struct {
	TailNumber       string    `json:"-"`
	Status           string    `json:"status"`
	AtBase           bool      `json:"at_base"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Altitude         string    `json:"altitude,omitempty"`
	Velocity         string    `json:"velocity,omitempty"`
	Heading          string    `json:"heading,omitempty"`
	DistanceFromBase float64   `json:"distance_from_base"`
	Timestamp        time.Time `json:"timestamp"`
}

// PositionSnapshot is the on-disk shape of skyrouter_status.json.
// Aircraft is keyed by tail number; the fetcher keeps only the newest
// report per tail.
type PositionSnapshot struct {
	LastUpdated time.Time                   `json:"last_updated"`
	Aircraft    map[string]AircraftPosition `json:"aircraft"`
}
