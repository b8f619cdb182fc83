// Package assign places aircraft at operating bases from their latest
// positions and writes the assignments snapshot the dashboard's Bases tab
// reads.
package assign

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/skypies/geo"

	"fleetboard/internal/models"
)

const milesPerKM = 0.621371

// DistanceMiles returns the great-circle distance in statute miles.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	a := geo.Latlong{Lat: lat1, Long: lon1}
	b := geo.Latlong{Lat: lat2, Long: lon2}
	return a.DistKM(b) * milesPerKM
}

// Nearest returns the closest base to a position and the distance to it.
// ok is false when no bases are configured.
func Nearest(bases []models.Base, lat, lon float64) (models.Base, float64, bool) {
	var (
		closest models.Base
		minDist float64
		found   bool
	)
	for _, b := range bases {
		d := DistanceMiles(lat, lon, b.Latitude, b.Longitude)
		if !found || d < minDist {
			closest, minDist, found = b, d, true
		}
	}
	return closest, minDist, found
}

// Assign builds a fresh assignments snapshot from the current positions.
// An aircraft is placed at the nearest base when within that base's radius;
// otherwise it is listed unassigned with its closest base and distance.
// Aircraft with no position keep their last known base from the previous
// snapshot, if any.
func Assign(bases []models.Base, positions *models.PositionSnapshot, previous *models.AssignmentSnapshot, now time.Time) *models.AssignmentSnapshot {
	snap := &models.AssignmentSnapshot{
		LastUpdated: now.UTC(),
		Source:      "skyrouter",
		Bases:       make(map[string]models.Base, len(bases)),
		Assignments: make(map[string]models.BaseAssignment, len(bases)),
	}
	for _, b := range bases {
		snap.Bases[b.ID] = b
		snap.Assignments[b.ID] = models.BaseAssignment{Status: "available"}
	}

	tails := make([]string, 0, len(positions.Aircraft))
	for tail := range positions.Aircraft {
		tails = append(tails, tail)
	}
	sort.Strings(tails)

	for _, tail := range tails {
		pos := positions.Aircraft[tail]
		base, dist, ok := Nearest(bases, pos.Latitude, pos.Longitude)
		if ok && dist <= base.RadiusMiles {
			ba := snap.Assignments[base.ID]
			d := round2(dist)
			ba.Aircraft = append(ba.Aircraft, models.AssignedAircraft{
				TailNumber:    tail,
				DistanceMiles: &d,
				AtBase:        true,
			})
			ba.Status = "occupied"
			snap.Assignments[base.ID] = ba
			continue
		}

		ua := models.UnassignedAircraft{TailNumber: tail}
		if ok {
			d := round2(dist)
			ua.ClosestBase = base.Name
			ua.DistanceMiles = &d
		}
		if previous != nil {
			ua.LastKnownBase = previous.BaseFor(tail)
		}
		snap.Unassigned = append(snap.Unassigned, ua)
	}

	return snap
}

// WriteSnapshot writes the assignments snapshot atomically.
func WriteSnapshot(path string, snap *models.AssignmentSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal assignments: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write assignments snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace assignments snapshot: %w", err)
	}
	return nil
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
