// Package state loads the auxiliary JSON snapshots written by the fetch and
// assignment jobs. Every loader treats an absent file as empty state: the
// dashboard must still build on a first run or when a fetch job has never
// succeeded.
package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	"fleetboard/internal/models"
)

// LoadPositions reads the positions snapshot. Absent file yields an empty
// snapshot; an unreadable one is logged and also yields empty state, because
// missing position data only blanks the location badges.
func LoadPositions(path string) *models.PositionSnapshot {
	empty := &models.PositionSnapshot{Aircraft: map[string]models.AircraftPosition{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Could not read positions snapshot", "path", path, "error", err)
		}
		return empty
	}

	var snap models.PositionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("Could not parse positions snapshot", "path", path, "error", err)
		return empty
	}
	if snap.Aircraft == nil {
		snap.Aircraft = map[string]models.AircraftPosition{}
	}
	for tail, pos := range snap.Aircraft {
		pos.TailNumber = tail
		snap.Aircraft[tail] = pos
	}
	return &snap
}

// LoadAssignments reads the base assignments snapshot. Absent or unreadable
// files yield nil, which the engine renders as "no assignment data".
func LoadAssignments(path string) *models.AssignmentSnapshot {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Could not read assignments snapshot", "path", path, "error", err)
		}
		return nil
	}

	var snap models.AssignmentSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("Could not parse assignments snapshot", "path", path, "error", err)
		return nil
	}
	return &snap
}

// legacyEntry is the per-day shape of the old flight_hours_history.json:
// {"N123AB": {"2025-02-25": {"hours": 1234.5, "date": "2025-02-25"}, ...}}
type legacyEntry struct {
	Hours float64 `json:"hours"`
	Date  string  `json:"date"`
}

// LoadLegacyHistory reads the old JSON hours history, used to seed the
// sqlite store on first run. Absent file yields no records.
func LoadLegacyHistory(path string) []models.FlightHoursRecord {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Could not read legacy hours history", "path", path, "error", err)
		}
		return nil
	}

	var raw map[string]map[string]legacyEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("Could not parse legacy hours history", "path", path, "error", err)
		return nil
	}

	var records []models.FlightHoursRecord
	for tail, days := range raw {
		for date, entry := range days {
			records = append(records, models.FlightHoursRecord{
				TailNumber: tail,
				Date:       date,
				Hours:      entry.Hours,
			})
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].TailNumber != records[j].TailNumber {
			return records[i].TailNumber < records[j].TailNumber
		}
		return records[i].Date < records[j].Date
	})
	return records
}
