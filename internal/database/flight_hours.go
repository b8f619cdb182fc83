package database

import (
	"database/sql"
	"fmt"

	"fleetboard/internal/models"
)

// FlightHoursRepository defines the interface for flight-hours history
// storage operations.
type FlightHoursRepository interface {
	RecordBatch(records []models.FlightHoursRecord) error
	Prune(cutoffDate string) (int64, error)
	HistorySince(cutoffDate string) (map[string][]models.DailyHours, error)
	IsEmpty() (bool, error)
}

type flightHoursRepository struct {
	db *sql.DB
}

// NewFlightHoursRepository wraps an existing connection; used by tests.
func NewFlightHoursRepository(db *sql.DB) FlightHoursRepository {
	return &flightHoursRepository{db: db}
}

// RecordBatch upserts one or more observations in a single transaction.
// Re-observing the same (tail, date) replaces the reading, matching how the
// old JSON history behaved.
func (r *flightHoursRepository) RecordBatch(records []models.FlightHoursRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO flight_hours (tail, date, hours) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.TailNumber, rec.Date, rec.Hours); err != nil {
			return fmt.Errorf("failed to insert flight hours record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Prune deletes observations older than the cutoff date (exclusive) and
// returns how many rows were removed. Dates compare lexically because they
// are stored as YYYY-MM-DD.
func (r *flightHoursRepository) Prune(cutoffDate string) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM flight_hours WHERE date < ?`, cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("failed to prune flight hours: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	return n, nil
}

// HistorySince returns each aircraft's observations on or after the cutoff
// date, oldest first.
func (r *flightHoursRepository) HistorySince(cutoffDate string) (map[string][]models.DailyHours, error) {
	rows, err := r.db.Query(
		`SELECT tail, date, hours FROM flight_hours WHERE date >= ? ORDER BY tail, date`,
		cutoffDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight hours: %w", err)
	}
	defer rows.Close()

	history := make(map[string][]models.DailyHours)
	for rows.Next() {
		var tail, date string
		var hours float64
		if err := rows.Scan(&tail, &date, &hours); err != nil {
			return nil, fmt.Errorf("failed to scan flight hours row: %w", err)
		}
		history[tail] = append(history[tail], models.DailyHours{Date: date, Hours: hours})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read flight hours rows: %w", err)
	}

	return history, nil
}

// IsEmpty reports whether the history table has no rows yet, which triggers
// the one-time legacy JSON import.
func (r *flightHoursRepository) IsEmpty() (bool, error) {
	var ignored int
	err := r.db.QueryRow(`SELECT 1 FROM flight_hours LIMIT 1`).Scan(&ignored)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check flight_hours table: %w", err)
	}
	return false, nil
}
