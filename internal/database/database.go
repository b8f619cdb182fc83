package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite connection holding the flight-hours history.
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// optimizeSQLite applies pragmas suited to a small single-writer history file.
func optimizeSQLite(db *sql.DB) error {
	// WAL mode allows the dashboard build to read while a fetch task writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// NORMAL is safe under WAL and faster than FULL
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// FlightHours returns the flight-hours history repository.
func (d *DB) FlightHours() FlightHoursRepository {
	return &flightHoursRepository{db: d.db}
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	schema := `CREATE TABLE IF NOT EXISTS flight_hours (
		tail TEXT NOT NULL,
		date TEXT NOT NULL,
		hours REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (tail, date)
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_flight_hours_date ON flight_hours(date)`,
	}

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create flight_hours table: %w", err)
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
