package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrSlotTaken is returned by CreateBooking when a conflicting booking
	// appeared since the slot was computed.
	ErrSlotTaken = errors.New("slot already booked")
)

// DB wraps sql.DB for the booking service.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS barbers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			specialty TEXT,
			experience TEXT,
			rating REAL DEFAULT 0,
			phone TEXT,
			email TEXT,
			is_active BOOLEAN DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS services (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 30,
			price REAL NOT NULL DEFAULT 0,
			is_active BOOLEAN DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS weekly_schedules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			barber_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			is_active BOOLEAN DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (barber_id, day_of_week),
			FOREIGN KEY (barber_id) REFERENCES barbers(id)
		)`,

		`CREATE TABLE IF NOT EXISTS lunch_breaks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			barber_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (barber_id) REFERENCES barbers(id)
		)`,

		`CREATE TABLE IF NOT EXISTS monthly_plans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			barber_id INTEGER NOT NULL,
			client_name TEXT NOT NULL,
			client_phone TEXT NOT NULL,
			active BOOLEAN DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (barber_id) REFERENCES barbers(id)
		)`,

		`CREATE TABLE IF NOT EXISTS monthly_plan_slots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			plan_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			time TEXT NOT NULL,
			FOREIGN KEY (plan_id) REFERENCES monthly_plans(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			service_id INTEGER NOT NULL,
			service_name TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			barber_id INTEGER NOT NULL,
			barber_name TEXT NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			client_name TEXT NOT NULL,
			client_phone TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'confirmed',
			price REAL NOT NULL DEFAULT 0,
			reminder_sent BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (barber_id) REFERENCES barbers(id)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_barbers_active ON barbers(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_barber ON weekly_schedules(barber_id, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_lunch_breaks_barber_date ON lunch_breaks(barber_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_barber ON monthly_plans(barber_id, active)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_times ON bookings(barber_id, start_time, end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
