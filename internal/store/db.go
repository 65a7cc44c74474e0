// Package store provides SQLite-based simulation state storage.
package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for simulation state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS empires (
		id INTEGER PRIMARY KEY,
		dynasty_name TEXT NOT NULL,
		warrant_number TEXT NOT NULL,
		total_wealth REAL NOT NULL,
		total_industry REAL NOT NULL,
		influence INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS actors (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS planets (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		empire_id INTEGER NOT NULL,
		planet_type TEXT NOT NULL,
		loyalty REAL NOT NULL,
		wealth REAL NOT NULL,
		industry REAL NOT NULL,
		resources REAL NOT NULL,
		rebellious INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS upgrades (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		cost_wealth REAL NOT NULL,
		cost_industry REAL NOT NULL,
		cost_resources REAL NOT NULL,
		suitable_type TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY,
		planet_id INTEGER NOT NULL,
		upgrade_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		start_date TEXT NOT NULL,
		completion_date TEXT
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY,
		planet_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		severity INTEGER NOT NULL,
		description TEXT NOT NULL,
		resolved INTEGER NOT NULL,
		occurred_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS routes (
		id INTEGER PRIMARY KEY,
		from_planet_id INTEGER NOT NULL,
		to_planet_id INTEGER NOT NULL,
		navigator_id INTEGER NOT NULL,
		stable INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY,
		trace_id TEXT NOT NULL,
		sender_id INTEGER NOT NULL,
		receiver_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		message_type TEXT,
		command_id INTEGER,
		payload_json TEXT,
		sent_at TEXT NOT NULL,
		delivered INTEGER NOT NULL,
		distorted INTEGER NOT NULL,
		completed INTEGER NOT NULL,
		completion_date TEXT
	);

	CREATE TABLE IF NOT EXISTS sim_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_planets_empire ON planets(empire_id);
	CREATE INDEX IF NOT EXISTS idx_projects_planet ON projects(planet_id);
	CREATE INDEX IF NOT EXISTS idx_events_planet ON events(planet_id);
	CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id);
	CREATE INDEX IF NOT EXISTS idx_messages_trace ON messages(trace_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMeta stores a key-value pair in simulation metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO sim_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM sim_meta WHERE key = ?", key)
	return value, err
}

// HasState reports whether a previous save exists.
func (db *DB) HasState() bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM empires"); err != nil {
		return false
	}
	return n > 0
}
