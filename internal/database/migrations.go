package database

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered, append-only migration list. New schema changes
// get a new version; applied versions are tracked in the migrations table.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_sessions",
		SQL: `
			CREATE TABLE IF NOT EXISTS sessions (
				representative_id TEXT PRIMARY KEY,
				captured_at INTEGER NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				address TEXT,
				entry_count INTEGER NOT NULL DEFAULT 0,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		Version: 2,
		Name:    "create_visit_locations",
		SQL: `
			CREATE TABLE IF NOT EXISTS visit_locations (
				visit_id TEXT PRIMARY KEY,
				representative_id TEXT NOT NULL,
				session_id TEXT,
				location_name TEXT NOT NULL,
				location_type TEXT NOT NULL DEFAULT 'general',
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				address TEXT,
				visit_date TEXT NOT NULL,
				visit_time TEXT NOT NULL,
				visit_duration INTEGER NOT NULL DEFAULT 30,
				visit_outcome TEXT NOT NULL DEFAULT 'other',
				weather TEXT,
				area_type TEXT,
				notes TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);

			CREATE INDEX IF NOT EXISTS idx_visits_rep_date
				ON visit_locations(representative_id, visit_date);
			CREATE INDEX IF NOT EXISTS idx_visits_rep_time
				ON visit_locations(representative_id, visit_time);
		`,
	},
	{
		Version: 3,
		Name:    "create_route_blueprints",
		SQL: `
			CREATE TABLE IF NOT EXISTS route_blueprints (
				representative_id TEXT NOT NULL,
				date TEXT NOT NULL,
				total_visits INTEGER NOT NULL,
				total_distance_km REAL NOT NULL,
				route_efficiency REAL NOT NULL,
				travel_minutes INTEGER NOT NULL,
				visiting_minutes INTEGER NOT NULL,
				start_location TEXT,
				end_location TEXT,
				visit_locations TEXT NOT NULL,
				coverage_areas TEXT,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (representative_id, date)
			);
		`,
	},
	{
		Version: 4,
		Name:    "create_location_patterns",
		SQL: `
			CREATE TABLE IF NOT EXISTS location_patterns (
				representative_id TEXT NOT NULL,
				cluster_key TEXT NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				visit_frequency INTEGER NOT NULL DEFAULT 0,
				avg_visit_duration REAL NOT NULL DEFAULT 0,
				success_rate REAL NOT NULL DEFAULT 0,
				last_visit_time TEXT,
				last_location_name TEXT,
				recent_visits TEXT,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (representative_id, cluster_key)
			);

			CREATE INDEX IF NOT EXISTS idx_patterns_rep_freq
				ON location_patterns(representative_id, visit_frequency);
		`,
	},
}

// Migrate applies all pending migrations in version order
func Migrate(db *sql.DB) error {
	if err := initMigrationsTable(db); err != nil {
		return err
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
	}

	return nil
}

func initMigrationsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func applyMigration(db *sql.DB, m Migration) error {
	return Transaction(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(m.SQL); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name)
		return err
	})
}
