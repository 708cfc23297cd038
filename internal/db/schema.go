package db

import "database/sql"

// SchemaSQL is the complete schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// The tree is stored one row per leaf. A leaf is a scalar, a list, or an empty
// object, stored as JSON under its full slash separated path. Non-empty objects
// have no row of their own: they exist through their descendants, so the
// subtree of P is P itself plus the half-open range [P + "/", P + "0").
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests load it
// via GetSchemaSQL() instead of declaring tables of their own.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	path TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT
) WITHOUT ROWID;
`

// InitSchema creates the schema on a fresh database and migrates older ones.
func InitSchema(db *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(db)
	}

	// A nodes table without version tracking predates migrations.
	var nodesCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='nodes'").Scan(&nodesCount)
	if err != nil {
		return err
	}
	if nodesCount > 0 {
		return RunMigrations(db)
	}

	// Completely fresh install - create modern schema directly
	if _, err := db.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(db); err != nil {
		return err
	}
	// Mark all migrations as applied for fresh installs
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
