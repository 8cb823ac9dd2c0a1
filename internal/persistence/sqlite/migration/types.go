package migration

import "time"

// Migration is a single versioned schema change.
type Migration struct {
	Version     int
	Description string
	Name        string
	SQL         string
	Checksum    string
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version       int
	Checksum      string
	AppliedAt     time.Time
	ExecutionTime time.Duration
}

// Status describes the schema state relative to the available migrations.
type Status struct {
	CurrentVersion int
	Applied        []AppliedMigration
	Pending        []Migration
}
