// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files are read from an fs.FS (usually an embedded directory) and
// follow the naming convention {version}_{description}.sql, for example
// "001_initial_schema.sql". Applied versions and their checksums are tracked
// in the schema_migrations table; a changed file for an applied version is
// reported as ErrChecksumMismatch instead of being re-run.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(), migration.NewExecutor(db), migrations.FS, ".", logger)
//	if _, err := manager.Run(ctx); err != nil {
//		return fmt.Errorf("apply migrations: %w", err)
//	}
package migration
