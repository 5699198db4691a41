// Package database provides SQLite persistence for Exposure Core.
//
// This package manages the database connection, schema migrations, and
// health checks. Repositories in the domain packages build on the DB
// wrapper it exposes.
//
// # Features
//
//   - WAL mode for concurrent reads during writes
//   - Busy timeout to avoid "database is locked" errors
//   - Embedded schema migrations applied at startup
//   - Restrictive file permissions (0600)
//
// # Migrations
//
// Migration files live in the migrations/ package and are embedded into
// the binary. Filenames follow the pattern:
//
//	YYYYMMDD_HHMMSS_description.up.sql
//	YYYYMMDD_HHMMSS_description.down.sql
//
// Each migration runs in its own transaction and is recorded in the
// schema_migrations table.
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
