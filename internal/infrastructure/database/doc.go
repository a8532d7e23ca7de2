// Package database provides the SQLite connection that backs lumicore's
// device store and parameter history.
//
// This package manages:
//   - Opening the database file with WAL mode and a busy timeout
//   - Versioned schema migrations read from an fs.FS
//   - Transaction and health-check helpers
//
// The schema itself lives in the top-level migrations package, which
// registers its embedded files with MigrationsFS.
//
//	┌─────────────────┐       ┌──────────────────────┐
//	│ device.Registry │──────▶│ devices (STRICT)     │
//	└─────────────────┘       ├──────────────────────┤
//	┌─────────────────┐       │ param_history        │
//	│ HistoryRecorder │──────▶│ (device_id, created) │
//	└─────────────────┘       └──────────────────────┘
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are NULLABLE or carry a DEFAULT, and
// every .up.sql ships with a .down.sql.
package database
