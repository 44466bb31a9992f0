package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go driver, registered as "sqlite"
)

// DB wraps a *sql.DB with the store's migration and query helpers.
type DB struct {
	*sql.DB
}

// Open opens (creating if absent) the SQLite database at path and brings its
// schema up to date. path accepts the bare filesystem path; callers that
// receive a "sqlite://" DSN from config should strip the scheme first.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// SQLite permits exactly one writer; the queue and worker pool already
	// serialize writes at the application layer, so a single connection
	// avoids SQLITE_BUSY under concurrent access without WAL tuning.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := sqlDB.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign_keys: %w", err)
	}

	if err := Migrate(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &DB{DB: sqlDB}, nil
}
