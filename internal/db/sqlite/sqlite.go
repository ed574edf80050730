// Package sqlite is the embedded link store: a single-file SQLite database
// through modernc.org/sqlite, or a remote libSQL database when the path is a
// libsql:// or wss:// URL.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const (
	driverSQLite = "sqlite"
	driverLibSQL = "libsql"

	busyTimeoutMillis = 5000
)

// Config controls how the database is opened.
type Config struct {
	Path     string // file path, ":memory:", or libsql:// / wss:// URL
	MaxConns int    // upper bound on open connections; excess callers queue
}

// Open opens and pings the database. The returned *sql.DB is the process-wide
// pool; callers close it on shutdown.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	driver, dsn := DataSource(cfg.Path)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 1
	}
	// Every connection to :memory: is a separate database.
	if cfg.Path == ":memory:" {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	return db, nil
}

// DataSource picks the driver for path and builds its DSN. Local files get
// WAL journaling and a busy timeout so concurrent writers wait instead of
// failing with SQLITE_BUSY.
func DataSource(path string) (driver, dsn string) {
	if isRemote(path) {
		return driverLibSQL, path
	}

	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Set("_txlock", "immediate")

	if path == ":memory:" {
		return driverSQLite, "file::memory:?" + params.Encode()
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return driverSQLite, path + sep + params.Encode()
	}
	return driverSQLite, "file:" + path + "?" + params.Encode()
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "libsql://") || strings.HasPrefix(path, "wss://")
}
