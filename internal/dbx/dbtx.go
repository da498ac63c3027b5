// Package dbx provides tiny DB helpers shared by the local stores: a minimal
// query interface (DBTX) implemented by both *sql.DB and *sql.Tx, and an
// opener for the client's SQLite files.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DBTX is the subset of database/sql used by our repos.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

// BusyTimeoutMillis is how long a statement waits on a locked database file.
const BusyTimeoutMillis = 5000

// SQLiteDSN turns a file path into a modernc sqlite DSN with the busy
// timeout set. A path that already is a "file:" URI keeps its own query.
func SQLiteDSN(path string) string {
	pragma := fmt.Sprintf("_pragma=busy_timeout(%d)", BusyTimeoutMillis)
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + pragma
	}
	return "file:" + path + "?" + pragma
}

// OpenSQLite opens the SQLite database at path (creating the file if
// needed) with a single connection, so writers never contend inside the
// process, and checks that it is reachable.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
