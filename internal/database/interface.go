package database

import "context"

// DB is the connectivity contract the inspectors run their catalog queries
// through. The engine packages (postgres, mysql, mssql, oracle, sqlite)
// implement it; nothing above this package imports a driver directly.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Query executes a statement that returns multiple rows. Placeholders use
	// the engine's native syntax: $1 (Postgres, CockroachDB), @p1 (SQL
	// Server), :1 (Oracle), ? (MySQL, SQLite).
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a statement that returns at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) (Row, error)

	// Driver reports which engine sits behind the connection.
	Driver() Driver

	// Database reports the active database / catalog name, empty when the
	// connection string does not name one.
	Database() string

	// SearchPath reports the schema list configured for the connection.
	SearchPath() []string
}

// Concurrent is implemented by connections that can run several queries at
// the same time (pools). Connections without it are treated as sequential.
type Concurrent interface {
	Concurrent() bool
}

// IsConcurrent reports whether db allows overlapping queries.
func IsConcurrent(db DB) bool {
	c, ok := db.(Concurrent)
	return ok && c.Concurrent()
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	Next() bool

	// Scan copies the current row's columns into dest.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
