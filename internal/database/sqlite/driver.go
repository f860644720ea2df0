// Package sqlite opens SQLite databases as database.DB through the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"strings"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/database/sqldb"
	_ "modernc.org/sqlite" // register "sqlite" driver
)

// MainSchema is the name SQLite gives the primary attached database.
const MainSchema = "main"

// New opens a SQLite database from cfg. The DSN is a file path or URI,
// e.g. "file:app.db?mode=ro". In-memory databases are pinned to a single
// connection, since every new connection would see an empty database.
func New(ctx context.Context, cfg *database.Config) (*sqldb.DB, error) {
	return sqldb.Open(ctx, cfg, sqldb.Options{
		Driver:     database.DriverSQLite,
		DriverName: "sqlite",
		Database:   MainSchema,
		MapError:   mapError,
		Sequential: IsMemory(cfg.DSN),
	})
}

// IsMemory reports whether dsn names an in-memory database.
func IsMemory(dsn string) bool {
	return dsn == ":memory:" ||
		strings.HasPrefix(dsn, "file::memory:") ||
		strings.Contains(dsn, "mode=memory")
}
