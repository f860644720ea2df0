// Package connect opens the database.DB implementation matching a config's
// driver.
package connect

import (
	"context"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/database/mssql"
	"github.com/koustreak/dbinspect/internal/database/mysql"
	"github.com/koustreak/dbinspect/internal/database/oracle"
	"github.com/koustreak/dbinspect/internal/database/postgres"
	"github.com/koustreak/dbinspect/internal/database/sqlite"
	"github.com/koustreak/dbinspect/internal/errs"
)

// Open connects with the driver selected by cfg.Driver and pings it.
func Open(ctx context.Context, cfg *database.Config) (database.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case database.DriverPostgres, database.DriverCockroachDB:
		return postgres.New(ctx, cfg)
	case database.DriverMySQL:
		return mysql.New(ctx, cfg)
	case database.DriverMSSQL:
		return mssql.New(ctx, cfg)
	case database.DriverOracle:
		return oracle.New(ctx, cfg)
	case database.DriverSQLite:
		return sqlite.New(ctx, cfg)
	default:
		return nil, errs.UnsupportedEngine(string(cfg.Driver))
	}
}
