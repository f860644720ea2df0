// Package mysql opens MySQL / MariaDB connections as database.DB.
package mysql

import (
	"context"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/database/sqldb"
	"github.com/koustreak/dbinspect/internal/errs"
)

// New opens a MySQL pool from cfg. The DSN uses the go-sql-driver format,
// e.g. "user:pass@tcp(localhost:3306)/shop". The database named in the DSN
// becomes DB.Database, which the MySQL inspector uses as its schema.
func New(ctx context.Context, cfg *database.Config) (*sqldb.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mcfg, err := gomysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid mysql DSN", err)
	}
	if cfg.ConnectTimeout > 0 && mcfg.Timeout == 0 {
		mcfg.Timeout = cfg.ConnectTimeout
	}

	connector, err := gomysql.NewConnector(mcfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid mysql config", err)
	}

	return sqldb.Open(ctx, cfg, sqldb.Options{
		Driver:    database.DriverMySQL,
		Connector: connector,
		Database:  mcfg.DBName,
		MapError:  mapError,
	})
}
