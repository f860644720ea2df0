package schema

import (
	"strings"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/logger"
)

// Client is a supported database engine.
type Client int

const (
	ClientMySQL Client = iota + 1
	ClientPostgres
	ClientCockroachDB
	ClientMSSQL
	ClientOracle
	ClientSQLite
)

// Default schemas used when Options leaves the choice open.
const (
	DefaultPostgresSchema = "public"
	DefaultMSSQLSchema    = "dbo"
)

var clientAliases = map[string]Client{
	"mysql":          ClientMySQL,
	"mysql2":         ClientMySQL,
	"postgres":       ClientPostgres,
	"postgresql":     ClientPostgres,
	"pg":             ClientPostgres,
	"pgnative":       ClientPostgres,
	"cockroachdb":    ClientCockroachDB,
	"mssql":          ClientMSSQL,
	"oracledb":       ClientOracle,
	"oracle":         ClientOracle,
	"sqlite3":        ClientSQLite,
	"better-sqlite3": ClientSQLite,
}

// ParseClient maps a client identifier from connection configuration to a
// Client. Matching ignores case and surrounding space.
func ParseClient(name string) (Client, error) {
	c, ok := clientAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, errs.UnsupportedEngine(name)
	}
	return c, nil
}

func (c Client) String() string {
	switch c {
	case ClientMySQL:
		return "mysql"
	case ClientPostgres:
		return "postgres"
	case ClientCockroachDB:
		return "cockroachdb"
	case ClientMSSQL:
		return "mssql"
	case ClientOracle:
		return "oracledb"
	case ClientSQLite:
		return "sqlite3"
	}
	return "unknown"
}

// Driver returns the connection driver that serves c.
func (c Client) Driver() database.Driver {
	switch c {
	case ClientMySQL:
		return database.DriverMySQL
	case ClientPostgres:
		return database.DriverPostgres
	case ClientCockroachDB:
		return database.DriverCockroachDB
	case ClientMSSQL:
		return database.DriverMSSQL
	case ClientOracle:
		return database.DriverOracle
	case ClientSQLite:
		return database.DriverSQLite
	}
	return ""
}

// Options tune inspector construction. The zero value is valid.
type Options struct {
	// Schema selects the schema (Postgres, CockroachDB, SQL Server) or the
	// database (MySQL). Empty means the engine default.
	Schema string

	// SearchPath overrides the Postgres / CockroachDB search path. When empty
	// it comes from Schema, then db.SearchPath(), then "public".
	SearchPath []string

	Logger *logger.Logger
}

// New constructs the inspector for client over db.
func New(client Client, db database.DB, opts Options) (Inspector, error) {
	if db == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "database connection is nil")
	}

	switch client {
	case ClientMySQL:
		name := opts.Schema
		if name == "" {
			name = db.Database()
		}
		return NewMySQLInspector(db, name, opts.Logger), nil
	case ClientPostgres:
		return NewPostgresInspector(db, searchPath(db, opts), opts.Logger), nil
	case ClientCockroachDB:
		return NewCockroachInspector(db, searchPath(db, opts), opts.Logger), nil
	case ClientMSSQL:
		name := opts.Schema
		if name == "" {
			if sp := db.SearchPath(); len(sp) > 0 {
				name = sp[0]
			}
		}
		if name == "" {
			name = DefaultMSSQLSchema
		}
		return NewMSSQLInspector(db, name, opts.Logger), nil
	case ClientOracle:
		return NewOracleInspector(db, opts.Logger), nil
	case ClientSQLite:
		return NewSQLiteInspector(db, opts.Logger), nil
	}
	return nil, errs.UnsupportedEngine(client.String())
}

func searchPath(db database.DB, opts Options) []string {
	switch {
	case len(opts.SearchPath) > 0:
		return opts.SearchPath
	case opts.Schema != "":
		return []string{opts.Schema}
	case len(db.SearchPath()) > 0:
		return db.SearchPath()
	}
	return []string{DefaultPostgresSchema}
}
