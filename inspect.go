// Package dbinspect describes the tables, columns, primary keys and foreign
// keys of a MySQL, Postgres, CockroachDB, SQL Server, Oracle or SQLite
// database in one engine-independent shape.
//
//	insp, db, err := dbinspect.Open(ctx, "pg", dsn, dbinspect.Options{})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	cols, err := insp.ColumnInfo(ctx, "users")
package dbinspect

import (
	"context"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/database/connect"
	"github.com/koustreak/dbinspect/internal/schema"
)

type (
	Inspector  = schema.Inspector
	Table      = schema.Table
	Column     = schema.Column
	ColumnRef  = schema.ColumnRef
	ForeignKey = schema.ForeignKey
	Client     = schema.Client
	Options    = schema.Options
	DB         = database.DB
)

const (
	ClientMySQL       = schema.ClientMySQL
	ClientPostgres    = schema.ClientPostgres
	ClientCockroachDB = schema.ClientCockroachDB
	ClientMSSQL       = schema.ClientMSSQL
	ClientOracle      = schema.ClientOracle
	ClientSQLite      = schema.ClientSQLite
)

// ParseClient maps a client name such as "pg" or "sqlite3" to a Client.
func ParseClient(name string) (Client, error) { return schema.ParseClient(name) }

// New builds the inspector for client over an existing connection.
func New(client Client, db DB, opts Options) (Inspector, error) {
	return schema.New(client, db, opts)
}

// WithSchema narrows insp to one schema where the engine supports it.
func WithSchema(insp Inspector, name string) (Inspector, error) {
	return schema.WithSchema(insp, name)
}

// Open connects to dsn with the driver for client and returns the inspector
// together with the connection, which the caller closes.
func Open(ctx context.Context, client string, dsn string, opts Options) (Inspector, DB, error) {
	c, err := schema.ParseClient(client)
	if err != nil {
		return nil, nil, err
	}

	cfg := database.DefaultConfig(c.Driver(), dsn)
	cfg.SearchPath = opts.SearchPath

	db, err := connect.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	insp, err := schema.New(c, db, opts)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return insp, db, nil
}
