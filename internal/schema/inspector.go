// Package schema reads table, column and key metadata from a database
// catalog and reports it in one engine-independent model.
//
// Construct an Inspector with New, passing the client identifier from the
// connection configuration:
//
//	client, err := schema.ParseClient("pg")
//	insp, err := schema.New(client, db, schema.Options{})
//	cols, err := insp.ColumnInfo(ctx, "users")
//
// Lookups of a single table or column return nil when it does not exist.
// Errors always mean the catalog query itself failed.
package schema

import (
	"context"

	"github.com/koustreak/dbinspect/internal/errs"
)

// Inspector is implemented once per engine.
type Inspector interface {
	// Tables lists base-table names, ordered by name.
	Tables(ctx context.Context) ([]string, error)

	// TableInfo returns metadata for every base table.
	TableInfo(ctx context.Context) ([]Table, error)

	// Table returns metadata for one table, or nil when it does not exist.
	Table(ctx context.Context, table string) (*Table, error)

	// HasTable reports whether a base table exists.
	HasTable(ctx context.Context, table string) (bool, error)

	// Columns lists column names of table, or of every table when table is "".
	// Hidden and system columns are left out.
	Columns(ctx context.Context, table string) ([]ColumnRef, error)

	// ColumnInfo returns full column metadata for table, or for every table
	// when table is "".
	ColumnInfo(ctx context.Context, table string) ([]Column, error)

	// Column returns one column, or nil when it does not exist. The result
	// equals the matching element of ColumnInfo(ctx, table).
	Column(ctx context.Context, table, column string) (*Column, error)

	// HasColumn reports whether table has column.
	HasColumn(ctx context.Context, table, column string) (bool, error)

	// Primary returns the primary key column of table. It returns "" when
	// the table has no primary key, or when the key spans several columns.
	Primary(ctx context.Context, table string) (string, error)

	// ForeignKeys lists foreign keys of table, or of every table when table
	// is "". The result is never nil.
	ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)
}

// SchemaSelector is implemented by inspectors whose engine has schemas
// inside a database (Postgres, CockroachDB, SQL Server).
//
// WithSchema changes the inspector in place and returns it. It must not be
// called while other goroutines use the same inspector.
type SchemaSelector interface {
	Inspector
	WithSchema(schema string) Inspector
}

// WithSchema switches insp to schema when the engine supports it.
func WithSchema(insp Inspector, schema string) (Inspector, error) {
	sel, ok := insp.(SchemaSelector)
	if !ok {
		return nil, errs.New(errs.ErrKindInvalidInput, "inspector does not support selecting a schema")
	}
	return sel.WithSchema(schema), nil
}
