package schema

import (
	"context"
	"fmt"

	"github.com/stephenafamo/scan"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/logger"
)

// base carries what every engine inspector needs: the connection and a
// logger already tagged with the engine name.
type base struct {
	db  database.DB
	log *logger.Logger
}

func newBase(db database.DB, log *logger.Logger) base {
	if log == nil {
		log = logger.Nop()
	}
	return base{
		db:  db,
		log: log.With().Str("engine", string(db.Driver())).Logger(),
	}
}

func (b *base) trace(op, table string) {
	b.log.DebugWith("catalog query", map[string]any{"op": op, "table": table})
}

// fetch runs a catalog query and maps each row onto T by db tag.
func fetch[T any](ctx context.Context, b *base, op, table, q string, args ...any) ([]T, error) {
	b.trace(op, table)
	rows, err := scan.All(ctx, database.Queryer(b.db), scan.StructMapper[T](), q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}

// fetchTables is fetch for Table rows. Extras the engine does not report
// come back from the mapper as "", so they are reset to nil here.
func fetchTables(ctx context.Context, b *base, table, q string, args ...any) ([]Table, error) {
	tables, err := fetch[Table](ctx, b, "table info", table, q, args...)
	if err != nil {
		return nil, err
	}
	for i := range tables {
		t := &tables[i]
		t.Comment = nonEmpty(t.Comment)
		t.Collation = nonEmpty(t.Collation)
		t.Engine = nonEmpty(t.Engine)
		t.Owner = nonEmpty(t.Owner)
		t.Catalog = nonEmpty(t.Catalog)
		t.SQL = nonEmpty(t.SQL)
	}
	return tables, nil
}

// fetchStrings runs a single-column catalog query.
func fetchStrings(ctx context.Context, b *base, op, table, q string, args ...any) ([]string, error) {
	b.trace(op, table)
	names, err := scan.All(ctx, database.Queryer(b.db), scan.SingleColumnMapper[string], q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// exists runs a query returning one integer row and reports whether it is
// greater than zero.
func exists(ctx context.Context, b *base, op, table, q string, args ...any) (bool, error) {
	b.trace(op, table)
	row, err := b.db.QueryRow(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

func firstTable(tables []Table) *Table {
	if len(tables) == 0 {
		return nil
	}
	return &tables[0]
}

func firstColumn(cols []Column) *Column {
	if len(cols) == 0 {
		return nil
	}
	return &cols[0]
}

func refsOf(cols []Column) []ColumnRef {
	refs := make([]ColumnRef, 0, len(cols))
	for _, c := range cols {
		refs = append(refs, ColumnRef{Table: c.Table, Column: c.Name})
	}
	return refs
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
