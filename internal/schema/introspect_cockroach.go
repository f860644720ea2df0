package schema

import (
	"context"
	"strings"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/logger"
)

// CockroachInspector reads CockroachDB through information_schema, with
// pg_catalog for comments and owners. Search path resolution happens after
// the query: every query returns rows from all path schemas and inPath keeps
// the first schema per table.
type CockroachInspector struct {
	base
	searchPath []string
}

func NewCockroachInspector(db database.DB, searchPath []string, log *logger.Logger) *CockroachInspector {
	if len(searchPath) == 0 {
		searchPath = []string{DefaultPostgresSchema}
	}
	return &CockroachInspector{base: newBase(db, log), searchPath: searchPath}
}

func (c *CockroachInspector) WithSchema(schema string) Inspector {
	c.searchPath = []string{schema}
	return c
}

func (c *CockroachInspector) SearchPath() []string { return c.searchPath }

// inPath keeps, for every table name, only the rows that belong to the
// earliest schema of path holding that table.
func inPath[T any](rows []T, path []string, key func(T) (table, schema string)) []T {
	rank := make(map[string]int, len(path))
	for i, s := range path {
		if _, ok := rank[s]; !ok {
			rank[s] = i
		}
	}

	best := make(map[string]int)
	for _, r := range rows {
		t, s := key(r)
		rk, ok := rank[s]
		if !ok {
			continue
		}
		if b, seen := best[t]; !seen || rk < b {
			best[t] = rk
		}
	}

	out := make([]T, 0, len(rows))
	for _, r := range rows {
		t, s := key(r)
		if rk, ok := rank[s]; ok && rk == best[t] {
			out = append(out, r)
		}
	}
	return out
}

func (c *CockroachInspector) Tables(ctx context.Context) ([]string, error) {
	tables, err := c.tableInfo(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	return names, nil
}

func (c *CockroachInspector) TableInfo(ctx context.Context) ([]Table, error) {
	return c.tableInfo(ctx, "")
}

func (c *CockroachInspector) Table(ctx context.Context, table string) (*Table, error) {
	tables, err := c.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	return firstTable(tables), nil
}

func (c *CockroachInspector) tableInfo(ctx context.Context, table string) ([]Table, error) {
	const q = `
	SELECT
		t.table_name,
		t.table_schema,
		pg_catalog.obj_description(rel.oid, 'pg_class') AS comment,
		pg_catalog.pg_get_userbyid(rel.relowner) AS owner
	FROM information_schema.tables t
	JOIN pg_catalog.pg_namespace nsp ON nsp.nspname = t.table_schema
	JOIN pg_catalog.pg_class rel
		ON rel.relnamespace = nsp.oid AND rel.relname = t.table_name
	WHERE t.table_schema = ANY($1::text[])
	  AND t.table_type = 'BASE TABLE'
	  AND ($2::text = '' OR t.table_name = $2::text)
	ORDER BY t.table_name`
	tables, err := fetchTables(ctx, &c.base, table, q, c.searchPath, table)
	if err != nil {
		return nil, err
	}
	return inPath(tables, c.searchPath, func(t Table) (string, string) { return t.Name, t.Schema }), nil
}

func (c *CockroachInspector) HasTable(ctx context.Context, table string) (bool, error) {
	const q = `
	SELECT COUNT(*)
	FROM information_schema.tables
	WHERE table_schema = ANY($1::text[])
	  AND table_type = 'BASE TABLE'
	  AND table_name = $2::text`
	return exists(ctx, &c.base, "has table", table, q, c.searchPath, table)
}

type crColumnRef struct {
	Table  string `db:"table_name"`
	Schema string `db:"table_schema"`
	Column string `db:"column_name"`
}

func (c *CockroachInspector) Columns(ctx context.Context, table string) ([]ColumnRef, error) {
	const q = `
	SELECT col.table_name, col.table_schema, col.column_name
	FROM information_schema.columns col
	JOIN information_schema.tables t
		ON t.table_schema = col.table_schema
		AND t.table_name = col.table_name
		AND t.table_type = 'BASE TABLE'
	WHERE col.table_schema = ANY($1::text[])
	  AND col.is_hidden = 'NO'
	  AND ($2::text = '' OR col.table_name = $2::text)
	ORDER BY col.table_name, col.ordinal_position`
	rows, err := fetch[crColumnRef](ctx, &c.base, "list columns", table, q, c.searchPath, table)
	if err != nil {
		return nil, err
	}
	rows = inPath(rows, c.searchPath, func(r crColumnRef) (string, string) { return r.Table, r.Schema })

	refs := make([]ColumnRef, 0, len(rows))
	for _, r := range rows {
		refs = append(refs, ColumnRef{Table: r.Table, Column: r.Column})
	}
	return refs, nil
}

func (c *CockroachInspector) HasColumn(ctx context.Context, table, column string) (bool, error) {
	refs, err := fetch[crColumnRef](ctx, &c.base, "has column", table, `
	SELECT col.table_name, col.table_schema, col.column_name
	FROM information_schema.columns col
	JOIN information_schema.tables t
		ON t.table_schema = col.table_schema
		AND t.table_name = col.table_name
		AND t.table_type = 'BASE TABLE'
	WHERE col.table_schema = ANY($1::text[])
	  AND col.is_hidden = 'NO'
	  AND col.table_name = $2::text`, c.searchPath, table)
	if err != nil {
		return false, err
	}
	refs = inPath(refs, c.searchPath, func(r crColumnRef) (string, string) { return r.Table, r.Schema })
	for _, r := range refs {
		if r.Column == column {
			return true, nil
		}
	}
	return false, nil
}

func (c *CockroachInspector) ColumnInfo(ctx context.Context, table string) ([]Column, error) {
	return c.columnInfo(ctx, table, "")
}

func (c *CockroachInspector) Column(ctx context.Context, table, column string) (*Column, error) {
	cols, err := c.columnInfo(ctx, table, column)
	if err != nil {
		return nil, err
	}
	return firstColumn(cols), nil
}

type crColumn struct {
	Table                string  `db:"table_name"`
	Schema               string  `db:"table_schema"`
	Name                 string  `db:"column_name"`
	DataType             string  `db:"data_type"`
	MaxLength            *int64  `db:"max_length"`
	Precision            *int64  `db:"numeric_precision"`
	Scale                *int64  `db:"numeric_scale"`
	Nullable             string  `db:"is_nullable"`
	Default              *string `db:"default_value"`
	Generated            *string `db:"is_generated"`
	GenerationExpression *string `db:"generation_expression"`
	Identity             *string `db:"is_identity"`
	Comment              *string `db:"comment"`
}

func (r crColumn) column() Column {
	col := Column{
		Name:             r.Name,
		Table:            r.Table,
		Schema:           r.Schema,
		DataType:         r.DataType,
		MaxLength:        r.MaxLength,
		NumericPrecision: r.Precision,
		NumericScale:     r.Scale,
		IsNullable:       r.Nullable == "YES",
		Comment:          r.Comment,
	}

	expr := nonEmpty(r.GenerationExpression)
	switch g := strings.ToUpper(deref(r.Generated)); {
	case expr != nil && (g == "ALWAYS" || g == "YES"):
		col.IsGenerated = true
		col.GenerationExpression = expr
	default:
		col.DefaultValue = ParsePostgresDefault(r.Default)
	}

	def := deref(r.Default)
	col.HasAutoIncrement = strings.EqualFold(deref(r.Identity), "YES") ||
		strings.HasPrefix(def, "nextval(") ||
		strings.HasPrefix(def, "unique_rowid()")
	return col
}

func (c *CockroachInspector) columnInfo(ctx context.Context, table, column string) ([]Column, error) {
	const q = `
	SELECT
		col.table_name,
		col.table_schema,
		col.column_name,
		col.data_type,
		col.character_maximum_length AS max_length,
		col.numeric_precision,
		col.numeric_scale,
		col.is_nullable,
		col.column_default AS default_value,
		col.is_generated,
		col.generation_expression,
		col.is_identity,
		pg_catalog.col_description(rel.oid, col.ordinal_position::int) AS comment
	FROM information_schema.columns col
	JOIN information_schema.tables t
		ON t.table_schema = col.table_schema
		AND t.table_name = col.table_name
		AND t.table_type = 'BASE TABLE'
	JOIN pg_catalog.pg_namespace nsp ON nsp.nspname = col.table_schema
	JOIN pg_catalog.pg_class rel
		ON rel.relnamespace = nsp.oid AND rel.relname = col.table_name
	WHERE col.table_schema = ANY($1::text[])
	  AND col.is_hidden = 'NO'
	  AND ($2::text = '' OR col.table_name = $2::text)
	  AND ($3::text = '' OR col.column_name = $3::text)
	ORDER BY col.table_name, col.ordinal_position`

	var (
		raw  []crColumn
		keys []keyUsage
	)
	err := gather(ctx, c.db,
		func(ctx context.Context) (err error) {
			raw, err = fetch[crColumn](ctx, &c.base, "column info", table, q, c.searchPath, table, column)
			return err
		},
		func(ctx context.Context) (err error) {
			keys, err = c.keys(ctx, table)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	raw = inPath(raw, c.searchPath, func(r crColumn) (string, string) { return r.Table, r.Schema })
	keys = inPath(keys, c.searchPath, func(k keyUsage) (string, string) { return k.Table, k.Schema })

	cols := make([]Column, 0, len(raw))
	for _, r := range raw {
		cols = append(cols, r.column())
	}
	applyKeys(cols, keys)
	return cols, nil
}

// keys resolves constraint membership through pg_constraint so that
// constraint names shared by several tables of a schema stay apart.
func (c *CockroachInspector) keys(ctx context.Context, table string) ([]keyUsage, error) {
	const q = `
	SELECT
		rel.relname::STRING AS table_name,
		nsp.nspname::STRING AS table_schema,
		a.attname::STRING AS column_name,
		con.conname::STRING AS constraint_name,
		con.contype::STRING AS kind,
		array_length(con.conkey, 1)::INT8 AS column_count,
		fnsp.nspname::STRING AS foreign_key_schema,
		frel.relname::STRING AS foreign_key_table,
		fa.attname::STRING AS foreign_key_column
	FROM pg_catalog.pg_constraint con
	JOIN pg_catalog.pg_class rel ON rel.oid = con.conrelid
	JOIN pg_catalog.pg_namespace nsp ON nsp.oid = rel.relnamespace
	JOIN pg_catalog.pg_attribute a
		ON a.attrelid = con.conrelid AND a.attnum = con.conkey[1]
	LEFT JOIN pg_catalog.pg_class frel ON frel.oid = con.confrelid
	LEFT JOIN pg_catalog.pg_namespace fnsp ON fnsp.oid = frel.relnamespace
	LEFT JOIN pg_catalog.pg_attribute fa
		ON fa.attrelid = con.confrelid AND fa.attnum = con.confkey[1]
	WHERE nsp.nspname = ANY($1::text[])
	  AND con.contype IN ('p', 'u', 'f')
	  AND ($2::text = '' OR rel.relname = $2::text)`
	return fetch[keyUsage](ctx, &c.base, "column keys", table, q, c.searchPath, table)
}

func (c *CockroachInspector) Primary(ctx context.Context, table string) (string, error) {
	const q = `
	SELECT kcu.table_name, kcu.table_schema, kcu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON kcu.constraint_schema = tc.constraint_schema
		AND kcu.constraint_name = tc.constraint_name
		AND kcu.table_name = tc.table_name
	JOIN information_schema.columns col
		ON col.table_schema = kcu.table_schema
		AND col.table_name = kcu.table_name
		AND col.column_name = kcu.column_name
	WHERE tc.constraint_type = 'PRIMARY KEY'
	  AND tc.table_schema = ANY($1::text[])
	  AND tc.table_name = $2::text
	  AND col.is_hidden = 'NO'`
	rows, err := fetch[crColumnRef](ctx, &c.base, "primary key", table, q, c.searchPath, table)
	if err != nil {
		return "", err
	}
	rows = inPath(rows, c.searchPath, func(r crColumnRef) (string, string) { return r.Table, r.Schema })

	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Column)
	}
	return singlePrimary(names), nil
}

type crForeignKey struct {
	Table            string  `db:"table_name"`
	Schema           string  `db:"table_schema"`
	Column           string  `db:"column_name"`
	ForeignKeySchema *string `db:"foreign_key_schema"`
	ForeignKeyTable  string  `db:"foreign_key_table"`
	ForeignKeyColumn string  `db:"foreign_key_column"`
	ConstraintName   *string `db:"constraint_name"`
	OnUpdate         *string `db:"on_update"`
	OnDelete         *string `db:"on_delete"`
}

// ForeignKeys lists single-column foreign keys.
func (c *CockroachInspector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	const q = `
	SELECT
		rel.relname::STRING AS table_name,
		nsp.nspname::STRING AS table_schema,
		a.attname::STRING AS column_name,
		fnsp.nspname::STRING AS foreign_key_schema,
		frel.relname::STRING AS foreign_key_table,
		fa.attname::STRING AS foreign_key_column,
		con.conname::STRING AS constraint_name,
		con.confupdtype::STRING AS on_update,
		con.confdeltype::STRING AS on_delete
	FROM pg_catalog.pg_constraint con
	JOIN pg_catalog.pg_class rel ON rel.oid = con.conrelid
	JOIN pg_catalog.pg_namespace nsp ON nsp.oid = rel.relnamespace
	JOIN pg_catalog.pg_attribute a
		ON a.attrelid = con.conrelid AND a.attnum = con.conkey[1]
	JOIN pg_catalog.pg_class frel ON frel.oid = con.confrelid
	JOIN pg_catalog.pg_namespace fnsp ON fnsp.oid = frel.relnamespace
	JOIN pg_catalog.pg_attribute fa
		ON fa.attrelid = con.confrelid AND fa.attnum = con.confkey[1]
	WHERE con.contype = 'f'
	  AND array_length(con.conkey, 1) = 1
	  AND nsp.nspname = ANY($1::text[])
	  AND ($2::text = '' OR rel.relname = $2::text)
	ORDER BY rel.relname, con.conname`
	rows, err := fetch[crForeignKey](ctx, &c.base, "foreign keys", table, q, c.searchPath, table)
	if err != nil {
		return nil, err
	}
	rows = inPath(rows, c.searchPath, func(r crForeignKey) (string, string) { return r.Table, r.Schema })

	fks := make([]ForeignKey, 0, len(rows))
	for _, r := range rows {
		fks = append(fks, ForeignKey{
			Table:            r.Table,
			Column:           r.Column,
			ForeignKeySchema: r.ForeignKeySchema,
			ForeignKeyTable:  r.ForeignKeyTable,
			ForeignKeyColumn: r.ForeignKeyColumn,
			ConstraintName:   r.ConstraintName,
			OnUpdate:         pgAction(deref(r.OnUpdate)),
			OnDelete:         pgAction(deref(r.OnDelete)),
		})
	}
	return fks, nil
}
