package schema

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/logger"
)

// PostgresInspector reads pg_catalog. Tables resolve through an ordered
// search path: a name present in several schemas is reported once, from the
// first schema in path order.
type PostgresInspector struct {
	base
	searchPath []string
	version    atomic.Int64
}

func NewPostgresInspector(db database.DB, searchPath []string, log *logger.Logger) *PostgresInspector {
	if len(searchPath) == 0 {
		searchPath = []string{DefaultPostgresSchema}
	}
	return &PostgresInspector{base: newBase(db, log), searchPath: searchPath}
}

// WithSchema replaces the search path with schema.
func (p *PostgresInspector) WithSchema(schema string) Inspector {
	p.searchPath = []string{schema}
	return p
}

// SearchPath returns the active search path.
func (p *PostgresInspector) SearchPath() []string { return p.searchPath }

// pgVisible yields one row per table name reachable through the search
// path ($1), picking the earliest schema.
const pgVisible = `
WITH visible AS (
	SELECT DISTINCT ON (rel.relname)
		rel.oid, rel.relname, rel.relowner, nsp.nspname
	FROM pg_catalog.pg_class rel
	JOIN pg_catalog.pg_namespace nsp ON nsp.oid = rel.relnamespace
	WHERE nsp.nspname::text = ANY($1::text[])
	  AND rel.relkind IN ('r', 'p')
	ORDER BY rel.relname, array_position($1::text[], nsp.nspname::text)
)`

func (p *PostgresInspector) Tables(ctx context.Context) ([]string, error) {
	const q = pgVisible + `
	SELECT relname::text FROM visible ORDER BY relname`
	return fetchStrings(ctx, &p.base, "list tables", "", q, p.searchPath)
}

func (p *PostgresInspector) TableInfo(ctx context.Context) ([]Table, error) {
	return p.tableInfo(ctx, "")
}

func (p *PostgresInspector) Table(ctx context.Context, table string) (*Table, error) {
	tables, err := p.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	return firstTable(tables), nil
}

func (p *PostgresInspector) tableInfo(ctx context.Context, table string) ([]Table, error) {
	const q = pgVisible + `
	SELECT
		v.relname::text AS table_name,
		v.nspname::text AS table_schema,
		pg_catalog.obj_description(v.oid, 'pg_class') AS comment,
		pg_catalog.pg_get_userbyid(v.relowner)::text AS owner
	FROM visible v
	WHERE ($2::text = '' OR v.relname = $2::text)
	ORDER BY v.relname`
	tables, err := fetchTables(ctx, &p.base, table, q, p.searchPath, table)
	return orEmpty(tables), err
}

// HasTable resolves the quoted name in every search path schema with
// to_regclass.
func (p *PostgresInspector) HasTable(ctx context.Context, table string) (bool, error) {
	const q = `
	SELECT COUNT(*)
	FROM unnest($1::text[]) AS candidate(name)
	JOIN pg_catalog.pg_class rel ON rel.oid = pg_catalog.to_regclass(candidate.name)
	WHERE rel.relkind IN ('r', 'p')`
	names := make([]string, 0, len(p.searchPath))
	for _, schema := range p.searchPath {
		names = append(names, database.QuoteQualified(database.DriverPostgres, schema, table))
	}
	return exists(ctx, &p.base, "has table", table, q, names)
}

func (p *PostgresInspector) Columns(ctx context.Context, table string) ([]ColumnRef, error) {
	const q = pgVisible + `
	SELECT v.relname::text AS table_name, a.attname::text AS column_name
	FROM visible v
	JOIN pg_catalog.pg_attribute a
		ON a.attrelid = v.oid AND a.attnum > 0 AND NOT a.attisdropped
	WHERE ($2::text = '' OR v.relname = $2::text)
	ORDER BY v.relname, a.attnum`
	refs, err := fetch[ColumnRef](ctx, &p.base, "list columns", table, q, p.searchPath, table)
	return orEmpty(refs), err
}

func (p *PostgresInspector) HasColumn(ctx context.Context, table, column string) (bool, error) {
	const q = pgVisible + `
	SELECT COUNT(*)
	FROM visible v
	JOIN pg_catalog.pg_attribute a
		ON a.attrelid = v.oid AND a.attnum > 0 AND NOT a.attisdropped
	WHERE v.relname = $2::text AND a.attname = $3::text`
	return exists(ctx, &p.base, "has column", table, q, p.searchPath, table, column)
}

func (p *PostgresInspector) ColumnInfo(ctx context.Context, table string) ([]Column, error) {
	return p.columnInfo(ctx, table, "")
}

func (p *PostgresInspector) Column(ctx context.Context, table, column string) (*Column, error) {
	cols, err := p.columnInfo(ctx, table, column)
	if err != nil {
		return nil, err
	}
	return firstColumn(cols), nil
}

type pgColumn struct {
	Table     string  `db:"table_name"`
	Schema    string  `db:"table_schema"`
	Name      string  `db:"column_name"`
	DataType  string  `db:"data_type"`
	MaxLength *int64  `db:"max_length"`
	Precision *int64  `db:"numeric_precision"`
	Scale     *int64  `db:"numeric_scale"`
	Nullable  bool    `db:"is_nullable"`
	Default   *string `db:"default_value"`
	Generated bool    `db:"is_generated"`
	Identity  bool    `db:"is_identity"`
	Serial    bool    `db:"has_sequence"`
	Comment   *string `db:"comment"`
}

func (r pgColumn) column() Column {
	c := Column{
		Name:             r.Name,
		Table:            r.Table,
		Schema:           r.Schema,
		DataType:         r.DataType,
		MaxLength:        r.MaxLength,
		NumericPrecision: r.Precision,
		NumericScale:     r.Scale,
		IsNullable:       r.Nullable,
		HasAutoIncrement: r.Identity || r.Serial,
		Comment:          r.Comment,
	}
	if r.Generated {
		c.IsGenerated = true
		c.GenerationExpression = r.Default
	} else {
		c.DefaultValue = ParsePostgresDefault(r.Default)
	}
	return c
}

// pgColumnQuery is formatted with the generated and identity predicates,
// which depend on the server version.
const pgColumnQuery = pgVisible + `
SELECT
	v.relname::text AS table_name,
	v.nspname::text AS table_schema,
	a.attname::text AS column_name,
	pg_catalog.format_type(a.atttypid, NULL) AS data_type,
	CASE WHEN a.atttypid IN (1042, 1043) AND a.atttypmod > 0
		THEN a.atttypmod - 4 END::bigint AS max_length,
	CASE
		WHEN a.atttypid = 21 THEN 16
		WHEN a.atttypid = 23 THEN 32
		WHEN a.atttypid = 20 THEN 64
		WHEN a.atttypid = 700 THEN 24
		WHEN a.atttypid = 701 THEN 53
		WHEN a.atttypid = 1700 AND a.atttypmod <> -1 THEN ((a.atttypmod - 4) >> 16) & 65535
	END::bigint AS numeric_precision,
	CASE
		WHEN a.atttypid IN (20, 21, 23) THEN 0
		WHEN a.atttypid = 1700 AND a.atttypmod <> -1 THEN (a.atttypmod - 4) & 65535
	END::bigint AS numeric_scale,
	NOT a.attnotnull AS is_nullable,
	pg_catalog.pg_get_expr(ad.adbin, ad.adrelid) AS default_value,
	%s AS is_generated,
	%s AS is_identity,
	pg_catalog.pg_get_serial_sequence(
		quote_ident(v.nspname) || '.' || quote_ident(v.relname), a.attname::text
	) IS NOT NULL AS has_sequence,
	pg_catalog.col_description(v.oid, a.attnum) AS comment
FROM visible v
JOIN pg_catalog.pg_attribute a
	ON a.attrelid = v.oid AND a.attnum > 0 AND NOT a.attisdropped
LEFT JOIN pg_catalog.pg_attrdef ad
	ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
WHERE ($2::text = '' OR v.relname = $2::text)
  AND ($3::text = '' OR a.attname = $3::text)
ORDER BY v.relname, a.attnum`

func (p *PostgresInspector) columnInfo(ctx context.Context, table, column string) ([]Column, error) {
	version, err := p.serverVersion(ctx)
	if err != nil {
		return nil, err
	}
	generated, identity := "false", "false"
	if version >= 120000 {
		generated = "a.attgenerated = 's'"
	}
	if version >= 100000 {
		identity = "a.attidentity IN ('a', 'd')"
	}
	q := fmt.Sprintf(pgColumnQuery, generated, identity)

	var (
		raw  []pgColumn
		keys []keyUsage
	)
	err = gather(ctx, p.db,
		func(ctx context.Context) (err error) {
			raw, err = fetch[pgColumn](ctx, &p.base, "column info", table, q, p.searchPath, table, column)
			return err
		},
		func(ctx context.Context) (err error) {
			keys, err = p.keys(ctx, table)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	cols := make([]Column, 0, len(raw))
	for _, r := range raw {
		cols = append(cols, r.column())
	}
	applyKeys(cols, keys)
	return cols, nil
}

// keys lists constraint membership, including single-column unique
// indexes that are not backed by a constraint.
func (p *PostgresInspector) keys(ctx context.Context, table string) ([]keyUsage, error) {
	const q = pgVisible + `
	SELECT
		v.relname::text AS table_name,
		a.attname::text AS column_name,
		con.conname::text AS constraint_name,
		con.contype::text AS kind,
		array_length(con.conkey, 1)::bigint AS column_count,
		fnsp.nspname::text AS foreign_key_schema,
		frel.relname::text AS foreign_key_table,
		fa.attname::text AS foreign_key_column
	FROM visible v
	JOIN pg_catalog.pg_constraint con
		ON con.conrelid = v.oid AND con.contype IN ('p', 'u', 'f')
	JOIN pg_catalog.pg_attribute a
		ON a.attrelid = v.oid AND a.attnum = con.conkey[1]
	LEFT JOIN pg_catalog.pg_class frel ON frel.oid = con.confrelid
	LEFT JOIN pg_catalog.pg_namespace fnsp ON fnsp.oid = frel.relnamespace
	LEFT JOIN pg_catalog.pg_attribute fa
		ON fa.attrelid = con.confrelid AND fa.attnum = con.confkey[1]
	WHERE ($2::text = '' OR v.relname = $2::text)
	UNION ALL
	SELECT
		v.relname::text,
		a.attname::text,
		ic.relname::text,
		'u',
		i.indnatts::bigint,
		NULL::text,
		NULL::text,
		NULL::text
	FROM visible v
	JOIN pg_catalog.pg_index i
		ON i.indrelid = v.oid AND i.indisunique AND NOT i.indisprimary
	JOIN pg_catalog.pg_class ic ON ic.oid = i.indexrelid
	JOIN pg_catalog.pg_attribute a
		ON a.attrelid = v.oid AND a.attnum = i.indkey[0]
	WHERE i.indnatts = 1
	  AND i.indexprs IS NULL
	  AND i.indpred IS NULL
	  AND ($2::text = '' OR v.relname = $2::text)`
	return fetch[keyUsage](ctx, &p.base, "column keys", table, q, p.searchPath, table)
}

func (p *PostgresInspector) serverVersion(ctx context.Context) (int64, error) {
	if v := p.version.Load(); v > 0 {
		return v, nil
	}
	const q = `SELECT current_setting('server_version_num')::bigint`
	p.trace("server version", "")
	row, err := p.db.QueryRow(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("server version: %w", err)
	}
	var v int64
	if err := row.Scan(&v); err != nil {
		return 0, fmt.Errorf("server version: %w", err)
	}
	p.version.Store(v)
	return v, nil
}

func (p *PostgresInspector) Primary(ctx context.Context, table string) (string, error) {
	const q = pgVisible + `
	SELECT a.attname::text
	FROM visible v
	JOIN pg_catalog.pg_index i ON i.indrelid = v.oid AND i.indisprimary
	JOIN pg_catalog.pg_attribute a
		ON a.attrelid = v.oid AND a.attnum = ANY(i.indkey)
	WHERE v.relname = $2::text`
	names, err := fetchStrings(ctx, &p.base, "primary key", table, q, p.searchPath, table)
	if err != nil {
		return "", err
	}
	return singlePrimary(names), nil
}

// ForeignKeys reports composite keys as one row with comma-joined columns.
func (p *PostgresInspector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	const q = pgVisible + `
	SELECT
		v.relname::text AS table_name,
		cols.local_columns AS column_name,
		fnsp.nspname::text AS foreign_key_schema,
		frel.relname::text AS foreign_key_table,
		cols.foreign_columns AS foreign_key_column,
		con.conname::text AS constraint_name,
		con.confupdtype::text AS on_update,
		con.confdeltype::text AS on_delete
	FROM visible v
	JOIN pg_catalog.pg_constraint con
		ON con.conrelid = v.oid AND con.contype = 'f'
	JOIN pg_catalog.pg_class frel ON frel.oid = con.confrelid
	JOIN pg_catalog.pg_namespace fnsp ON fnsp.oid = frel.relnamespace
	CROSS JOIN LATERAL (
		SELECT
			string_agg(la.attname::text, ',' ORDER BY k.ord) AS local_columns,
			string_agg(ra.attname::text, ',' ORDER BY k.ord) AS foreign_columns
		FROM unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(local_num, foreign_num, ord)
		JOIN pg_catalog.pg_attribute la
			ON la.attrelid = con.conrelid AND la.attnum = k.local_num
		JOIN pg_catalog.pg_attribute ra
			ON ra.attrelid = con.confrelid AND ra.attnum = k.foreign_num
	) cols
	WHERE ($2::text = '' OR v.relname = $2::text)
	ORDER BY v.relname, con.conname`
	fks, err := fetch[ForeignKey](ctx, &p.base, "foreign keys", table, q, p.searchPath, table)
	if err != nil {
		return nil, err
	}
	for i := range fks {
		fks[i].OnUpdate = pgAction(deref(fks[i].OnUpdate))
		fks[i].OnDelete = pgAction(deref(fks[i].OnDelete))
	}
	return orEmpty(fks), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
