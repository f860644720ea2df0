package schema

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/database/sqlite"
	"github.com/koustreak/dbinspect/internal/logger"
	"github.com/koustreak/dbinspect/internal/schema/sqliteddl"
)

// SQLiteInspector reads sqlite_master and the table-valued pragma
// functions of the main database. AUTOINCREMENT and generated column
// expressions come from the stored CREATE TABLE text.
type SQLiteInspector struct {
	base
}

func NewSQLiteInspector(db database.DB, log *logger.Logger) *SQLiteInspector {
	return &SQLiteInspector{base: newBase(db, log)}
}

const sqliteTables = `m.type = 'table' AND m.name NOT LIKE 'sqlite\_%' ESCAPE '\'`

func (s *SQLiteInspector) Tables(ctx context.Context) ([]string, error) {
	const q = `SELECT m.name FROM sqlite_master m WHERE ` + sqliteTables + ` ORDER BY m.name`
	return fetchStrings(ctx, &s.base, "list tables", "", q)
}

func (s *SQLiteInspector) TableInfo(ctx context.Context) ([]Table, error) {
	return s.tableInfo(ctx, "")
}

func (s *SQLiteInspector) Table(ctx context.Context, table string) (*Table, error) {
	tables, err := s.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	return firstTable(tables), nil
}

func (s *SQLiteInspector) tableInfo(ctx context.Context, table string) ([]Table, error) {
	const q = `
	SELECT m.name AS table_name, ? AS table_schema, m.sql AS sql
	FROM sqlite_master m
	WHERE ` + sqliteTables + `
	  AND (? = '' OR m.name = ?)
	ORDER BY m.name`
	tables, err := fetchTables(ctx, &s.base, table, q, sqlite.MainSchema, table, table)
	return orEmpty(tables), err
}

func (s *SQLiteInspector) HasTable(ctx context.Context, table string) (bool, error) {
	const q = `SELECT COUNT(*) FROM sqlite_master m WHERE ` + sqliteTables + ` AND m.name = ?`
	return exists(ctx, &s.base, "has table", table, q, table)
}

func (s *SQLiteInspector) Columns(ctx context.Context, table string) ([]ColumnRef, error) {
	const q = `
	SELECT m.name AS table_name, p.name AS column_name
	FROM sqlite_master m
	JOIN pragma_table_xinfo(m.name) p
	WHERE ` + sqliteTables + `
	  AND p.hidden <> 1
	  AND (? = '' OR m.name = ?)
	ORDER BY m.name, p.cid`
	refs, err := fetch[ColumnRef](ctx, &s.base, "list columns", table, q, table, table)
	return orEmpty(refs), err
}

func (s *SQLiteInspector) HasColumn(ctx context.Context, table, column string) (bool, error) {
	const q = `
	SELECT COUNT(*)
	FROM sqlite_master m
	JOIN pragma_table_xinfo(m.name) p
	WHERE ` + sqliteTables + `
	  AND p.hidden <> 1
	  AND m.name = ?
	  AND p.name = ?`
	return exists(ctx, &s.base, "has column", table, q, table, column)
}

func (s *SQLiteInspector) ColumnInfo(ctx context.Context, table string) ([]Column, error) {
	return s.columnInfo(ctx, table, "")
}

func (s *SQLiteInspector) Column(ctx context.Context, table, column string) (*Column, error) {
	cols, err := s.columnInfo(ctx, table, column)
	if err != nil {
		return nil, err
	}
	return firstColumn(cols), nil
}

// columnInfo uses loose Records: pragma columns come back with whatever
// affinity the declared type gave them.
func (s *SQLiteInspector) columnInfo(ctx context.Context, table, column string) ([]Column, error) {
	const q = `
	SELECT
		m.name AS table_name,
		m.sql AS sql,
		p.name AS column_name,
		p.type AS declared_type,
		p."notnull" AS not_null,
		p.dflt_value AS default_value,
		p.pk AS pk,
		p.hidden AS hidden,
		(SELECT COUNT(*) FROM pragma_table_info(m.name) k WHERE k.pk > 0) AS pk_count
	FROM sqlite_master m
	JOIN pragma_table_xinfo(m.name) p
	WHERE ` + sqliteTables + `
	  AND p.hidden <> 1
	  AND (? = '' OR m.name = ?)
	  AND (? = '' OR p.name = ?)
	ORDER BY m.name, p.cid`

	var (
		records []database.Record
		keys    []keyUsage
	)
	err := gather(ctx, s.db,
		func(ctx context.Context) error {
			s.trace("column info", table)
			rows, err := s.db.Query(ctx, q, table, table, column, column)
			if err != nil {
				return fmt.Errorf("column info: %w", err)
			}
			records, err = database.ScanRows(rows)
			if err != nil {
				return fmt.Errorf("column info: %w", err)
			}
			return nil
		},
		func(ctx context.Context) (err error) {
			keys, err = s.keys(ctx, table)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	defs := make(map[string]sqliteddl.Columns)
	cols := make([]Column, 0, len(records))
	for _, r := range records {
		name := r.String("table_name")
		parsed, ok := defs[name]
		if !ok {
			var perr error
			parsed, perr = sqliteddl.Parse(r.String("sql"))
			if perr != nil {
				s.log.With().Str("table", name).Err(perr).Logger().Debug("create statement not parsed")
			}
			defs[name] = parsed
		}

		col, pk := sqliteColumn(r, parsed)
		cols = append(cols, col)
		if pk && r.Int("pk_count") == 1 {
			keys = append(keys, keyUsage{
				Table:      col.Table,
				Column:     col.Name,
				Constraint: "primary",
				Kind:       keyPrimary,
				Columns:    1,
			})
		}
	}
	applyKeys(cols, keys)
	return cols, nil
}

func sqliteColumn(r database.Record, defs sqliteddl.Columns) (Column, bool) {
	declared := r.String("declared_type")
	dataType, length, precision, scale := parseDeclaredType(declared)
	pk := r.Int("pk") > 0

	c := Column{
		Name:             r.String("column_name"),
		Table:            r.String("table_name"),
		Schema:           sqlite.MainSchema,
		DataType:         dataType,
		MaxLength:        length,
		NumericPrecision: precision,
		NumericScale:     scale,
		IsNullable:       r.Int("not_null") == 0 && !pk,
	}

	def, _ := defs.Lookup(c.Name)
	c.HasAutoIncrement = def.AutoIncrement && (pk || def.PrimaryKey)

	// table_xinfo flags generated columns as hidden 2 (virtual) or 3
	// (stored); the statement text is the fallback.
	if hidden := r.Int("hidden"); hidden == 2 || hidden == 3 || def.Generated {
		c.IsGenerated = true
		c.GenerationExpression = nonEmpty(&def.Expression)
	} else {
		c.DefaultValue = ParseDataDefault(r.StringPtr("default_value"))
	}
	return c, pk
}

var declaredType = regexp.MustCompile(`^\s*([^(]*?)\s*(?:\(\s*([+-]?\d+)\s*(?:,\s*([+-]?\d+)\s*)?\))?\s*$`)

// parseDeclaredType splits a declared type such as varchar(36) or
// decimal(10,2). A single argument is a length for text types and a
// precision otherwise.
func parseDeclaredType(declared string) (dataType string, length, precision, scale *int64) {
	m := declaredType.FindStringSubmatch(declared)
	if m == nil {
		return strings.ToLower(strings.TrimSpace(declared)), nil, nil, nil
	}
	dataType = strings.ToLower(m[1])

	first := parseInt(m[2])
	second := parseInt(m[3])
	switch {
	case first == nil:
	case second != nil:
		precision, scale = first, second
	case strings.Contains(dataType, "char") || strings.Contains(dataType, "text") ||
		strings.Contains(dataType, "clob") || strings.Contains(dataType, "binary"):
		length = first
	default:
		precision = first
	}
	return dataType, length, precision, scale
}

func parseInt(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// keys lists single-column unique indexes and foreign keys. The primary
// key comes from the pk column of table_xinfo in columnInfo.
func (s *SQLiteInspector) keys(ctx context.Context, table string) ([]keyUsage, error) {
	const q = `
	SELECT
		m.name AS table_name,
		ii.name AS column_name,
		il.name AS constraint_name,
		'u' AS kind,
		(SELECT COUNT(*) FROM pragma_index_info(il.name)) AS column_count,
		NULL AS foreign_key_schema,
		NULL AS foreign_key_table,
		NULL AS foreign_key_column
	FROM sqlite_master m
	JOIN pragma_index_list(m.name) il
	JOIN pragma_index_info(il.name) ii
	WHERE ` + sqliteTables + `
	  AND il."unique" = 1
	  AND il.partial = 0
	  AND ii.name IS NOT NULL
	  AND (? = '' OR m.name = ?)
	UNION ALL
	SELECT
		m.name,
		fk."from",
		'fk_' || fk.id,
		'f',
		(SELECT COUNT(*) FROM pragma_foreign_key_list(m.name) k WHERE k.id = fk.id),
		'main',
		fk."table",
		COALESCE(fk."to", (SELECT t.name FROM pragma_table_info(fk."table") t WHERE t.pk = 1))
	FROM sqlite_master m
	JOIN pragma_foreign_key_list(m.name) fk
	WHERE ` + sqliteTables + `
	  AND (? = '' OR m.name = ?)`
	return fetch[keyUsage](ctx, &s.base, "column keys", table, q, table, table, table, table)
}

func (s *SQLiteInspector) Primary(ctx context.Context, table string) (string, error) {
	const q = `
	SELECT p.name
	FROM sqlite_master m
	JOIN pragma_table_info(m.name) p
	WHERE ` + sqliteTables + `
	  AND m.name = ?
	  AND p.pk > 0
	ORDER BY p.pk`
	names, err := fetchStrings(ctx, &s.base, "primary key", table, q, table)
	if err != nil {
		return "", err
	}
	return singlePrimary(names), nil
}

// ForeignKeys lists single-column foreign keys. SQLite does not keep
// constraint names, so ConstraintName is nil.
func (s *SQLiteInspector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	const q = `
	SELECT
		m.name AS table_name,
		fk."from" AS column_name,
		'main' AS foreign_key_schema,
		fk."table" AS foreign_key_table,
		COALESCE(fk."to", (SELECT t.name FROM pragma_table_info(fk."table") t WHERE t.pk = 1), '') AS foreign_key_column,
		NULL AS constraint_name,
		fk.on_update AS on_update,
		fk.on_delete AS on_delete
	FROM sqlite_master m
	JOIN pragma_foreign_key_list(m.name) fk
	WHERE ` + sqliteTables + `
	  AND (? = '' OR m.name = ?)
	  AND (SELECT COUNT(*) FROM pragma_foreign_key_list(m.name) k WHERE k.id = fk.id) = 1
	ORDER BY m.name, fk.id`
	fks, err := fetch[ForeignKey](ctx, &s.base, "foreign keys", table, q, table, table)
	if err != nil {
		return nil, err
	}
	for i := range fks {
		fks[i].OnUpdate = normalizeAction(fks[i].OnUpdate)
		fks[i].OnDelete = normalizeAction(fks[i].OnDelete)
	}
	return orEmpty(fks), nil
}
