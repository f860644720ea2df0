package schema

import (
	"context"
	"strings"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/logger"
)

// MySQLInspector reads information_schema for one database. MySQL has no
// schema level below the database, so it does not implement SchemaSelector.
// An empty database name means the connection's current DATABASE().
type MySQLInspector struct {
	base
	database string
}

func NewMySQLInspector(db database.DB, databaseName string, log *logger.Logger) *MySQLInspector {
	return &MySQLInspector{base: newBase(db, log), database: databaseName}
}

// Database returns the database the inspector reads.
func (m *MySQLInspector) Database() string { return m.database }

func (m *MySQLInspector) Tables(ctx context.Context) ([]string, error) {
	const q = `
	SELECT TABLE_NAME AS table_name
	FROM information_schema.TABLES
	WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
	  AND TABLE_TYPE = 'BASE TABLE'
	ORDER BY TABLE_NAME`
	return fetchStrings(ctx, &m.base, "list tables", "", q, m.database)
}

func (m *MySQLInspector) TableInfo(ctx context.Context) ([]Table, error) {
	return m.tableInfo(ctx, "")
}

func (m *MySQLInspector) Table(ctx context.Context, table string) (*Table, error) {
	tables, err := m.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	return firstTable(tables), nil
}

func (m *MySQLInspector) tableInfo(ctx context.Context, table string) ([]Table, error) {
	const q = `
	SELECT
		TABLE_NAME AS table_name,
		TABLE_SCHEMA AS table_schema,
		TABLE_COMMENT AS comment,
		TABLE_COLLATION AS collation,
		ENGINE AS engine
	FROM information_schema.TABLES
	WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
	  AND TABLE_TYPE = 'BASE TABLE'
	  AND (? = '' OR TABLE_NAME = ?)
	ORDER BY TABLE_NAME`
	tables, err := fetchTables(ctx, &m.base, table, q, m.database, table, table)
	if err != nil {
		return nil, err
	}
	return orEmpty(tables), nil
}

func (m *MySQLInspector) HasTable(ctx context.Context, table string) (bool, error) {
	const q = `
	SELECT COUNT(*)
	FROM information_schema.TABLES
	WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
	  AND TABLE_TYPE = 'BASE TABLE'
	  AND TABLE_NAME = ?`
	return exists(ctx, &m.base, "has table", table, q, m.database, table)
}

func (m *MySQLInspector) Columns(ctx context.Context, table string) ([]ColumnRef, error) {
	const q = `
	SELECT c.TABLE_NAME AS table_name, c.COLUMN_NAME AS column_name
	FROM information_schema.COLUMNS c
	JOIN information_schema.TABLES t
		ON t.TABLE_SCHEMA = c.TABLE_SCHEMA
		AND t.TABLE_NAME = c.TABLE_NAME
		AND t.TABLE_TYPE = 'BASE TABLE'
	WHERE c.TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
	  AND (? = '' OR c.TABLE_NAME = ?)
	ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`
	refs, err := fetch[ColumnRef](ctx, &m.base, "list columns", table, q, m.database, table, table)
	return orEmpty(refs), err
}

func (m *MySQLInspector) HasColumn(ctx context.Context, table, column string) (bool, error) {
	const q = `
	SELECT COUNT(*)
	FROM information_schema.COLUMNS
	WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
	  AND TABLE_NAME = ?
	  AND COLUMN_NAME = ?`
	return exists(ctx, &m.base, "has column", table, q, m.database, table, column)
}

func (m *MySQLInspector) ColumnInfo(ctx context.Context, table string) ([]Column, error) {
	return m.columnInfo(ctx, table, "")
}

func (m *MySQLInspector) Column(ctx context.Context, table, column string) (*Column, error) {
	cols, err := m.columnInfo(ctx, table, column)
	if err != nil {
		return nil, err
	}
	return firstColumn(cols), nil
}

type mysqlColumn struct {
	Table                string  `db:"table_name"`
	Schema               string  `db:"table_schema"`
	Name                 string  `db:"column_name"`
	DataType             string  `db:"data_type"`
	MaxLength            *int64  `db:"max_length"`
	Precision            *int64  `db:"numeric_precision"`
	Scale                *int64  `db:"numeric_scale"`
	Nullable             string  `db:"is_nullable"`
	Default              *string `db:"default_value"`
	Extra                string  `db:"extra"`
	GenerationExpression *string `db:"generation_expression"`
	Comment              *string `db:"comment"`
}

func (r mysqlColumn) column() Column {
	c := Column{
		Name:             r.Name,
		Table:            r.Table,
		Schema:           r.Schema,
		DataType:         r.DataType,
		MaxLength:        r.MaxLength,
		NumericPrecision: r.Precision,
		NumericScale:     r.Scale,
		IsNullable:       r.Nullable == "YES",
		Comment:          nonEmpty(r.Comment),
	}

	extra := strings.ToUpper(r.Extra)
	c.HasAutoIncrement = strings.Contains(extra, "AUTO_INCREMENT")

	// DEFAULT_GENERATED marks an expression default, not a generated column.
	if strings.Contains(extra, "VIRTUAL GENERATED") || strings.Contains(extra, "STORED GENERATED") {
		c.IsGenerated = true
		c.GenerationExpression = r.GenerationExpression
		if c.GenerationExpression == nil {
			c.GenerationExpression = ptr("")
		}
	} else {
		c.DefaultValue = ParseDataDefault(r.Default)
	}
	return c
}

func (m *MySQLInspector) columnInfo(ctx context.Context, table, column string) ([]Column, error) {
	const q = `
	SELECT
		c.TABLE_NAME AS table_name,
		c.TABLE_SCHEMA AS table_schema,
		c.COLUMN_NAME AS column_name,
		c.DATA_TYPE AS data_type,
		c.CHARACTER_MAXIMUM_LENGTH AS max_length,
		c.NUMERIC_PRECISION AS numeric_precision,
		c.NUMERIC_SCALE AS numeric_scale,
		c.IS_NULLABLE AS is_nullable,
		c.COLUMN_DEFAULT AS default_value,
		c.EXTRA AS extra,
		NULLIF(c.GENERATION_EXPRESSION, '') AS generation_expression,
		c.COLUMN_COMMENT AS comment
	FROM information_schema.COLUMNS c
	JOIN information_schema.TABLES t
		ON t.TABLE_SCHEMA = c.TABLE_SCHEMA
		AND t.TABLE_NAME = c.TABLE_NAME
		AND t.TABLE_TYPE = 'BASE TABLE'
	WHERE c.TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
	  AND (? = '' OR c.TABLE_NAME = ?)
	  AND (? = '' OR c.COLUMN_NAME = ?)
	ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`

	var (
		raw  []mysqlColumn
		keys []keyUsage
	)
	err := gather(ctx, m.db,
		func(ctx context.Context) (err error) {
			raw, err = fetch[mysqlColumn](ctx, &m.base, "column info", table, q,
				m.database, table, table, column, column)
			return err
		},
		func(ctx context.Context) (err error) {
			keys, err = m.keys(ctx, table)
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

func (m *MySQLInspector) keys(ctx context.Context, table string) ([]keyUsage, error) {
	const q = `
	SELECT
		kcu.TABLE_NAME AS table_name,
		kcu.COLUMN_NAME AS column_name,
		kcu.CONSTRAINT_NAME AS constraint_name,
		CASE tc.CONSTRAINT_TYPE
			WHEN 'PRIMARY KEY' THEN 'p'
			WHEN 'UNIQUE' THEN 'u'
			ELSE 'f'
		END AS kind,
		(
			SELECT COUNT(*)
			FROM information_schema.KEY_COLUMN_USAGE k
			WHERE k.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
			  AND k.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			  AND k.TABLE_NAME = kcu.TABLE_NAME
		) AS column_count,
		kcu.REFERENCED_TABLE_SCHEMA AS foreign_key_schema,
		kcu.REFERENCED_TABLE_NAME AS foreign_key_table,
		kcu.REFERENCED_COLUMN_NAME AS foreign_key_column
	FROM information_schema.KEY_COLUMN_USAGE kcu
	JOIN information_schema.TABLE_CONSTRAINTS tc
		ON tc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
		AND tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		AND tc.TABLE_NAME = kcu.TABLE_NAME
	WHERE kcu.TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
	  AND tc.CONSTRAINT_TYPE IN ('PRIMARY KEY', 'UNIQUE', 'FOREIGN KEY')
	  AND (? = '' OR kcu.TABLE_NAME = ?)`
	return fetch[keyUsage](ctx, &m.base, "column keys", table, q, m.database, table, table)
}

func (m *MySQLInspector) Primary(ctx context.Context, table string) (string, error) {
	const q = `
	SELECT COLUMN_NAME
	FROM information_schema.KEY_COLUMN_USAGE
	WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
	  AND TABLE_NAME = ?
	  AND CONSTRAINT_NAME = 'PRIMARY'
	ORDER BY ORDINAL_POSITION`
	names, err := fetchStrings(ctx, &m.base, "primary key", table, q, m.database, table)
	if err != nil {
		return "", err
	}
	return singlePrimary(names), nil
}

// ForeignKeys lists single-column foreign keys.
func (m *MySQLInspector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	const q = `
	SELECT
		kcu.TABLE_NAME AS table_name,
		kcu.COLUMN_NAME AS column_name,
		kcu.REFERENCED_TABLE_SCHEMA AS foreign_key_schema,
		kcu.REFERENCED_TABLE_NAME AS foreign_key_table,
		kcu.REFERENCED_COLUMN_NAME AS foreign_key_column,
		kcu.CONSTRAINT_NAME AS constraint_name,
		rc.UPDATE_RULE AS on_update,
		rc.DELETE_RULE AS on_delete
	FROM information_schema.KEY_COLUMN_USAGE kcu
	JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
		ON rc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
		AND rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		AND rc.TABLE_NAME = kcu.TABLE_NAME
	WHERE kcu.TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
	  AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
	  AND (? = '' OR kcu.TABLE_NAME = ?)
	  AND (
		SELECT COUNT(*)
		FROM information_schema.KEY_COLUMN_USAGE k
		WHERE k.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
		  AND k.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		  AND k.TABLE_NAME = kcu.TABLE_NAME
	  ) = 1
	ORDER BY kcu.TABLE_NAME, kcu.CONSTRAINT_NAME`
	fks, err := fetch[ForeignKey](ctx, &m.base, "foreign keys", table, q, m.database, table, table)
	if err != nil {
		return nil, err
	}
	for i := range fks {
		fks[i].OnUpdate = normalizeAction(fks[i].OnUpdate)
		fks[i].OnDelete = normalizeAction(fks[i].OnDelete)
	}
	return orEmpty(fks), nil
}
