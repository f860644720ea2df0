package schema

import (
	"context"
	"strings"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/logger"
)

// MSSQLInspector reads the sys.* catalog views of the connected database,
// scoped to one schema.
type MSSQLInspector struct {
	base
	schema string
}

func NewMSSQLInspector(db database.DB, schema string, log *logger.Logger) *MSSQLInspector {
	if schema == "" {
		schema = DefaultMSSQLSchema
	}
	return &MSSQLInspector{base: newBase(db, log), schema: schema}
}

func (m *MSSQLInspector) WithSchema(schema string) Inspector {
	m.schema = schema
	return m
}

// Schema returns the active schema.
func (m *MSSQLInspector) Schema() string { return m.schema }

func (m *MSSQLInspector) Tables(ctx context.Context) ([]string, error) {
	const q = `
	SELECT o.name
	FROM sys.tables o
	JOIN sys.schemas s ON s.schema_id = o.schema_id
	WHERE s.name = @p1 AND o.is_ms_shipped = 0
	ORDER BY o.name`
	return fetchStrings(ctx, &m.base, "list tables", "", q, m.schema)
}

func (m *MSSQLInspector) TableInfo(ctx context.Context) ([]Table, error) {
	return m.tableInfo(ctx, "")
}

func (m *MSSQLInspector) Table(ctx context.Context, table string) (*Table, error) {
	tables, err := m.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	return firstTable(tables), nil
}

func (m *MSSQLInspector) tableInfo(ctx context.Context, table string) ([]Table, error) {
	const q = `
	SELECT
		o.name AS table_name,
		s.name AS table_schema,
		DB_NAME() AS catalog,
		CAST(ep.value AS nvarchar(4000)) AS comment
	FROM sys.tables o
	JOIN sys.schemas s ON s.schema_id = o.schema_id
	LEFT JOIN sys.extended_properties ep
		ON ep.class = 1
		AND ep.major_id = o.object_id
		AND ep.minor_id = 0
		AND ep.name = N'MS_Description'
	WHERE s.name = @p1
	  AND o.is_ms_shipped = 0
	  AND (@p2 = N'' OR o.name = @p2)
	ORDER BY o.name`
	tables, err := fetchTables(ctx, &m.base, table, q, m.schema, table)
	return orEmpty(tables), err
}

// HasTable resolves the quoted schema-qualified name with OBJECT_ID.
func (m *MSSQLInspector) HasTable(ctx context.Context, table string) (bool, error) {
	const q = `SELECT CASE WHEN OBJECT_ID(@p1, N'U') IS NULL THEN 0 ELSE 1 END`
	name := database.QuoteQualified(database.DriverMSSQL, m.schema, table)
	return exists(ctx, &m.base, "has table", table, q, name)
}

func (m *MSSQLInspector) Columns(ctx context.Context, table string) ([]ColumnRef, error) {
	const q = `
	SELECT o.name AS table_name, c.name AS column_name
	FROM sys.columns c
	JOIN sys.tables o ON o.object_id = c.object_id
	JOIN sys.schemas s ON s.schema_id = o.schema_id
	WHERE s.name = @p1
	  AND o.is_ms_shipped = 0
	  AND c.is_hidden = 0
	  AND (@p2 = N'' OR o.name = @p2)
	ORDER BY o.name, c.column_id`
	refs, err := fetch[ColumnRef](ctx, &m.base, "list columns", table, q, m.schema, table)
	return orEmpty(refs), err
}

func (m *MSSQLInspector) HasColumn(ctx context.Context, table, column string) (bool, error) {
	const q = `
	SELECT COUNT(*)
	FROM sys.columns c
	JOIN sys.tables o ON o.object_id = c.object_id
	JOIN sys.schemas s ON s.schema_id = o.schema_id
	WHERE s.name = @p1 AND o.name = @p2 AND c.name = @p3 AND c.is_hidden = 0`
	return exists(ctx, &m.base, "has column", table, q, m.schema, table, column)
}

func (m *MSSQLInspector) ColumnInfo(ctx context.Context, table string) ([]Column, error) {
	return m.columnInfo(ctx, table, "")
}

func (m *MSSQLInspector) Column(ctx context.Context, table, column string) (*Column, error) {
	cols, err := m.columnInfo(ctx, table, column)
	if err != nil {
		return nil, err
	}
	return firstColumn(cols), nil
}

type mssqlColumn struct {
	Table                string  `db:"table_name"`
	Schema               string  `db:"table_schema"`
	Name                 string  `db:"column_name"`
	DataType             string  `db:"data_type"`
	MaxLength            *int64  `db:"max_length"`
	Precision            *int64  `db:"numeric_precision"`
	Scale                *int64  `db:"numeric_scale"`
	Nullable             bool    `db:"is_nullable"`
	Default              *string `db:"default_value"`
	Computed             bool    `db:"is_computed"`
	GenerationExpression *string `db:"generation_expression"`
	Identity             bool    `db:"is_identity"`
	Comment              *string `db:"comment"`
}

func (r mssqlColumn) column() Column {
	c := Column{
		Name:             r.Name,
		Table:            r.Table,
		Schema:           r.Schema,
		DataType:         r.DataType,
		MaxLength:        mssqlCharLength(r.DataType, r.MaxLength),
		NumericPrecision: r.Precision,
		NumericScale:     r.Scale,
		IsNullable:       r.Nullable,
		HasAutoIncrement: r.Identity,
		Comment:          r.Comment,
	}
	if r.Computed {
		c.IsGenerated = true
		c.GenerationExpression = r.GenerationExpression
		if c.GenerationExpression == nil {
			c.GenerationExpression = ptr("")
		}
	} else {
		c.DefaultValue = ParseMSSQLDefault(r.Default)
	}
	return c
}

// mssqlCharLength turns sys.columns.max_length, which is in bytes, into
// characters. The UTF-16 types store two bytes per character; -1 means
// (max) and is kept as is.
func mssqlCharLength(dataType string, bytes *int64) *int64 {
	if bytes == nil || *bytes == -1 {
		return bytes
	}
	switch strings.ToLower(dataType) {
	case "nchar", "nvarchar", "ntext":
		return ptr(*bytes / 2)
	}
	return bytes
}

func (m *MSSQLInspector) columnInfo(ctx context.Context, table, column string) ([]Column, error) {
	const q = `
	SELECT
		o.name AS table_name,
		s.name AS table_schema,
		c.name AS column_name,
		t.name AS data_type,
		CAST(CASE
			WHEN t.name IN ('char', 'varchar', 'text', 'nchar', 'nvarchar', 'ntext', 'binary', 'varbinary')
			THEN c.max_length
		END AS bigint) AS max_length,
		CAST(NULLIF(c.precision, 0) AS bigint) AS numeric_precision,
		CAST(CASE WHEN c.precision = 0 THEN NULL ELSE c.scale END AS bigint) AS numeric_scale,
		c.is_nullable,
		object_definition(c.default_object_id) AS default_value,
		c.is_computed,
		cc.definition AS generation_expression,
		c.is_identity,
		CAST(ep.value AS nvarchar(4000)) AS comment
	FROM sys.columns c
	JOIN sys.types t ON t.user_type_id = c.user_type_id
	JOIN sys.tables o ON o.object_id = c.object_id
	JOIN sys.schemas s ON s.schema_id = o.schema_id
	LEFT JOIN sys.computed_columns cc
		ON cc.object_id = c.object_id AND cc.column_id = c.column_id
	LEFT JOIN sys.extended_properties ep
		ON ep.class = 1
		AND ep.major_id = c.object_id
		AND ep.minor_id = c.column_id
		AND ep.name = N'MS_Description'
	WHERE s.name = @p1
	  AND o.is_ms_shipped = 0
	  AND c.is_hidden = 0
	  AND (@p2 = N'' OR o.name = @p2)
	  AND (@p3 = N'' OR c.name = @p3)
	ORDER BY o.name, c.column_id`

	var (
		raw  []mssqlColumn
		keys []keyUsage
	)
	err := gather(ctx, m.db,
		func(ctx context.Context) (err error) {
			raw, err = fetch[mssqlColumn](ctx, &m.base, "column info", table, q, m.schema, table, column)
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

// keys reads primary and unique membership from sys.indexes, so unique
// indexes count as well as UNIQUE constraints, and foreign keys from
// sys.foreign_key_columns.
func (m *MSSQLInspector) keys(ctx context.Context, table string) ([]keyUsage, error) {
	const q = `
	SELECT
		o.name AS table_name,
		c.name AS column_name,
		i.name AS constraint_name,
		CASE WHEN i.is_primary_key = 1 THEN 'p' ELSE 'u' END AS kind,
		CAST((
			SELECT COUNT(*)
			FROM sys.index_columns k
			WHERE k.object_id = i.object_id
			  AND k.index_id = i.index_id
			  AND k.is_included_column = 0
		) AS bigint) AS column_count,
		CAST(NULL AS nvarchar(128)) AS foreign_key_schema,
		CAST(NULL AS nvarchar(128)) AS foreign_key_table,
		CAST(NULL AS nvarchar(128)) AS foreign_key_column
	FROM sys.indexes i
	JOIN sys.index_columns ic
		ON ic.object_id = i.object_id
		AND ic.index_id = i.index_id
		AND ic.is_included_column = 0
	JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
	JOIN sys.tables o ON o.object_id = i.object_id
	JOIN sys.schemas s ON s.schema_id = o.schema_id
	WHERE s.name = @p1
	  AND (i.is_primary_key = 1 OR i.is_unique = 1)
	  AND i.has_filter = 0
	  AND (@p2 = N'' OR o.name = @p2)
	UNION ALL
	SELECT
		o.name,
		c.name,
		f.name,
		'f',
		CAST((
			SELECT COUNT(*)
			FROM sys.foreign_key_columns k
			WHERE k.constraint_object_id = f.object_id
		) AS bigint),
		rs.name,
		ro.name,
		rc.name
	FROM sys.foreign_keys f
	JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = f.object_id
	JOIN sys.tables o ON o.object_id = f.parent_object_id
	JOIN sys.schemas s ON s.schema_id = o.schema_id
	JOIN sys.columns c
		ON c.object_id = fkc.parent_object_id AND c.column_id = fkc.parent_column_id
	JOIN sys.tables ro ON ro.object_id = f.referenced_object_id
	JOIN sys.schemas rs ON rs.schema_id = ro.schema_id
	JOIN sys.columns rc
		ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
	WHERE s.name = @p1
	  AND (@p2 = N'' OR o.name = @p2)`
	return fetch[keyUsage](ctx, &m.base, "column keys", table, q, m.schema, table)
}

func (m *MSSQLInspector) Primary(ctx context.Context, table string) (string, error) {
	const q = `
	SELECT c.name
	FROM sys.indexes i
	JOIN sys.index_columns ic
		ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
	JOIN sys.tables o ON o.object_id = i.object_id
	JOIN sys.schemas s ON s.schema_id = o.schema_id
	WHERE i.is_primary_key = 1
	  AND s.name = @p1
	  AND o.name = @p2
	ORDER BY ic.key_ordinal`
	names, err := fetchStrings(ctx, &m.base, "primary key", table, q, m.schema, table)
	if err != nil {
		return "", err
	}
	return singlePrimary(names), nil
}

// ForeignKeys lists single-column foreign keys.
func (m *MSSQLInspector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	const q = `
	SELECT
		o.name AS table_name,
		c.name AS column_name,
		rs.name AS foreign_key_schema,
		ro.name AS foreign_key_table,
		rc.name AS foreign_key_column,
		f.name AS constraint_name,
		f.update_referential_action_desc AS on_update,
		f.delete_referential_action_desc AS on_delete
	FROM sys.foreign_keys f
	JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = f.object_id
	JOIN sys.tables o ON o.object_id = f.parent_object_id
	JOIN sys.schemas s ON s.schema_id = o.schema_id
	JOIN sys.columns c
		ON c.object_id = fkc.parent_object_id AND c.column_id = fkc.parent_column_id
	JOIN sys.tables ro ON ro.object_id = f.referenced_object_id
	JOIN sys.schemas rs ON rs.schema_id = ro.schema_id
	JOIN sys.columns rc
		ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
	WHERE s.name = @p1
	  AND (@p2 = N'' OR o.name = @p2)
	  AND (SELECT COUNT(*) FROM sys.foreign_key_columns k WHERE k.constraint_object_id = f.object_id) = 1
	ORDER BY o.name, f.name`
	fks, err := fetch[ForeignKey](ctx, &m.base, "foreign keys", table, q, m.schema, table)
	if err != nil {
		return nil, err
	}
	for i := range fks {
		fks[i].OnUpdate = normalizeAction(fks[i].OnUpdate)
		fks[i].OnDelete = normalizeAction(fks[i].OnDelete)
	}
	return orEmpty(fks), nil
}
