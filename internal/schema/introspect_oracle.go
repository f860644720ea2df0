package schema

import (
	"context"
	"strings"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/logger"
)

// OracleInspector reads the USER_* dictionary views, so it always sees the
// objects owned by the connecting user. It does not implement
// SchemaSelector.
//
// Oracle stores '' as NULL; optional filters are written as
// (:n IS NULL OR x = :n+1) and the value is bound twice.
type OracleInspector struct {
	base
}

func NewOracleInspector(db database.DB, log *logger.Logger) *OracleInspector {
	return &OracleInspector{base: newBase(db, log)}
}

// oracleTables excludes recycle-bin entries, nested tables and the
// container tables behind materialized views.
const oracleTables = `
	SELECT t.TABLE_NAME
	FROM USER_TABLES t
	WHERE t.DROPPED = 'NO'
	  AND t.NESTED = 'NO'
	  AND NOT EXISTS (SELECT 1 FROM USER_MVIEWS mv WHERE mv.MVIEW_NAME = t.TABLE_NAME)`

func (o *OracleInspector) Tables(ctx context.Context) ([]string, error) {
	const q = oracleTables + `
	ORDER BY t.TABLE_NAME`
	return fetchStrings(ctx, &o.base, "list tables", "", q)
}

func (o *OracleInspector) TableInfo(ctx context.Context) ([]Table, error) {
	return o.tableInfo(ctx, "")
}

func (o *OracleInspector) Table(ctx context.Context, table string) (*Table, error) {
	tables, err := o.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	return firstTable(tables), nil
}

func (o *OracleInspector) tableInfo(ctx context.Context, table string) ([]Table, error) {
	const q = `
	SELECT
		t.TABLE_NAME AS "table_name",
		SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA') AS "table_schema",
		tc.COMMENTS AS "comment"
	FROM USER_TABLES t
	LEFT JOIN USER_TAB_COMMENTS tc ON tc.TABLE_NAME = t.TABLE_NAME
	WHERE t.TABLE_NAME IN (` + oracleTables + `)
	  AND (:1 IS NULL OR t.TABLE_NAME = :2)
	ORDER BY t.TABLE_NAME`
	tables, err := fetchTables(ctx, &o.base, table, q, table, table)
	return orEmpty(tables), err
}

func (o *OracleInspector) HasTable(ctx context.Context, table string) (bool, error) {
	const q = `
	SELECT COUNT(*) FROM (` + oracleTables + `) x
	WHERE x.TABLE_NAME = :1`
	return exists(ctx, &o.base, "has table", table, q, table)
}

func (o *OracleInspector) Columns(ctx context.Context, table string) ([]ColumnRef, error) {
	const q = `
	SELECT c.TABLE_NAME AS "table_name", c.COLUMN_NAME AS "column_name"
	FROM USER_TAB_COLS c
	WHERE c.HIDDEN_COLUMN = 'NO'
	  AND c.TABLE_NAME IN (` + oracleTables + `)
	  AND (:1 IS NULL OR c.TABLE_NAME = :2)
	ORDER BY c.TABLE_NAME, c.COLUMN_ID`
	refs, err := fetch[ColumnRef](ctx, &o.base, "list columns", table, q, table, table)
	return orEmpty(refs), err
}

func (o *OracleInspector) HasColumn(ctx context.Context, table, column string) (bool, error) {
	const q = `
	SELECT COUNT(*)
	FROM USER_TAB_COLS c
	WHERE c.HIDDEN_COLUMN = 'NO'
	  AND c.TABLE_NAME IN (` + oracleTables + `)
	  AND c.TABLE_NAME = :1
	  AND c.COLUMN_NAME = :2`
	return exists(ctx, &o.base, "has column", table, q, table, column)
}

func (o *OracleInspector) ColumnInfo(ctx context.Context, table string) ([]Column, error) {
	return o.columnInfo(ctx, table, "")
}

func (o *OracleInspector) Column(ctx context.Context, table, column string) (*Column, error) {
	cols, err := o.columnInfo(ctx, table, column)
	if err != nil {
		return nil, err
	}
	return firstColumn(cols), nil
}

type oracleColumn struct {
	Table     string  `db:"table_name"`
	Schema    string  `db:"table_schema"`
	Name      string  `db:"column_name"`
	DataType  string  `db:"data_type"`
	MaxLength *int64  `db:"max_length"`
	Precision *int64  `db:"numeric_precision"`
	Scale     *int64  `db:"numeric_scale"`
	Nullable  string  `db:"is_nullable"`
	Default   *string `db:"default_value"`
	Virtual   string  `db:"virtual_column"`
	Identity  string  `db:"identity_column"`
	Comment   *string `db:"comment"`
}

func (r oracleColumn) column() Column {
	c := Column{
		Name:             r.Name,
		Table:            r.Table,
		Schema:           r.Schema,
		DataType:         r.DataType,
		MaxLength:        r.MaxLength,
		NumericPrecision: r.Precision,
		NumericScale:     r.Scale,
		IsNullable:       r.Nullable == "Y",
		HasAutoIncrement: r.Identity == "YES",
		Comment:          r.Comment,
	}
	if r.Virtual == "YES" {
		// DATA_DEFAULT holds the expression for virtual columns.
		c.IsGenerated = true
		expr := ""
		if r.Default != nil {
			expr = strings.TrimSpace(*r.Default)
		}
		c.GenerationExpression = &expr
	} else {
		c.DefaultValue = ParseDataDefault(r.Default)
	}
	return c
}

// Character columns report CHAR_LENGTH so byte-semantics multibyte columns
// still give a length in characters.
func (o *OracleInspector) columnInfo(ctx context.Context, table, column string) ([]Column, error) {
	const q = `
	SELECT
		c.TABLE_NAME AS "table_name",
		SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA') AS "table_schema",
		c.COLUMN_NAME AS "column_name",
		c.DATA_TYPE AS "data_type",
		CASE
			WHEN c.CHAR_USED IS NOT NULL THEN c.CHAR_LENGTH
			WHEN c.DATA_TYPE = 'RAW' THEN c.DATA_LENGTH
		END AS "max_length",
		c.DATA_PRECISION AS "numeric_precision",
		c.DATA_SCALE AS "numeric_scale",
		c.NULLABLE AS "is_nullable",
		c.DATA_DEFAULT AS "default_value",
		c.VIRTUAL_COLUMN AS "virtual_column",
		c.IDENTITY_COLUMN AS "identity_column",
		cm.COMMENTS AS "comment"
	FROM USER_TAB_COLS c
	LEFT JOIN USER_COL_COMMENTS cm
		ON cm.TABLE_NAME = c.TABLE_NAME AND cm.COLUMN_NAME = c.COLUMN_NAME
	WHERE c.HIDDEN_COLUMN = 'NO'
	  AND c.TABLE_NAME IN (` + oracleTables + `)
	  AND (:1 IS NULL OR c.TABLE_NAME = :2)
	  AND (:3 IS NULL OR c.COLUMN_NAME = :4)
	ORDER BY c.TABLE_NAME, c.COLUMN_ID`

	var (
		raw  []oracleColumn
		keys []keyUsage
	)
	err := gather(ctx, o.db,
		func(ctx context.Context) (err error) {
			raw, err = fetch[oracleColumn](ctx, &o.base, "column info", table, q, table, table, column, column)
			return err
		},
		func(ctx context.Context) (err error) {
			keys, err = o.keys(ctx, table)
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

// keys pairs foreign key columns with the referenced key by position, which
// also covers references into another owner's tables.
func (o *OracleInspector) keys(ctx context.Context, table string) ([]keyUsage, error) {
	const q = `
	SELECT
		cc.TABLE_NAME AS "table_name",
		cc.COLUMN_NAME AS "column_name",
		uc.CONSTRAINT_NAME AS "constraint_name",
		CASE uc.CONSTRAINT_TYPE WHEN 'P' THEN 'p' WHEN 'U' THEN 'u' ELSE 'f' END AS "kind",
		(
			SELECT COUNT(*) FROM USER_CONS_COLUMNS k
			WHERE k.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
		) AS "column_count",
		rc.OWNER AS "foreign_key_schema",
		rc.TABLE_NAME AS "foreign_key_table",
		rc.COLUMN_NAME AS "foreign_key_column"
	FROM USER_CONSTRAINTS uc
	JOIN USER_CONS_COLUMNS cc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
	LEFT JOIN ALL_CONS_COLUMNS rc
		ON rc.OWNER = uc.R_OWNER
		AND rc.CONSTRAINT_NAME = uc.R_CONSTRAINT_NAME
		AND rc.POSITION = cc.POSITION
	WHERE uc.CONSTRAINT_TYPE IN ('P', 'U', 'R')
	  AND (:1 IS NULL OR uc.TABLE_NAME = :2)`
	return fetch[keyUsage](ctx, &o.base, "column keys", table, q, table, table)
}

func (o *OracleInspector) Primary(ctx context.Context, table string) (string, error) {
	const q = `
	SELECT cc.COLUMN_NAME
	FROM USER_CONSTRAINTS uc
	JOIN USER_CONS_COLUMNS cc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
	WHERE uc.CONSTRAINT_TYPE = 'P'
	  AND uc.TABLE_NAME = :1
	ORDER BY cc.POSITION`
	names, err := fetchStrings(ctx, &o.base, "primary key", table, q, table)
	if err != nil {
		return "", err
	}
	return singlePrimary(names), nil
}

// ForeignKeys lists single-column foreign keys. Oracle has no ON UPDATE
// rule, so OnUpdate is always nil.
func (o *OracleInspector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	const q = `
	SELECT
		ucc.TABLE_NAME AS "table_name",
		ucc.COLUMN_NAME AS "column_name",
		rucc.OWNER AS "foreign_key_schema",
		rucc.TABLE_NAME AS "foreign_key_table",
		rucc.COLUMN_NAME AS "foreign_key_column",
		uc.CONSTRAINT_NAME AS "constraint_name",
		CAST(NULL AS VARCHAR2(1)) AS "on_update",
		uc.DELETE_RULE AS "on_delete"
	FROM USER_CONSTRAINTS uc
	JOIN USER_CONS_COLUMNS ucc ON ucc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
	JOIN ALL_CONS_COLUMNS rucc
		ON rucc.OWNER = uc.R_OWNER
		AND rucc.CONSTRAINT_NAME = uc.R_CONSTRAINT_NAME
		AND rucc.POSITION = ucc.POSITION
	WHERE uc.CONSTRAINT_TYPE = 'R'
	  AND (:1 IS NULL OR uc.TABLE_NAME = :2)
	  AND (SELECT COUNT(*) FROM USER_CONS_COLUMNS k WHERE k.CONSTRAINT_NAME = uc.CONSTRAINT_NAME) = 1
	ORDER BY ucc.TABLE_NAME, uc.CONSTRAINT_NAME`
	fks, err := fetch[ForeignKey](ctx, &o.base, "foreign keys", table, q, table, table)
	if err != nil {
		return nil, err
	}
	for i := range fks {
		fks[i].OnDelete = normalizeAction(fks[i].OnDelete)
	}
	return orEmpty(fks), nil
}
