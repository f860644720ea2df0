package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
)

var (
	keyColumns = []string{
		"table_name", "column_name", "constraint_name", "kind", "column_count",
		"foreign_key_schema", "foreign_key_table", "foreign_key_column",
	}
	fkColumns = []string{
		"table_name", "column_name", "foreign_key_schema", "foreign_key_table",
		"foreign_key_column", "constraint_name", "on_update", "on_delete",
	}
)

func i64(v int64) *int64 { return &v }

func TestPostgres_Tables(t *testing.T) {
	db := newFakeDB(database.DriverPostgres, response{
		match:   "SELECT relname::text FROM visible",
		columns: []string{"relname"},
		rows:    [][]any{{"teams"}, {"users"}},
	})
	insp := NewPostgresInspector(db, []string{"app", "public"}, nil)

	tables, err := insp.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"teams", "users"}, tables)
	assert.Equal(t, []any{[]string{"app", "public"}}, db.lastArgs("FROM visible"))

	insp.WithSchema("audit")
	_, err = insp.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{[]string{"audit"}}, db.lastArgs("FROM visible"))
}

func TestPostgres_Empty(t *testing.T) {
	insp := NewPostgresInspector(newFakeDB(database.DriverPostgres), nil, nil)
	ctx := context.Background()

	tables, err := insp.Tables(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tables)
	assert.Empty(t, tables)

	info, err := insp.TableInfo(ctx)
	require.NoError(t, err)
	assert.NotNil(t, info)

	table, err := insp.Table(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, table)

	fks, err := insp.ForeignKeys(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, fks)
}

func pgColumnResponses(version int64) []response {
	cols := []string{
		"table_name", "table_schema", "column_name", "data_type", "max_length",
		"numeric_precision", "numeric_scale", "is_nullable", "default_value",
		"is_generated", "is_identity", "has_sequence", "comment",
	}
	return []response{
		{match: "server_version_num", columns: []string{"v"}, rows: [][]any{{version}}},
		{match: "pg_catalog.format_type", columns: cols, rows: [][]any{
			{"users", "public", "id", "integer", nil, int64(32), int64(0), false, "nextval('users_id_seq'::regclass)", false, false, true, nil},
			{"users", "public", "email", "character varying(255)", int64(255), nil, nil, false, "'nobody@example.com'::character varying", false, false, false, "login"},
			{"users", "public", "score", "numeric(10,2)", nil, int64(10), int64(2), true, "0.5", false, false, false, nil},
			{"users", "public", "prefs", "jsonb", nil, nil, nil, true, `'{"theme":"dark"}'::jsonb`, false, false, false, nil},
			{"users", "public", "email_lower", "text", nil, nil, nil, true, "lower((email)::text)", true, false, false, nil},
			{"users", "public", "team_id", "integer", nil, int64(32), int64(0), true, nil, false, false, false, nil},
		}},
		{match: "con.contype::text AS kind", columns: keyColumns, rows: [][]any{
			{"users", "id", "users_pkey", "p", int64(1), nil, nil, nil},
			{"users", "email", "users_email_key", "u", int64(1), nil, nil, nil},
			{"users", "team_id", "users_team_id_fkey", "f", int64(1), "public", "teams", "id"},
			{"users", "score", "users_score_team_key", "u", int64(2), nil, nil, nil},
		}},
	}
}

func TestPostgres_ColumnInfo(t *testing.T) {
	db := newFakeDB(database.DriverPostgres, pgColumnResponses(150004)...)
	insp := NewPostgresInspector(db, nil, nil)

	cols, err := insp.ColumnInfo(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, cols, 6)

	id := cols[0]
	assert.True(t, id.IsPrimaryKey)
	assert.True(t, id.IsUnique)
	assert.True(t, id.HasAutoIncrement)
	assert.Equal(t, "nextval('users_id_seq'::regclass)", id.DefaultValue)
	assert.Equal(t, i64(32), id.NumericPrecision)

	email := cols[1]
	assert.True(t, email.IsUnique)
	assert.False(t, email.IsPrimaryKey)
	assert.Equal(t, "nobody@example.com", email.DefaultValue)
	assert.Equal(t, i64(255), email.MaxLength)
	assert.Equal(t, ptr("login"), email.Comment)

	score := cols[2]
	assert.False(t, score.IsUnique, "composite unique must not mark the column")
	assert.Equal(t, 0.5, score.DefaultValue)
	assert.True(t, score.IsNullable)

	assert.Equal(t, map[string]any{"theme": "dark"}, cols[3].DefaultValue)

	gen := cols[4]
	assert.True(t, gen.IsGenerated)
	assert.Nil(t, gen.DefaultValue)
	assert.Equal(t, ptr("lower((email)::text)"), gen.GenerationExpression)

	team := cols[5]
	assert.Equal(t, ptr("public"), team.ForeignKeySchema)
	assert.Equal(t, ptr("teams"), team.ForeignKeyTable)
	assert.Equal(t, ptr("id"), team.ForeignKeyColumn)

	assert.Equal(t, []any{[]string{"public"}, "users", ""}, db.lastArgs("pg_catalog.format_type"))
	assert.Contains(t, db.lastSQL("pg_catalog.format_type"), "a.attgenerated = 's'")
}

func TestPostgres_ColumnInfoOldServer(t *testing.T) {
	db := newFakeDB(database.DriverPostgres, pgColumnResponses(110000)...)
	insp := NewPostgresInspector(db, nil, nil)

	_, err := insp.ColumnInfo(context.Background(), "users")
	require.NoError(t, err)

	q := db.lastSQL("pg_catalog.format_type")
	assert.NotContains(t, q, "attgenerated")
	assert.Contains(t, q, "a.attidentity IN ('a', 'd')")
}

func TestPostgres_Column(t *testing.T) {
	db := newFakeDB(database.DriverPostgres, pgColumnResponses(150004)...)
	insp := NewPostgresInspector(db, nil, nil)

	col, err := insp.Column(context.Background(), "users", "id")
	require.NoError(t, err)
	require.NotNil(t, col)
	assert.Equal(t, []any{[]string{"public"}, "users", "id"}, db.lastArgs("pg_catalog.format_type"))
}

func TestPostgres_ForeignKeys(t *testing.T) {
	db := newFakeDB(database.DriverPostgres, response{
		match:   "CROSS JOIN LATERAL",
		columns: fkColumns,
		rows: [][]any{
			{"users", "team_id", "public", "teams", "id", "users_team_id_fkey", "c", "n"},
			{"grants", "org_id,team_id", "public", "teams", "org_id,id", "grants_team_fkey", "a", "r"},
		},
	})
	insp := NewPostgresInspector(db, nil, nil)

	fks, err := insp.ForeignKeys(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, fks, 2)
	assert.Equal(t, ptr(ActionCascade), fks[0].OnUpdate)
	assert.Equal(t, ptr(ActionSetNull), fks[0].OnDelete)
	assert.Equal(t, "org_id,team_id", fks[1].Column)
	assert.Equal(t, ptr(ActionNoAction), fks[1].OnUpdate)
	assert.Equal(t, ptr(ActionRestrict), fks[1].OnDelete)
}

func TestPostgres_Primary(t *testing.T) {
	db := newFakeDB(database.DriverPostgres, response{
		match:   "AND i.indisprimary",
		columns: []string{"attname"},
		rows:    [][]any{{"id"}},
	})
	insp := NewPostgresInspector(db, nil, nil)

	pk, err := insp.Primary(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, "id", pk)

	db.responses[0].rows = [][]any{{"org_id"}, {"id"}}
	pk, err = insp.Primary(context.Background(), "memberships")
	require.NoError(t, err)
	assert.Empty(t, pk)
}

func TestPostgres_QueryError(t *testing.T) {
	cause := errors.New("permission denied for table pg_class")
	db := newFakeDB(database.DriverPostgres, response{
		match: "FROM visible",
		err:   errs.Wrap(errs.ErrKindPermissionDenied, "query failed", cause),
	})
	insp := NewPostgresInspector(db, nil, nil)

	_, err := insp.Tables(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsPermissionDenied(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "list tables")
}

func TestCockroach_SearchPathPrecedence(t *testing.T) {
	db := newFakeDB(database.DriverCockroachDB, response{
		match:   "FROM information_schema.tables t",
		columns: []string{"table_name", "table_schema", "comment", "owner"},
		rows: [][]any{
			{"events", "public", nil, "root"},
			{"users", "app", "app users", "root"},
			{"users", "public", nil, "root"},
		},
	})
	insp := NewCockroachInspector(db, []string{"app", "public"}, nil)

	tables, err := insp.TableInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "events", tables[0].Name)
	assert.Equal(t, "public", tables[0].Schema)
	assert.Equal(t, "users", tables[1].Name)
	assert.Equal(t, "app", tables[1].Schema)

	names, err := insp.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "users"}, names)
}

func TestCockroach_ColumnInfo(t *testing.T) {
	cols := []string{
		"table_name", "table_schema", "column_name", "data_type", "max_length",
		"numeric_precision", "numeric_scale", "is_nullable", "default_value",
		"is_generated", "generation_expression", "is_identity", "comment",
	}
	keys := append([]string{"table_schema"}, keyColumns...)
	db := newFakeDB(database.DriverCockroachDB,
		response{match: "col.generation_expression", columns: cols, rows: [][]any{
			{"users", "public", "id", "INT8", nil, int64(64), int64(0), "NO", "unique_rowid()", "NEVER", "", "NO", nil},
			{"users", "public", "name", "STRING", int64(80), nil, nil, "YES", "'anon':::STRING", "NEVER", "", "NO", nil},
			{"users", "public", "name_upper", "STRING", nil, nil, nil, "YES", nil, "ALWAYS", "upper(name)", "NO", nil},
			{"users", "other", "ghost", "INT8", nil, nil, nil, "YES", nil, "NEVER", "", "NO", nil},
		}},
		response{match: "con.contype::STRING AS kind", columns: keys, rows: [][]any{
			{"public", "users", "id", "users_pkey", "p", int64(1), nil, nil, nil},
		}},
	)
	insp := NewCockroachInspector(db, []string{"public", "other"}, nil)

	got, err := insp.ColumnInfo(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, got, 3, "columns from a shadowed schema are dropped")

	assert.True(t, got[0].HasAutoIncrement)
	assert.True(t, got[0].IsPrimaryKey)
	assert.Equal(t, "anon", got[1].DefaultValue)
	assert.True(t, got[2].IsGenerated)
	assert.Equal(t, ptr("upper(name)"), got[2].GenerationExpression)
	assert.Nil(t, got[2].DefaultValue)
}

func TestCockroach_ForeignKeys(t *testing.T) {
	db := newFakeDB(database.DriverCockroachDB, response{
		match: "con.confupdtype::STRING AS on_update",
		columns: []string{
			"table_name", "table_schema", "column_name", "foreign_key_schema", "foreign_key_table",
			"foreign_key_column", "constraint_name", "on_update", "on_delete",
		},
		rows: [][]any{
			{"orders", "public", "owner_id", "public", "users", "id", "fk_owner", "a", "c"},
			{"projects", "public", "owner_id", "public", "teams", "id", "fk_owner", "a", "n"},
		},
	})
	insp := NewCockroachInspector(db, nil, nil)

	fks, err := insp.ForeignKeys(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []ForeignKey{
		{
			Table: "orders", Column: "owner_id",
			ForeignKeySchema: ptr("public"), ForeignKeyTable: "users", ForeignKeyColumn: "id",
			ConstraintName: ptr("fk_owner"), OnUpdate: ptr(ActionNoAction), OnDelete: ptr(ActionCascade),
		},
		{
			Table: "projects", Column: "owner_id",
			ForeignKeySchema: ptr("public"), ForeignKeyTable: "teams", ForeignKeyColumn: "id",
			ConstraintName: ptr("fk_owner"), OnUpdate: ptr(ActionNoAction), OnDelete: ptr(ActionSetNull),
		},
	}, fks)
}

// Constraint names are only unique per table, so both catalog queries must
// tie each constraint to its own relation.
func TestCockroach_ConstraintsJoinedByRelation(t *testing.T) {
	db := newFakeDB(database.DriverCockroachDB)
	insp := NewCockroachInspector(db, nil, nil)
	ctx := context.Background()

	_, err := insp.ColumnInfo(ctx, "users")
	require.NoError(t, err)
	_, err = insp.ForeignKeys(ctx, "users")
	require.NoError(t, err)

	for _, match := range []string{"AS kind", "AS on_update"} {
		sql := db.lastSQL(match)
		assert.Contains(t, sql, "rel.oid = con.conrelid", match)
		assert.Contains(t, sql, "fa.attrelid = con.confrelid", match)
		assert.NotContains(t, sql, "referential_constraints", match)
		assert.NotContains(t, sql, "constraint_column_usage", match)
	}
}

func TestMySQL_ColumnInfo(t *testing.T) {
	cols := []string{
		"table_name", "table_schema", "column_name", "data_type", "max_length",
		"numeric_precision", "numeric_scale", "is_nullable", "default_value",
		"extra", "generation_expression", "comment",
	}
	db := newFakeDB(database.DriverMySQL,
		response{match: "c.EXTRA AS extra", columns: cols, rows: [][]any{
			{"users", "app", "id", "int", nil, int64(10), int64(0), "NO", nil, "auto_increment", nil, ""},
			{"users", "app", "status", "varchar", int64(20), nil, nil, "YES", "active", "", nil, "account state"},
			{"users", "app", "created_at", "timestamp", nil, nil, nil, "YES", "CURRENT_TIMESTAMP", "DEFAULT_GENERATED", nil, ""},
			{"users", "app", "full_name", "varchar", int64(200), nil, nil, "YES", nil, "VIRTUAL GENERATED", "concat(`first`,' ',`last`)", ""},
			{"users", "app", "team_id", "int", nil, int64(10), int64(0), "YES", nil, "", nil, ""},
		}},
		response{match: "END AS kind", columns: keyColumns, rows: [][]any{
			{"users", "id", "PRIMARY", "p", int64(1), nil, nil, nil},
			{"users", "team_id", "users_team_fk", "f", int64(1), "app", "teams", "id"},
			{"users", "team_id", "users_team_uq", "u", int64(1), nil, nil, nil},
		}},
	)
	insp := NewMySQLInspector(db, "app", nil)

	got, err := insp.ColumnInfo(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.True(t, got[0].HasAutoIncrement)
	assert.True(t, got[0].IsPrimaryKey)
	assert.Nil(t, got[0].Comment, "empty comments read as nil")

	assert.Equal(t, "active", got[1].DefaultValue)
	assert.Equal(t, ptr("account state"), got[1].Comment)

	assert.False(t, got[2].IsGenerated)
	assert.Equal(t, "CURRENT_TIMESTAMP", got[2].DefaultValue)

	assert.True(t, got[3].IsGenerated)
	assert.Equal(t, ptr("concat(`first`,' ',`last`)"), got[3].GenerationExpression)

	assert.True(t, got[4].IsUnique)
	assert.Equal(t, ptr("teams"), got[4].ForeignKeyTable)

	assert.Equal(t, []any{"app", "users", "users", "", ""}, db.lastArgs("c.EXTRA AS extra"))
}

func TestMySQL_TableInfo(t *testing.T) {
	db := newFakeDB(database.DriverMySQL, response{
		match:   "TABLE_COLLATION",
		columns: []string{"table_name", "table_schema", "comment", "collation", "engine"},
		rows:    [][]any{{"users", "app", "", "utf8mb4_0900_ai_ci", "InnoDB"}},
	})
	insp := NewMySQLInspector(db, "", nil)

	table, err := insp.Table(context.Background(), "users")
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Nil(t, table.Comment)
	assert.Equal(t, ptr("InnoDB"), table.Engine)
	assert.Equal(t, ptr("utf8mb4_0900_ai_ci"), table.Collation)
	assert.Equal(t, []any{"", "users", "users"}, db.lastArgs("TABLE_COLLATION"))
}

func TestMySQL_ForeignKeys(t *testing.T) {
	db := newFakeDB(database.DriverMySQL, response{
		match:   "rc.UPDATE_RULE",
		columns: fkColumns,
		rows:    [][]any{{"users", "team_id", "app", "teams", "id", "users_team_fk", "CASCADE", "SET NULL"}},
	})
	insp := NewMySQLInspector(db, "app", nil)

	fks, err := insp.ForeignKeys(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, ptr(ActionCascade), fks[0].OnUpdate)
	assert.Equal(t, ptr(ActionSetNull), fks[0].OnDelete)
	assert.Equal(t, ptr("users_team_fk"), fks[0].ConstraintName)
}

func TestMSSQL_ColumnInfo(t *testing.T) {
	cols := []string{
		"table_name", "table_schema", "column_name", "data_type", "max_length",
		"numeric_precision", "numeric_scale", "is_nullable", "default_value",
		"is_computed", "generation_expression", "is_identity", "comment",
	}
	db := newFakeDB(database.DriverMSSQL,
		response{match: "c.is_computed", columns: cols, rows: [][]any{
			{"orders", "sales", "id", "int", nil, int64(10), int64(0), false, nil, false, nil, true, nil},
			{"orders", "sales", "qty", "int", nil, int64(10), int64(0), false, "((0))", false, nil, false, nil},
			{"orders", "sales", "note", "nvarchar", int64(-1), nil, nil, true, "(N'none')", false, nil, false, "free text"},
			{"orders", "sales", "total", "decimal", nil, int64(12), int64(2), true, "((1.5))", false, nil, false, nil},
			{"orders", "sales", "label", "nvarchar", int64(40), nil, nil, true, nil, true, "(concat([id],'-',[qty]))", false, nil},
			{"orders", "sales", "memo", "ntext", int64(16), nil, nil, true, nil, false, nil, false, nil},
			{"orders", "sales", "code", "varchar", int64(12), nil, nil, true, nil, false, nil, false, nil},
		}},
		response{match: "'u' END AS kind", columns: keyColumns, rows: [][]any{
			{"orders", "id", "PK_orders", "p", int64(1), nil, nil, nil},
		}},
	)
	insp := NewMSSQLInspector(db, "sales", nil)

	got, err := insp.ColumnInfo(context.Background(), "orders")
	require.NoError(t, err)
	require.Len(t, got, 7)

	assert.True(t, got[0].HasAutoIncrement)
	assert.True(t, got[0].IsPrimaryKey)
	assert.Nil(t, got[0].DefaultValue)

	assert.Equal(t, int64(0), got[1].DefaultValue)
	assert.Equal(t, "none", got[2].DefaultValue)
	assert.Equal(t, i64(-1), got[2].MaxLength)
	assert.Equal(t, 1.5, got[3].DefaultValue)

	assert.True(t, got[4].IsGenerated)
	assert.Equal(t, ptr("(concat([id],'-',[qty]))"), got[4].GenerationExpression)
	assert.Equal(t, i64(20), got[4].MaxLength, "nvarchar bytes halved")
	assert.Equal(t, i64(8), got[5].MaxLength, "ntext bytes halved")
	assert.Equal(t, i64(12), got[6].MaxLength)
	assert.Nil(t, got[0].MaxLength)

	assert.Contains(t, db.lastSQL("c.is_computed"), "'ntext'")

	assert.Equal(t, []any{"sales", "orders", ""}, db.lastArgs("c.is_computed"))
}

func TestPostgres_HasTableQuotesName(t *testing.T) {
	db := newFakeDB(database.DriverPostgres, response{
		match:   "to_regclass",
		columns: []string{"n"},
		rows:    [][]any{{int64(1)}},
	})
	insp := NewPostgresInspector(db, []string{"app", "Audit"}, nil)

	ok, err := insp.HasTable(context.Background(), `odd"name`)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []any{[]string{`"app"."odd""name"`, `"Audit"."odd""name"`}}, db.lastArgs("to_regclass"))
}

func TestMSSQL_HasTableQuotesName(t *testing.T) {
	db := newFakeDB(database.DriverMSSQL, response{
		match:   "OBJECT_ID",
		columns: []string{"n"},
		rows:    [][]any{{int64(1)}},
	})
	insp := NewMSSQLInspector(db, "", nil)

	ok, err := insp.HasTable(context.Background(), "order]s")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []any{"[dbo].[order]]s]"}, db.lastArgs("OBJECT_ID"))
}

func TestMSSQL_ForeignKeys(t *testing.T) {
	db := newFakeDB(database.DriverMSSQL, response{
		match:   "update_referential_action_desc",
		columns: fkColumns,
		rows:    [][]any{{"orders", "customer_id", "sales", "customers", "id", "FK_orders_customers", "NO_ACTION", "SET_DEFAULT"}},
	})
	insp := NewMSSQLInspector(db, "sales", nil)

	fks, err := insp.ForeignKeys(context.Background(), "orders")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, ptr(ActionNoAction), fks[0].OnUpdate)
	assert.Equal(t, ptr(ActionSetDefault), fks[0].OnDelete)
}

func TestOracle_ColumnInfo(t *testing.T) {
	cols := []string{
		"table_name", "table_schema", "column_name", "data_type", "max_length",
		"numeric_precision", "numeric_scale", "is_nullable", "default_value",
		"virtual_column", "identity_column", "comment",
	}
	db := newFakeDB(database.DriverOracle,
		response{match: `c.VIRTUAL_COLUMN AS "virtual_column"`, columns: cols, rows: [][]any{
			{"EMP", "HR", "ID", "NUMBER", nil, int64(10), int64(0), "N", nil, "NO", "YES", nil},
			{"EMP", "HR", "STATUS", "VARCHAR2", int64(10), nil, nil, "Y", "'NEW' ", "NO", "NO", "state"},
			{"EMP", "HR", "NAME_UP", "VARCHAR2", int64(100), nil, nil, "Y", ` UPPER("NAME") `, "YES", "NO", nil},
		}},
		response{match: `AS "kind"`, columns: keyColumns, rows: [][]any{
			{"EMP", "ID", "EMP_PK", "p", int64(1), nil, nil, nil},
		}},
	)
	insp := NewOracleInspector(db, nil)

	got, err := insp.ColumnInfo(context.Background(), "EMP")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.True(t, got[0].HasAutoIncrement)
	assert.True(t, got[0].IsPrimaryKey)
	assert.False(t, got[0].IsNullable)

	assert.Equal(t, "NEW", got[1].DefaultValue)
	assert.True(t, got[1].IsNullable)

	assert.True(t, got[2].IsGenerated)
	assert.Equal(t, ptr(`UPPER("NAME")`), got[2].GenerationExpression)
	assert.Nil(t, got[2].DefaultValue)

	assert.Equal(t, []any{"EMP", "EMP", "", ""}, db.lastArgs(`c.VIRTUAL_COLUMN AS "virtual_column"`))
}

func TestOracle_ForeignKeysNoUpdateRule(t *testing.T) {
	db := newFakeDB(database.DriverOracle, response{
		match:   `uc.DELETE_RULE AS "on_delete"`,
		columns: fkColumns,
		rows:    [][]any{{"EMP", "DEPT_ID", "HR", "DEPT", "ID", "EMP_DEPT_FK", nil, "CASCADE"}},
	})
	insp := NewOracleInspector(db, nil)

	fks, err := insp.ForeignKeys(context.Background(), "EMP")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Nil(t, fks[0].OnUpdate)
	assert.Equal(t, ptr(ActionCascade), fks[0].OnDelete)
	assert.Equal(t, ptr("HR"), fks[0].ForeignKeySchema)
}

func TestTableInfo_ForeignExtrasNil(t *testing.T) {
	tests := []struct {
		name  string
		insp  func(db *fakeDB) Inspector
		resp  response
		check func(t *testing.T, table Table)
	}{
		{
			name: "postgres",
			insp: func(db *fakeDB) Inspector { return NewPostgresInspector(db, nil, nil) },
			resp: response{
				match:   "pg_get_userbyid(v.relowner)",
				columns: []string{"table_name", "table_schema", "comment", "owner"},
				rows:    [][]any{{"users", "public", "", "app"}},
			},
			check: func(t *testing.T, table Table) {
				assert.Equal(t, ptr("app"), table.Owner)
				assert.Nil(t, table.Comment)
				assert.Nil(t, table.Collation)
				assert.Nil(t, table.Engine)
				assert.Nil(t, table.Catalog)
				assert.Nil(t, table.SQL)
			},
		},
		{
			name: "cockroachdb",
			insp: func(db *fakeDB) Inspector { return NewCockroachInspector(db, nil, nil) },
			resp: response{
				match:   "pg_get_userbyid(rel.relowner)",
				columns: []string{"table_name", "table_schema", "comment", "owner"},
				rows:    [][]any{{"users", "public", "accounts", "root"}},
			},
			check: func(t *testing.T, table Table) {
				assert.Equal(t, ptr("root"), table.Owner)
				assert.Equal(t, ptr("accounts"), table.Comment)
				assert.Nil(t, table.Collation)
				assert.Nil(t, table.Engine)
				assert.Nil(t, table.Catalog)
				assert.Nil(t, table.SQL)
			},
		},
		{
			name: "mssql",
			insp: func(db *fakeDB) Inspector { return NewMSSQLInspector(db, "dbo", nil) },
			resp: response{
				match:   "DB_NAME() AS catalog",
				columns: []string{"table_name", "table_schema", "catalog", "comment"},
				rows:    [][]any{{"users", "dbo", "shop", nil}},
			},
			check: func(t *testing.T, table Table) {
				assert.Equal(t, ptr("shop"), table.Catalog)
				assert.Nil(t, table.Comment)
				assert.Nil(t, table.Collation)
				assert.Nil(t, table.Engine)
				assert.Nil(t, table.Owner)
				assert.Nil(t, table.SQL)
			},
		},
		{
			name: "oracle",
			insp: func(db *fakeDB) Inspector { return NewOracleInspector(db, nil) },
			resp: response{
				match:   `tc.COMMENTS AS "comment"`,
				columns: []string{"table_name", "table_schema", "comment"},
				rows:    [][]any{{"USERS", "APP", ""}},
			},
			check: func(t *testing.T, table Table) {
				assert.Nil(t, table.Comment)
				assert.Nil(t, table.Collation)
				assert.Nil(t, table.Engine)
				assert.Nil(t, table.Owner)
				assert.Nil(t, table.Catalog)
				assert.Nil(t, table.SQL)
			},
		},
		{
			name: "mysql",
			insp: func(db *fakeDB) Inspector { return NewMySQLInspector(db, "app", nil) },
			resp: response{
				match:   "TABLE_COLLATION",
				columns: []string{"table_name", "table_schema", "comment", "collation", "engine"},
				rows:    [][]any{{"users", "app", "", "", "MyISAM"}},
			},
			check: func(t *testing.T, table Table) {
				assert.Equal(t, ptr("MyISAM"), table.Engine)
				assert.Nil(t, table.Comment)
				assert.Nil(t, table.Collation)
				assert.Nil(t, table.Owner)
				assert.Nil(t, table.Catalog)
				assert.Nil(t, table.SQL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insp := tt.insp(newFakeDB(database.DriverPostgres, tt.resp))

			tables, err := insp.TableInfo(context.Background())
			require.NoError(t, err)
			require.Len(t, tables, 1)
			tt.check(t, tables[0])
		})
	}
}

func TestOracle_HasColumnSkipsViewsAndMViews(t *testing.T) {
	db := newFakeDB(database.DriverOracle,
		response{match: "USER_TAB_COLS", columns: []string{"n"}, rows: [][]any{{int64(1)}}},
		response{match: "FROM USER_TABLES t", columns: []string{"n"}, rows: [][]any{{int64(1)}}},
	)
	insp := NewOracleInspector(db, nil)
	ctx := context.Background()

	ok, err := insp.HasColumn(ctx, "ORDERS", "ID")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []any{"ORDERS", "ID"}, db.lastArgs("USER_TAB_COLS"))

	_, err = insp.HasTable(ctx, "ORDERS")
	require.NoError(t, err)

	// HasColumn and HasTable share the same base-table filter.
	for _, match := range []string{"c.COLUMN_NAME = :2", "x.TABLE_NAME = :1"} {
		sql := db.lastSQL(match)
		assert.Contains(t, sql, "USER_MVIEWS", match)
		assert.Contains(t, sql, "t.DROPPED = 'NO'", match)
	}
}
