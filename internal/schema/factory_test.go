package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
)

func TestParseClient(t *testing.T) {
	tests := []struct {
		name string
		want Client
	}{
		{"mysql", ClientMySQL},
		{"mysql2", ClientMySQL},
		{"postgres", ClientPostgres},
		{"postgresql", ClientPostgres},
		{"pg", ClientPostgres},
		{"pgnative", ClientPostgres},
		{"cockroachdb", ClientCockroachDB},
		{"mssql", ClientMSSQL},
		{"oracledb", ClientOracle},
		{"oracle", ClientOracle},
		{"sqlite3", ClientSQLite},
		{"better-sqlite3", ClientSQLite},
		{"  PG ", ClientPostgres},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClient(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClient_Unsupported(t *testing.T) {
	for _, name := range []string{"", "redshift", "sqlite", "mongodb"} {
		_, err := ParseClient(name)
		require.Error(t, err, name)
		assert.True(t, errs.IsUnsupportedEngine(err), name)
		assert.Contains(t, err.Error(), `"`+name+`"`)
	}
}

func TestClient_Driver(t *testing.T) {
	assert.Equal(t, database.DriverMySQL, ClientMySQL.Driver())
	assert.Equal(t, database.DriverPostgres, ClientPostgres.Driver())
	assert.Equal(t, database.DriverCockroachDB, ClientCockroachDB.Driver())
	assert.Equal(t, database.DriverMSSQL, ClientMSSQL.Driver())
	assert.Equal(t, database.DriverOracle, ClientOracle.Driver())
	assert.Equal(t, database.DriverSQLite, ClientSQLite.Driver())
	assert.Equal(t, database.Driver(""), Client(0).Driver())
	assert.Equal(t, "unknown", Client(99).String())
}

func TestNew_Dispatch(t *testing.T) {
	tests := []struct {
		client Client
		driver database.Driver
		want   any
	}{
		{ClientMySQL, database.DriverMySQL, &MySQLInspector{}},
		{ClientPostgres, database.DriverPostgres, &PostgresInspector{}},
		{ClientCockroachDB, database.DriverCockroachDB, &CockroachInspector{}},
		{ClientMSSQL, database.DriverMSSQL, &MSSQLInspector{}},
		{ClientOracle, database.DriverOracle, &OracleInspector{}},
		{ClientSQLite, database.DriverSQLite, &SQLiteInspector{}},
	}

	for _, tt := range tests {
		t.Run(tt.client.String(), func(t *testing.T) {
			insp, err := New(tt.client, newFakeDB(tt.driver), Options{})
			require.NoError(t, err)
			assert.IsType(t, tt.want, insp)
		})
	}

	_, err := New(Client(42), newFakeDB(database.DriverMySQL), Options{})
	assert.True(t, errs.IsUnsupportedEngine(err))

	_, err = New(ClientMySQL, nil, Options{})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestNew_Defaults(t *testing.T) {
	db := newFakeDB(database.DriverPostgres)

	insp, err := New(ClientPostgres, db, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultPostgresSchema}, insp.(*PostgresInspector).SearchPath())

	db.searchPath = []string{"app", "public"}
	insp, err = New(ClientPostgres, db, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "public"}, insp.(*PostgresInspector).SearchPath())

	insp, err = New(ClientCockroachDB, db, Options{Schema: "audit"})
	require.NoError(t, err)
	assert.Equal(t, []string{"audit"}, insp.(*CockroachInspector).SearchPath())

	insp, err = New(ClientPostgres, db, Options{Schema: "audit", SearchPath: []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, insp.(*PostgresInspector).SearchPath())

	mssql, err := New(ClientMSSQL, newFakeDB(database.DriverMSSQL), Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMSSQLSchema, mssql.(*MSSQLInspector).Schema())

	mydb := newFakeDB(database.DriverMySQL)
	mydb.database = "test_db"
	my, err := New(ClientMySQL, mydb, Options{})
	require.NoError(t, err)
	assert.Equal(t, "test_db", my.(*MySQLInspector).Database())

	my, err = New(ClientMySQL, mydb, Options{Schema: "other_db"})
	require.NoError(t, err)
	assert.Equal(t, "other_db", my.(*MySQLInspector).Database())
}

func TestWithSchema(t *testing.T) {
	pg := NewPostgresInspector(newFakeDB(database.DriverPostgres), nil, nil)
	got, err := WithSchema(pg, "audit")
	require.NoError(t, err)
	assert.Same(t, pg, got)
	assert.Equal(t, []string{"audit"}, pg.SearchPath())

	ms := NewMSSQLInspector(newFakeDB(database.DriverMSSQL), "", nil)
	_, err = WithSchema(ms, "sales")
	require.NoError(t, err)
	assert.Equal(t, "sales", ms.Schema())

	for _, insp := range []Inspector{
		NewMySQLInspector(newFakeDB(database.DriverMySQL), "db", nil),
		NewOracleInspector(newFakeDB(database.DriverOracle), nil),
	} {
		_, err := WithSchema(insp, "x")
		assert.True(t, errs.IsInvalidInput(err))
	}
}
