package sqliteddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbinspect/internal/errs"
)

func TestParse_Teams(t *testing.T) {
	cols, err := Parse(`CREATE TABLE teams (
		id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		uuid varchar(36) NOT NULL UNIQUE,
		name varchar(100) DEFAULT NULL,
		description text,
		credits integer,
		created_at datetime,
		activated_at date
	)`)
	require.NoError(t, err)
	require.Len(t, cols, 7)

	assert.Equal(t, Column{Name: "id", PrimaryKey: true, AutoIncrement: true}, cols[0])
	assert.Equal(t, "uuid", cols[1].Name)
	assert.False(t, cols[1].AutoIncrement)
}

func TestParse_GeneratedColumns(t *testing.T) {
	cols, err := Parse(`CREATE TABLE people (
		name text,
		name_upper text GENERATED ALWAYS AS (upper(name)) VIRTUAL,
		total real AS ((price * qty) + 1) STORED,
		note text DEFAULT 'as (not generated)'
	)`)
	require.NoError(t, err)

	upper, ok := cols.Lookup("NAME_UPPER")
	require.True(t, ok)
	assert.True(t, upper.Generated)
	assert.Equal(t, "upper(name)", upper.Expression)

	total, _ := cols.Lookup("total")
	assert.True(t, total.Generated)
	assert.Equal(t, "(price * qty) + 1", total.Expression)

	note, _ := cols.Lookup("note")
	assert.False(t, note.Generated)
}

func TestParse_SkipsTableConstraints(t *testing.T) {
	cols, err := Parse(`CREATE TABLE users (
		id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		team_id integer NOT NULL,
		status varchar(60) DEFAULT 'active, pending',
		CONSTRAINT fk_team FOREIGN KEY(team_id) REFERENCES teams(id) ON UPDATE CASCADE,
		UNIQUE (team_id, status)
	)`)
	require.NoError(t, err)

	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "team_id", "status"}, names)
}

func TestParse_QuotedNamesAndComments(t *testing.T) {
	cols, err := Parse("CREATE TABLE \"odd (name)\" (\n" +
		"  \"my \"\"id\"\"\" INTEGER PRIMARY KEY AUTOINCREMENT, -- the key, really\n" +
		"  `back` text /* , fake */,\n" +
		"  [square] text\n" +
		") WITHOUT ROWID")
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, `my "id"`, cols[0].Name)
	assert.True(t, cols[0].AutoIncrement)
	assert.Equal(t, "back", cols[1].Name)
	assert.Equal(t, "square", cols[2].Name)
}

func TestParse_NoColumnList(t *testing.T) {
	_, err := Parse(`CREATE TABLE copy AS SELECT * FROM teams`)
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Parse(`CREATE TABLE broken (id integer`)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestColumns_Lookup(t *testing.T) {
	var cols Columns
	_, ok := cols.Lookup("id")
	assert.False(t, ok)

	cols = Columns{{Name: "Email"}}
	c, ok := cols.Lookup("EMAIL")
	assert.True(t, ok)
	assert.Equal(t, "Email", c.Name)
}
