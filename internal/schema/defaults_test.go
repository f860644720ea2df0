package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePostgresDefault(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
		want any
	}{
		{"absent", nil, nil},
		{"sequence", ptr("nextval('users_id_seq'::regclass)"), "nextval('users_id_seq'::regclass)"},
		{"typed null", ptr("NULL::character varying"), nil},
		{"bare null", ptr("NULL"), nil},
		{"varchar", ptr("'active'::character varying"), "active"},
		{"text keeps digits", ptr("'42'::text"), "42"},
		{"escaped quote", ptr("'it''s'::text"), "it's"},
		{"colons inside literal", ptr("'a::b'::text"), "a::b"},
		{"integer", ptr("42"), int64(42)},
		{"negative cast", ptr("'-7'::integer"), int64(-7)},
		{"numeric", ptr("3.5"), 3.5},
		{"numeric cast", ptr("'10.25'::numeric"), 10.25},
		{"json object", ptr(`'{"a":1}'::jsonb`), map[string]any{"a": 1.0}},
		{"json array", ptr(`'[1,2]'::json`), []any{1.0, 2.0}},
		{"bad json", ptr(`'{oops'::json`), "{oops"},
		{"function", ptr("now()"), "now()"},
		{"boolean", ptr("true"), "true"},
		{"cockroach annotation", ptr("'anon':::STRING"), "anon"},
		{"cockroach digits", ptr("'7':::STRING"), "7"},
		{"cockroach int", ptr("0:::INT8"), int64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePostgresDefault(tt.raw))
		})
	}
}

func TestParseMSSQLDefault(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
		want any
	}{
		{"absent", nil, nil},
		{"zero", ptr("((0))"), int64(0)},
		{"decimal", ptr("((1.5))"), 1.5},
		{"string", ptr("('active')"), "active"},
		{"national string", ptr("(N'x')"), "x"},
		{"quoted number stays string", ptr("('42')"), "42"},
		{"null", ptr("(NULL)"), nil},
		{"bare lowercase null", ptr("(null)"), nil},
		{"quoted null is a string", ptr("('null')"), "null"},
		{"national quoted null is a string", ptr("(N'NULL')"), "NULL"},
		{"function", ptr("(getdate())"), "getdate()"},
		{"expression", ptr("((1)+(2))"), "(1)+(2)"},
		{"escaped quote", ptr("('it''s')"), "it's"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMSSQLDefault(tt.raw))
		})
	}
}

func TestParseDataDefault(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
		want any
	}{
		{"absent", nil, nil},
		{"null", ptr("NULL"), nil},
		{"lower null", ptr("null "), nil},
		{"single quoted", ptr("'active'"), "active"},
		{"double quoted", ptr(`"x"`), "x"},
		{"number stays string", ptr("0"), "0"},
		{"function", ptr("CURRENT_TIMESTAMP"), "CURRENT_TIMESTAMP"},
		{"padded oracle default", ptr("'N' \n"), "N"},
		{"unbalanced", ptr("'abc"), "'abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDataDefault(tt.raw))
		})
	}
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "abc", StripQuotes("'abc'"))
	assert.Equal(t, `"abc"`, StripQuotes(`"abc"`))
	assert.Equal(t, `'abc"`, StripQuotes(`'abc"`))
	assert.Equal(t, "'", StripQuotes("'"))
	assert.Equal(t, "", StripQuotes("''"))
	assert.Equal(t, "", StripQuotes(""))

	assert.Equal(t, "abc", StripDoubleQuotes(`"abc"`))
	assert.Equal(t, "'abc'", StripDoubleQuotes("'abc'"))
	assert.Equal(t, `"abc`, StripDoubleQuotes(`"abc`))
}
