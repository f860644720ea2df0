package schema

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numericLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParsePostgresDefault turns a Postgres column default expression into a
// plain value.
//
//	nil                               -> nil
//	nextval('users_id_seq'::regclass) -> the expression, unchanged
//	NULL::character varying           -> nil
//	'active'::character varying       -> "active"
//	'{"a":1}'::jsonb                  -> map[string]any{"a": 1.0}
//	'42'::integer, 42                 -> int64(42)
//	now()                             -> "now()"
func ParsePostgresDefault(raw *string) any {
	if raw == nil {
		return nil
	}
	expr := strings.TrimSpace(*raw)
	if strings.HasPrefix(expr, "nextval(") {
		return *raw
	}

	value, cast := splitCast(expr)
	if strings.EqualFold(value, "null") {
		return nil
	}

	quoted := len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\''
	if quoted {
		value = strings.ReplaceAll(value[1:len(value)-1], "''", "'")
	}

	cast = strings.ToLower(cast)
	switch {
	case strings.Contains(cast, "json"):
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return value
		}
		return v
	case strings.Contains(cast, "char"), strings.Contains(cast, "text"), cast == "string":
		return value
	}
	return coerceNumber(value)
}

// splitCast splits "value::type" at the last "::" outside single quotes.
// The type part is "" when there is no cast. CockroachDB's ":::" type
// annotation splits the same way.
func splitCast(expr string) (value, cast string) {
	inQuote := false
	at := -1
	for i := 0; i < len(expr); i++ {
		switch {
		case expr[i] == '\'':
			inQuote = !inQuote
		case !inQuote && expr[i] == ':' && i+1 < len(expr) && expr[i+1] == ':':
			at = i
			i++
		}
	}
	if at < 0 {
		return expr, ""
	}
	return strings.TrimSpace(expr[:at]), strings.TrimSpace(strings.TrimLeft(expr[at+2:], ":"))
}

// ParseMSSQLDefault turns a SQL Server default definition, as returned by
// object_definition, into a plain value.
//
//	((0))        -> int64(0)
//	('active')   -> "active"
//	(N'x')       -> "x"
//	(NULL)       -> nil
//	(getdate())  -> "getdate()"
func ParseMSSQLDefault(raw *string) any {
	if raw == nil {
		return nil
	}
	value := stripParens(strings.TrimSpace(*raw))

	if len(value) >= 3 && (value[0] == 'N' || value[0] == 'n') && value[1] == '\'' && value[len(value)-1] == '\'' {
		value = value[1:]
	}
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		return strings.ReplaceAll(value[1:len(value)-1], "''", "'")
	}
	if strings.EqualFold(value, "null") {
		return nil
	}
	return coerceNumber(value)
}

// stripParens removes enclosing parentheses as long as the first one closes
// at the very end, so "((1)+(2))" becomes "(1)+(2)" and stops there.
func stripParens(s string) string {
	for len(s) >= 2 && s[0] == '(' && matchingParen(s) == len(s)-1 {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func matchingParen(s string) int {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if inQuote {
				continue
			}
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ParseDataDefault normalizes the default text reported by MySQL, Oracle and
// SQLite: "null" in any case becomes nil and one layer of quotes is removed.
// The result is always a string or nil.
func ParseDataDefault(raw *string) any {
	if raw == nil {
		return nil
	}
	value := strings.TrimSpace(*raw)
	if strings.EqualFold(value, "null") {
		return nil
	}
	if len(value) >= 2 && (value[0] == '\'' || value[0] == '"') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}
	return strings.TrimSpace(value)
}

// StripQuotes removes one layer of single quotes when both are present.
func StripQuotes(s string) string {
	return stripDelims(s, '\'')
}

// StripDoubleQuotes removes one layer of double quotes when both are present.
func StripDoubleQuotes(s string) string {
	return stripDelims(s, '"')
}

func stripDelims(s string, q byte) string {
	if len(s) >= 2 && s[0] == q && s[len(s)-1] == q {
		return s[1 : len(s)-1]
	}
	return s
}

// coerceNumber returns an int64 or float64 when s is a numeric literal and
// s itself otherwise.
func coerceNumber(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if numericLiteral.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
			return f
		}
	}
	return s
}
