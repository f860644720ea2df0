package database

import (
	"strings"

	"github.com/lib/pq"
)

// QuoteIdent quotes a single identifier for embedding in SQL text.
// Values never go through here; they are always bound.
func QuoteIdent(d Driver, name string) string {
	switch d {
	case DriverPostgres, DriverCockroachDB:
		return pq.QuoteIdentifier(name)
	case DriverMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case DriverMSSQL:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// QuoteQualified quotes and dot-joins the non-empty parts of a name,
// e.g. schema and table.
func QuoteQualified(d Driver, parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		quoted = append(quoted, QuoteIdent(d, p))
	}
	return strings.Join(quoted, ".")
}
