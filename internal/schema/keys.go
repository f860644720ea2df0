package schema

import (
	"sort"
	"strings"
)

// Constraint kinds as returned by the per-engine constraint queries.
const (
	keyPrimary = "p"
	keyUnique  = "u"
	keyForeign = "f"
)

// keyUsage is one column's participation in one constraint.
type keyUsage struct {
	Table      string  `db:"table_name"`
	Schema     string  `db:"table_schema"`
	Column     string  `db:"column_name"`
	Constraint string  `db:"constraint_name"`
	Kind       string  `db:"kind"`
	Columns    int64   `db:"column_count"`
	RefSchema  *string `db:"foreign_key_schema"`
	RefTable   *string `db:"foreign_key_table"`
	RefColumn  *string `db:"foreign_key_column"`
}

func keyRank(kind string) int {
	switch kind {
	case keyPrimary:
		return 0
	case keyUnique:
		return 1
	default:
		return 2
	}
}

// applyKeys copies single-column constraint facts onto cols.
//
// Constraints spanning more than one column are ignored. When a column is
// covered by several constraints the primary key is applied first, then
// unique keys, then foreign keys in constraint name order; the first foreign
// key wins.
func applyKeys(cols []Column, keys []keyUsage) {
	if len(cols) == 0 || len(keys) == 0 {
		return
	}

	single := make([]keyUsage, 0, len(keys))
	for _, k := range keys {
		if k.Columns == 1 {
			single = append(single, k)
		}
	}
	sort.SliceStable(single, func(i, j int) bool {
		ri, rj := keyRank(strings.ToLower(single[i].Kind)), keyRank(strings.ToLower(single[j].Kind))
		if ri != rj {
			return ri < rj
		}
		return single[i].Constraint < single[j].Constraint
	})

	type colKey struct{ table, column string }
	index := make(map[colKey]*Column, len(cols))
	for i := range cols {
		index[colKey{cols[i].Table, cols[i].Name}] = &cols[i]
	}

	for _, k := range single {
		col, ok := index[colKey{k.Table, k.Column}]
		if !ok {
			continue
		}
		switch strings.ToLower(k.Kind) {
		case keyPrimary:
			col.IsPrimaryKey = true
			col.IsUnique = true
		case keyUnique:
			col.IsUnique = true
		case keyForeign:
			if col.ForeignKeyTable != nil || k.RefTable == nil {
				continue
			}
			col.ForeignKeySchema = k.RefSchema
			col.ForeignKeyTable = k.RefTable
			col.ForeignKeyColumn = k.RefColumn
		}
	}
}

// singlePrimary returns the only name in names, or "" when there are zero or
// several.
func singlePrimary(names []string) string {
	if len(names) != 1 {
		return ""
	}
	return names[0]
}

// pgAction maps pg_constraint.confupdtype / confdeltype codes.
func pgAction(code string) *string {
	switch code {
	case "a":
		return ptr(ActionNoAction)
	case "r":
		return ptr(ActionRestrict)
	case "c":
		return ptr(ActionCascade)
	case "n":
		return ptr(ActionSetNull)
	case "d":
		return ptr(ActionSetDefault)
	}
	return nil
}

// normalizeAction upper-cases a rule name and turns underscores into spaces,
// so SET_NULL and set null both read SET NULL.
func normalizeAction(rule *string) *string {
	if rule == nil || *rule == "" {
		return nil
	}
	return ptr(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(*rule), "_", " ")))
}
