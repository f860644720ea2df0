// Package sqliteddl reads column facts out of the CREATE TABLE text that
// SQLite keeps in sqlite_master.sql. SQLite records AUTOINCREMENT and
// generated column expressions only there.
package sqliteddl

import (
	"strings"

	"github.com/koustreak/dbinspect/internal/errs"
)

// Column is what the statement says about one column definition.
type Column struct {
	Name          string
	PrimaryKey    bool
	AutoIncrement bool

	// Generated is set for GENERATED ALWAYS AS (...) and the short AS (...)
	// form; Expression holds the text between the parentheses.
	Generated  bool
	Expression string
}

// Columns is the ordered list of column definitions of one table.
type Columns []Column

// Lookup finds a column by name. SQLite identifiers are case-insensitive.
func (cs Columns) Lookup(name string) (Column, bool) {
	for _, c := range cs {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// words that open a table constraint rather than a column definition
var tableConstraint = map[string]bool{
	"CONSTRAINT": true,
	"PRIMARY":    true,
	"UNIQUE":     true,
	"CHECK":      true,
	"FOREIGN":    true,
}

// Parse extracts the column definitions of a CREATE TABLE statement.
// Statements without a column list (CREATE TABLE ... AS SELECT) give an
// InvalidInput error.
func Parse(ddl string) (Columns, error) {
	toks := tokenize(ddl)

	open := -1
	for i, t := range toks {
		if t.is("(") {
			open = i
			break
		}
	}
	if open < 0 {
		return nil, errs.New(errs.ErrKindInvalidInput, "create table statement has no column list")
	}
	end := matching(toks, open)
	if end < 0 {
		return nil, errs.New(errs.ErrKindInvalidInput, "create table statement has unbalanced parentheses")
	}

	var cols Columns
	for _, def := range splitDefinitions(toks[open+1 : end]) {
		if len(def) == 0 {
			continue
		}
		first := def[0]
		if first.kind == tokWord && tableConstraint[strings.ToUpper(first.text)] {
			continue
		}
		cols = append(cols, column(ddl, def))
	}
	return cols, nil
}

func column(ddl string, def []token) Column {
	c := Column{Name: def[0].value()}

	for i := 1; i < len(def); i++ {
		t := def[i]
		if t.kind != tokWord {
			if t.is("(") {
				i = matching(def, i)
				if i < 0 {
					break
				}
			}
			continue
		}

		switch strings.ToUpper(t.text) {
		case "AUTOINCREMENT":
			c.AutoIncrement = true
		case "PRIMARY":
			if i+1 < len(def) && def[i+1].isWord("KEY") {
				c.PrimaryKey = true
			}
		case "AS":
			if i+1 < len(def) && def[i+1].is("(") {
				end := matching(def, i+1)
				if end < 0 {
					break
				}
				c.Generated = true
				c.Expression = strings.TrimSpace(ddl[def[i+1].end:def[end].start])
				i = end
			}
		}
	}
	return c
}

// splitDefinitions splits the body of the column list at top-level commas.
func splitDefinitions(body []token) [][]token {
	var (
		defs  [][]token
		start int
		depth int
	)
	for i, t := range body {
		switch {
		case t.is("("):
			depth++
		case t.is(")"):
			depth--
		case t.is(",") && depth == 0:
			defs = append(defs, body[start:i])
			start = i + 1
		}
	}
	if start < len(body) {
		defs = append(defs, body[start:])
	}
	return defs
}

// matching returns the index of the ")" closing toks[open], or -1.
func matching(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch {
		case toks[i].is("("):
			depth++
		case toks[i].is(")"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
