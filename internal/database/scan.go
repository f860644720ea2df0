package database

import (
	"context"

	"github.com/stephenafamo/scan"
)

// Queryer adapts a DB to scan.Queryer so result sets can be mapped onto
// structs with scan.All / scan.One.
func Queryer(db DB) scan.Queryer {
	return queryer{db: db}
}

type queryer struct {
	db DB
}

func (q queryer) QueryContext(ctx context.Context, query string, args ...any) (scan.Rows, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows{Rows: rows}, nil
}

// scanRows gives Rows the error-returning Close that scan expects.
type scanRows struct {
	Rows
}

func (r scanRows) Close() error {
	r.Rows.Close()
	return nil
}
