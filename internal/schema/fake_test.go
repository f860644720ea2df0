package schema

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/koustreak/dbinspect/internal/database"
)

// fakeDB answers queries from a script. The first response whose match is a
// substring of the SQL wins; unmatched queries return no rows.
type fakeDB struct {
	driver     database.Driver
	database   string
	searchPath []string
	responses  []response

	mu      sync.Mutex
	queries []query
}

type response struct {
	match   string
	columns []string
	rows    [][]any
	err     error
}

type query struct {
	sql  string
	args []any
}

func newFakeDB(driver database.Driver, responses ...response) *fakeDB {
	return &fakeDB{driver: driver, responses: responses}
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close()                     {}
func (f *fakeDB) Driver() database.Driver    { return f.driver }
func (f *fakeDB) Database() string           { return f.database }
func (f *fakeDB) SearchPath() []string       { return f.searchPath }
func (f *fakeDB) Concurrent() bool           { return true }

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (database.Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query{sql: sql, args: args})

	for _, r := range f.responses {
		if strings.Contains(sql, r.match) {
			if r.err != nil {
				return nil, r.err
			}
			return &fakeRows{columns: r.columns, rows: r.rows, pos: -1}, nil
		}
	}
	return &fakeRows{pos: -1}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) (database.Row, error) {
	rows, err := f.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return fakeRow{rows: rows.(*fakeRows)}, nil
}

// lastArgs returns the arguments of the most recent query containing match.
func (f *fakeDB) lastArgs(match string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.queries) - 1; i >= 0; i-- {
		if strings.Contains(f.queries[i].sql, match) {
			return f.queries[i].args
		}
	}
	return nil
}

func (f *fakeDB) lastSQL(match string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.queries) - 1; i >= 0; i-- {
		if strings.Contains(f.queries[i].sql, match) {
			return f.queries[i].sql
		}
	}
	return ""
}

type fakeRows struct {
	columns []string
	rows    [][]any
	pos     int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Columns() ([]string, error) { return r.columns, nil }
func (r *fakeRows) Close()                     {}
func (r *fakeRows) Err() error                 { return nil }

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("fake: scan %d values into %d targets", len(row), len(dest))
	}
	for i, d := range dest {
		if err := assign(d, row[i]); err != nil {
			return err
		}
	}
	return nil
}

type fakeRow struct {
	rows *fakeRows
}

func (r fakeRow) Scan(dest ...any) error {
	if !r.rows.Next() {
		return fmt.Errorf("fake: no rows")
	}
	return r.rows.Scan(dest...)
}

// assign stores v into the pointer d, allocating for pointer fields and
// converting between numeric kinds.
func assign(d any, v any) error {
	dv := reflect.ValueOf(d)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("fake: destination %T is not a pointer", d)
	}
	dv = dv.Elem()

	if v == nil {
		dv.Set(reflect.Zero(dv.Type()))
		return nil
	}
	if dv.Kind() == reflect.Interface {
		dv.Set(reflect.ValueOf(v))
		return nil
	}

	target := dv
	if dv.Kind() == reflect.Pointer {
		target = reflect.New(dv.Type().Elem()).Elem()
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().ConvertibleTo(target.Type()) {
		return fmt.Errorf("fake: cannot store %T in %s", v, target.Type())
	}
	target.Set(rv.Convert(target.Type()))
	if dv.Kind() == reflect.Pointer {
		dv.Set(target.Addr())
	}
	return nil
}
