package database

import (
	"fmt"
	"strconv"

	"github.com/koustreak/dbinspect/internal/errs"
)

// Record is one loosely typed row, keyed by column name. []byte values are
// converted to string while scanning.
type Record map[string]any

// String returns the column as a string, "" when NULL or absent.
func (r Record) String(col string) string {
	if p := r.StringPtr(col); p != nil {
		return *p
	}
	return ""
}

// StringPtr returns the column as a string, nil when NULL or absent.
func (r Record) StringPtr(col string) *string {
	switch v := r[col].(type) {
	case nil:
		return nil
	case string:
		return &v
	default:
		s := fmt.Sprint(v)
		return &s
	}
}

// Int returns the column as an int64, 0 when NULL or not numeric.
func (r Record) Int(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// ScanRows reads all rows from the result set as Records.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes rows.
func ScanRows(rows Rows) ([]Record, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	result := make([]Record, 0)

	for rows.Next() {
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}

		row := make(Record, len(columns))
		for i, col := range columns {
			if b, ok := dest[i].([]byte); ok {
				dest[i] = string(b)
			}
			row[col] = dest[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}

	return result, nil
}
