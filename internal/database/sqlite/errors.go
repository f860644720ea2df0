package sqlite

import (
	"errors"
	"fmt"

	"github.com/koustreak/dbinspect/internal/errs"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// mapError translates modernc.org/sqlite errors into *errs.Error.
func mapError(err error, msg string) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return errs.Wrap(classifyCode(liteErr.Code()), fmt.Sprintf("%s: %s", msg, liteErr.Error()), err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// classifyCode looks at the primary result code; extended codes carry it in
// the low byte.
func classifyCode(code int) errs.ErrKind {
	switch code & 0xff {
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return errs.ErrKindConnectionFailed
	case sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH, sqlite3.SQLITE_READONLY:
		return errs.ErrKindPermissionDenied
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_INTERRUPT:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}
