package mssql

import (
	"errors"
	"fmt"
	"net"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/koustreak/dbinspect/internal/errs"
)

// SQL Server error numbers
// Full list: https://learn.microsoft.com/sql/relational-databases/errors-events/database-engine-events-and-errors
const (
	errObjectPermission   = 229
	errColumnPermission   = 230
	errCreatePermission   = 262
	errViewServerState    = 300
	errCannotOpenDatabase = 4060
	errLoginFailed        = 18456
	errLoginFromUntrusted = 18452
	errQueryTimeout       = -2
	errLockTimeout        = 1222
)

// mapError translates go-mssqldb errors into *errs.Error.
func mapError(err error, msg string) error {
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		return errs.Wrap(classifyNumber(sqlErr.Number), fmt.Sprintf("%s: %s", msg, sqlErr.Message), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

func classifyNumber(n int32) errs.ErrKind {
	switch n {
	case errLoginFailed, errLoginFromUntrusted, errCannotOpenDatabase:
		return errs.ErrKindConnectionFailed
	case errObjectPermission, errColumnPermission, errCreatePermission, errViewServerState:
		return errs.ErrKindPermissionDenied
	case errQueryTimeout, errLockTimeout:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}
