package oracle

import (
	"errors"
	"fmt"
	"net"

	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/sijms/go-ora/v2/network"
)

// ORA- codes that change the error kind.
const (
	oraInsufficientPrivs = 1031
	oraInvalidLogin      = 1017
	oraAccountLocked     = 28000
	oraUserCancel        = 1013
	oraTNSNoListener     = 12541
	oraTNSUnknownService = 12514
	oraTNSResolve        = 12154
	oraNotConnected      = 3114
	oraEndOfChannel      = 3113
)

// mapError translates go-ora errors into *errs.Error.
func mapError(err error, msg string) error {
	var oraErr *network.OracleError
	if errors.As(err, &oraErr) {
		return errs.Wrap(classifyCode(oraErr.ErrCode), fmt.Sprintf("%s: %s", msg, oraErr.ErrMsg), err)
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

func classifyCode(code int) errs.ErrKind {
	switch code {
	case oraInvalidLogin, oraAccountLocked, oraTNSNoListener, oraTNSUnknownService, oraTNSResolve,
		oraNotConnected, oraEndOfChannel:
		return errs.ErrKindConnectionFailed
	case oraInsufficientPrivs:
		return errs.ErrKindPermissionDenied
	case oraUserCancel:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}
