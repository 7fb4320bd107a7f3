//go:build unix

//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop errclass/unix.go
//

package errclass

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/nimbusdata/feedpipe/internal/errkind"
)

const (
	errEADDRNOTAVAIL   = unix.EADDRNOTAVAIL
	errEADDRINUSE      = unix.EADDRINUSE
	errECONNABORTED    = unix.ECONNABORTED
	errECONNREFUSED    = unix.ECONNREFUSED
	errECONNRESET      = unix.ECONNRESET
	errEHOSTUNREACH    = unix.EHOSTUNREACH
	errEINVAL          = unix.EINVAL
	errEINTR           = unix.EINTR
	errENETDOWN        = unix.ENETDOWN
	errENETUNREACH     = unix.ENETUNREACH
	errENOBUFS         = unix.ENOBUFS
	errENOTCONN        = unix.ENOTCONN
	errEPROTONOSUPPORT = unix.EPROTONOSUPPORT
	errETIMEDOUT       = unix.ETIMEDOUT
)

func classifyErrno(err error) errkind.Kind {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return errkind.Transport
	}
	switch errno {
	case errECONNREFUSED, errENETUNREACH, errEHOSTUNREACH, errENETDOWN, errEADDRNOTAVAIL:
		return errkind.Connection
	case errECONNRESET, errECONNABORTED, errENOTCONN, errENOBUFS, errEPROTONOSUPPORT:
		return errkind.Transport
	case errETIMEDOUT:
		return errkind.Connection
	case errEADDRINUSE, errEINVAL:
		return errkind.Initialization
	case errEINTR:
		return errkind.Transport
	default:
		return errkind.Transport
	}
}
