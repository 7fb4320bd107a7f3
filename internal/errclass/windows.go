//go:build windows

//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop errclass/windows.go
//

package errclass

import (
	"errors"

	"golang.org/x/sys/windows"

	"github.com/nimbusdata/feedpipe/internal/errkind"
)

const (
	errEADDRNOTAVAIL   = windows.WSAEADDRNOTAVAIL
	errEADDRINUSE      = windows.WSAEADDRINUSE
	errECONNABORTED    = windows.WSAECONNABORTED
	errECONNREFUSED    = windows.WSAECONNREFUSED
	errECONNRESET      = windows.WSAECONNRESET
	errEHOSTUNREACH    = windows.WSAEHOSTUNREACH
	errEINVAL          = windows.WSAEINVAL
	errEINTR           = windows.WSAEINTR
	errENETDOWN        = windows.WSAENETDOWN
	errENETUNREACH     = windows.WSAENETUNREACH
	errENOBUFS         = windows.WSAENOBUFS
	errENOTCONN        = windows.WSAENOTCONN
	errEPROTONOSUPPORT = windows.WSAEPROTONOSUPPORT
	errETIMEDOUT       = windows.WSAETIMEDOUT
)

func classifyErrno(err error) errkind.Kind {
	var errno windows.Errno
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
