// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone/nop errclass/unix.go, errclass/windows.go
//

// Package errclass classifies transport errno values into the error
// taxonomy kinds used for structured logging and the process-scoped
// last-error code (spec §7), using the same build-tagged
// errno-to-classifier split as [golang.org/x/sys/unix]/[...windows]
// errno constants.
package errclass

import (
	"errors"
	"io"

	"github.com/nimbusdata/feedpipe/internal/errkind"
)

// Classify maps a transport error to an error-taxonomy [errkind.Kind].
//
// A nil error classifies as [errkind.None]. EAGAIN/EWOULDBLOCK never
// reach this function: callers filter those out as recoverable
// control-flow signals before classifying (spec §7 "recoverable
// conditions handled locally").
func Classify(err error) errkind.Kind {
	if err == nil {
		return errkind.None
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errkind.Transport
	}
	return classifyErrno(err)
}
