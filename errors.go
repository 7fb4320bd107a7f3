// SPDX-License-Identifier: GPL-3.0-or-later

package feedpipe

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/nimbusdata/feedpipe/internal/codec"
	"github.com/nimbusdata/feedpipe/internal/errkind"
)

// ErrValueBufferOverflow is returned by [NewStringValue] and by response
// decoding when a string value exceeds the configured bound (spec §8
// boundary behavior #4, the DATAPOINT_VALUE_BUFFER_OVERFLOW equivalent).
var ErrValueBufferOverflow = codec.ErrValueBufferOverflow

// ErrMalformedRecord is returned by response decoding when a tabular
// line cannot be split into exactly three fields.
var ErrMalformedRecord = codec.ErrMalformedRecord

// ErrUnsupportedProtocol is returned by [CreateContext] for any
// [Protocol] value other than [ProtocolHTTP].
var ErrUnsupportedProtocol = errors.New("feedpipe: unsupported protocol")

// Error is the error type every failing top-level operation returns: an
// error-taxonomy kind (spec §7) plus the underlying cause, if any.
type Error struct {
	Kind errkind.Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("feedpipe: %s error", e.Kind)
	}
	return fmt.Sprintf("feedpipe: %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// lastError is the process-scoped last-error surface (spec §7:
// "each error kind sets a process-scoped last-error code for caller
// inspection"). Readers and writers use [atomic.Value] rather than the
// plain global spec §5 describes, since Go contexts may run on
// different goroutines even though each one is internally
// single-threaded.
var lastError atomic.Value

func setLastError(err *Error) {
	lastError.Store(err)
}

// LastError returns the most recently recorded [*Error] across every
// [Context] in this process, or nil if none has occurred yet.
func LastError() *Error {
	v, _ := lastError.Load().(*Error)
	return v
}

func newError(kind errkind.Kind, err error) *Error {
	e := &Error{Kind: kind, Err: err}
	setLastError(e)
	return e
}
