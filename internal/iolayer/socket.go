// SPDX-License-Identifier: GPL-3.0-or-later

package iolayer

import "net/netip"

// rawSocket abstracts the non-blocking AF_INET socket operations the I/O
// layer needs. The real implementation ([unixSocket], in socket_unix.go)
// wraps golang.org/x/sys/unix; tests substitute [fakeSocket] to script
// short writes, EAGAIN, and EINPROGRESS sequences deterministically
// (spec §8's boundary scenarios).
type rawSocket interface {
	// Open creates a non-blocking AF_INET streaming socket.
	Open() error

	// Connect issues a non-blocking connect to addr:port. It returns
	// errInProgress when the connect has not completed synchronously.
	Connect(addr netip.Addr, port uint16) error

	// SOError returns the pending SO_ERROR value after a writable
	// readiness event following EINPROGRESS; nil means the connect
	// succeeded.
	SOError() error

	// Write attempts a single non-blocking write.
	Write(p []byte) (int, error)

	// Read attempts a single non-blocking read.
	Read(p []byte) (int, error)

	// Shutdown performs a bidirectional shutdown.
	Shutdown() error

	// Close releases the socket.
	Close() error

	// FD returns the underlying file descriptor, or -1 if not open.
	FD() int
}

// errInProgress marks a connect that has not completed synchronously and
// needs a writable-readiness re-arm (spec §4.2 EINPROGRESS handling).
var errInProgress = errInProgressError{}

type errInProgressError struct{}

func (errInProgressError) Error() string { return "iolayer: connect in progress" }

// errWouldBlock marks a read/write that would have blocked.
var errWouldBlock = errWouldBlockError{}

type errWouldBlockError struct{}

func (errWouldBlockError) Error() string { return "iolayer: operation would block" }
