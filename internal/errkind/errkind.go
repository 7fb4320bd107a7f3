// SPDX-License-Identifier: GPL-3.0-or-later

// Package errkind defines the error taxonomy shared across the pipeline
// layers and the structured-logging error classifier. It is a leaf
// package (no dependencies) so both the public errors and the
// internal/errclass classifier can depend on it without cycles.
package errkind

// Kind is one category from the error taxonomy in the design notes
// (spec §7): Initialization, Resolution, Connection, Transport,
// Protocol, Encoding, Shutdown.
type Kind string

const (
	// Initialization covers socket create/fcntl failures, allocator
	// failures (not applicable to Go, retained for taxonomy parity),
	// and bad configuration.
	Initialization Kind = "initialization"

	// Resolution covers hostname lookup failure.
	Resolution Kind = "resolution"

	// Connection covers connect rejected, timed out, or unreachable.
	Connection Kind = "connection"

	// Transport covers fatal read/write errno after filtering
	// EAGAIN/EWOULDBLOCK.
	Transport Kind = "transport"

	// Protocol covers HTTP status-line/header/body parse errors and
	// truncated responses.
	Protocol Kind = "protocol"

	// Encoding covers values too large for a bounded string store.
	Encoding Kind = "encoding"

	// Shutdown covers shutdown/close errno.
	Shutdown Kind = "shutdown"

	// None means no error occurred.
	None Kind = ""
)
