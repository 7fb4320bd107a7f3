// SPDX-License-Identifier: GPL-3.0-or-later

package feedpipe

import (
	"net"
	"time"
)

// Config holds common configuration for a [Context] and the DNS
// pipelines built on top of [Dialer]/[Func] (see doc.go).
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// Dialer is used by [*ConnectFunc] (only exercised by the
	// DNS-over-UDP resolver pipeline; the data-channel I/O layer owns
	// its own raw non-blocking socket and never goes through a Dialer).
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// Resolver resolves the data-channel hostname to an address (spec
	// §4.2 "Connect"). Set by [NewConfig] to a [*net.Resolver]-backed
	// synchronous resolver; see [NewDNSOverUDPResolver] for an
	// alternative strategy.
	Resolver Resolver

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time

	// NetworkTimeout bounds how long the dispatcher waits on any one
	// registered fd before cancelling its pending continuation (spec
	// §5 "Cancellation and timeouts", §9 open question: the timeout is
	// dispatcher-enforced).
	//
	// Set by [NewConfig] to 30 seconds.
	NetworkTimeout time.Duration

	// StringValueMax bounds a string-typed [Datapoint] value (the
	// XI_VALUE_STRING_MAX_SIZE equivalent, spec §4.8).
	//
	// Set by [NewConfig] to 256.
	StringValueMax int

	// Host is the data-channel endpoint's hostname or literal address
	// (spec §1: "configuration of the target endpoint" is an external
	// collaborator whose interface is specified where it touches the
	// core — the I/O layer's Connect step).
	//
	// Set by [NewConfig] to the service's default host.
	Host string

	// Port is the data-channel endpoint's numeric TCP port.
	//
	// Set by [NewConfig] to 80 (plain HTTP/1.1; TLS is a non-goal).
	Port uint16

	// UserAgent is sent as the User-Agent header on every request.
	UserAgent string

	// Logger is the [SLogger] every layer and the dispatcher log through.
	//
	// Set by [NewConfig] to [DefaultSLogger] (discards everything).
	Logger SLogger
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:         &net.Dialer{},
		Resolver:       DefaultResolver(),
		ErrClassifier:  DefaultErrClassifier,
		TimeNow:        time.Now,
		NetworkTimeout: 30 * time.Second,
		StringValueMax: 256,
		Host:           "api.feedservice.example.com",
		Port:           80,
		UserAgent:      "feedpipe/1.0",
		Logger:         DefaultSLogger(),
	}
}

// logger returns cfg.Logger, falling back to [DefaultSLogger] if the
// caller built a zero-value Config by hand instead of via [NewConfig].
func (cfg *Config) logger() SLogger {
	if cfg.Logger == nil {
		return DefaultSLogger()
	}
	return cfg.Logger
}
