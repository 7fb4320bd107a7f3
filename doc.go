// SPDX-License-Identifier: GPL-3.0-or-later

// Package feedpipe implements a client for a time-series/feed IoT
// service built around a layered, non-blocking pipeline runtime.
//
// # Core Abstraction
//
// A [Context] owns a chain of exactly three stacked layers, bottom to
// top: the I/O layer ([internal/iolayer]), the HTTP layer
// ([internal/httplayer]), and the codec layer ([internal/codeclayer]).
// Data flows downward from codec to HTTP to I/O on the way out, and
// upward from I/O to HTTP to codec on the way back. Every layer
// implements the same four-entry-point contract
// ([internal/layer.Layer]) and returns one of four states (OK,
// WANT_READ, WANT_WRITE, ERROR); a single dispatcher re-arms
// whichever layer is waiting when its file descriptor becomes ready.
//
// # Top-level operations
//
//	ctx, err := feedpipe.CreateContext(cfg, feedpipe.ProtocolHTTP, apiKey, feedID)
//	resp, err := ctx.FeedGet(reqCtx)
//	resp, err := ctx.FeedUpdate(reqCtx, datapoints)
//	resp, dp, err := ctx.DatastreamGet(reqCtx, "temp")
//	err := ctx.Close()
//
// Each call drives the context's dispatcher to completion synchronously;
// there is no pipelining of multiple in-flight requests on one context
// (see Non-goals below).
//
// # Composable network primitives
//
// Beneath the pipeline, a smaller, independently useful layer of
// composable primitives powers pluggable hostname resolution (see
// [Resolver], [DefaultResolver], [NewDNSOverUDPResolver]):
//
//   - [Func][A, B]: an atomic operation with one success and one failure mode.
//   - [Compose2] through [Compose8]: chain Funcs into typed pipelines.
//   - [ConnectFunc]: dials TCP or UDP endpoints.
//   - [ObserveConnFunc]: observes connections for logging I/O operations.
//   - [CancelWatchFunc]: closes a connection on context cancellation.
//   - [DNSOverUDPConn]: a DNS-over-UDP exchange over an owned connection.
//
// # Observability
//
// All primitives support structured logging via [SLogger] (compatible
// with [log/slog]). By default, logging is disabled; set a custom
// [*slog.Logger] to enable it. Error classification is configurable via
// [ErrClassifier]; [DefaultErrClassifier] classifies errno values into
// the error taxonomy described in the package's error-handling design.
//
// Primitives emit paired Start/Done span events (connectStart/
// connectDone, httpRoundTripStart/httpRoundTripDone, dnsExchangeStart/
// dnsExchangeDone) at [slog.LevelInfo], and per-I/O events (read, write)
// at [slog.LevelDebug]. Use [NewSpanID] to mint a UUIDv7 per request and
// attach it to the logger with [*slog.Logger.With] so every event for
// one request correlates.
//
// # Timeout and Context Philosophy
//
// The network primitives are context-transparent: operations never
// modify the context they receive. [CancelWatchFunc] binds the context's
// lifecycle to the underlying connection so a cancelled or expired
// context interrupts blocking I/O promptly.
//
// The pipeline itself uses a single configurable network timeout
// ([Config.NetworkTimeout]), enforced by the dispatcher: a fd whose
// pending continuation has waited longer than the timeout is cancelled
// and delivered ERROR upward.
//
// # Non-goals
//
// TLS on the data channel, connection pooling or reuse across requests,
// pipelined or concurrent in-flight requests on one context, automatic
// retry or backoff, and cancellation of an in-flight request from
// outside the event loop are all out of scope.
package feedpipe
