// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/src/libxively/io/posix_asynch/posix_asynch_io_layer.c
//

// Package iolayer implements spec §4.2: the bottom-most pipeline layer,
// owning the non-blocking socket and moving bytes between the kernel and
// the HTTP layer above it.
//
// The connect and write paths, which may suspend partway through, are
// explicit Go state enums with a step method, per the design notes'
// recommendation over a goroutine or Duff's-device coroutine. The read
// path keeps no cursor: each wake-up performs a fresh read.
package iolayer

import (
	"context"
	"log/slog"
	"net/netip"
	"time"

	"github.com/nimbusdata/feedpipe/internal/dispatcher"
	"github.com/nimbusdata/feedpipe/internal/errkind"
	"github.com/nimbusdata/feedpipe/internal/layer"
)

// scratchSize is the spontaneous-read buffer size (spec §4.2, §8: "a
// 32-byte dispatcher-spontaneous read buffer never overflows its
// bound; the last byte is always a zero guard").
const scratchSize = 32

// connectState is the resumable cursor for [*IOLayer.Connect].
type connectState int

const (
	csInit connectState = iota
	csResolving
	csDialing
	csAwaitWritable
	csDone
)

// writeState is the resumable cursor for [*IOLayer.OnDataReady].
type writeState int

const (
	wsIdle writeState = iota
	wsWriting
)

// Logger is the minimal structured-logging surface the I/O layer needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// ErrClassifier classifies transport errors for structured logging.
type ErrClassifier interface {
	Classify(err error) string
}

// Config bundles the I/O layer's dependencies.
type Config struct {
	Dispatcher    *dispatcher.Dispatcher
	Logger        Logger
	ErrClassifier ErrClassifier
	Resolver      Resolver
	TimeNow       func() time.Time
}

// IOLayer is spec §4.2's I/O layer: non-blocking socket lifecycle plus
// the write/read/close state machines.
type IOLayer struct {
	cfg    Config
	socket rawSocket

	connectCS  connectState
	resolved   netip.Addr
	target     Target
	onConnectDone func(layer.State)

	writeCS  writeState
	writeBuf *layer.Descriptor

	// chain is the owning chain, used to forward completed reads upward.
	chain *layer.Chain

	// lastErr is set whenever a terminal error occurs, for tests and for
	// the process-scoped last-error surface in the root package.
	lastErr errkind.Kind
}

var _ layer.Layer = (*IOLayer)(nil)

// New returns a new, unopened [*IOLayer].
func New(cfg Config) *IOLayer {
	if cfg.TimeNow == nil {
		cfg.TimeNow = time.Now
	}
	return &IOLayer{cfg: cfg, socket: newRawSocket()}
}

// ID implements [layer.Layer].
func (l *IOLayer) ID() layer.ID { return layer.IDIO }

// Reset prepares the layer for a new connection on a new request (spec
// §1 non-goal: no connection pooling or reuse across requests — every
// request gets its own socket). Must be called after OnClose has torn
// down the previous socket.
func (l *IOLayer) Reset() {
	l.socket = newRawSocket()
	l.connectCS = csInit
	l.writeCS = wsIdle
	l.writeBuf = nil
	l.lastErr = errkind.None
}

// LastErrKind returns the taxonomy kind of the most recent terminal
// error, or [errkind.None].
func (l *IOLayer) LastErrKind() errkind.Kind { return l.lastErr }

// FD returns the underlying socket file descriptor, or -1 if not open.
func (l *IOLayer) FD() int { return l.socket.FD() }

// Init creates the non-blocking socket (spec §4.2 "Init"). On failure it
// reports an Initialization error upward and cleans up partial state.
func (l *IOLayer) Init(ctx context.Context) layer.State {
	l.cfg.Logger.Debug("ioInit")
	if err := l.socket.Open(); err != nil {
		l.fail(errkind.Initialization, err)
		return layer.StateError
	}
	return layer.StateOK
}

// Connect resolves target and connects the socket (spec §4.2 "Connect").
// onDone is invoked exactly once with the terminal state, possibly after
// one or more dispatcher round-trips through EINPROGRESS.
func (l *IOLayer) Connect(ctx context.Context, target Target, onDone func(layer.State)) layer.State {
	l.target = target
	l.onConnectDone = onDone
	l.connectCS = csResolving
	return l.stepConnect(ctx)
}

func (l *IOLayer) stepConnect(ctx context.Context) layer.State {
	for {
		switch l.connectCS {
		case csResolving:
			addr, err := l.cfg.Resolver.Resolve(ctx, l.target.Host)
			if err != nil {
				l.fail(errkind.Resolution, err)
				return l.finishConnect(layer.StateError)
			}
			l.resolved = addr
			l.connectCS = csDialing

		case csDialing:
			t0 := l.cfg.TimeNow()
			l.cfg.Logger.Info("connectStart",
				slog.String("remoteAddr", l.resolved.String()), slog.Time("t", t0))

			// Register the fd before issuing connect, not only on the
			// EINPROGRESS branch: a synchronous connect success still needs
			// the fd in the dispatcher table so the write/read paths can
			// arm a continuation on it later (spec §4.2, §8 fd-registration
			// invariant). RegisterFD is idempotent.
			fd := l.socket.FD()
			if regErr := l.cfg.Dispatcher.RegisterFD(fd); regErr != nil {
				l.fail(errkind.Connection, regErr)
				return l.finishConnect(layer.StateError)
			}

			err := l.socket.Connect(l.resolved, l.target.Port)
			if err == nil {
				l.connectCS = csDone
				continue
			}
			if err == errInProgress {
				armErr := l.cfg.Dispatcher.ContinueWhenEvent(dispatcher.WantWrite, func(ctx context.Context) {
					l.connectCS = csAwaitWritable
					l.stepConnect(ctx)
				}, fd)
				if armErr != nil {
					l.fail(errkind.Connection, armErr)
					return l.finishConnect(layer.StateError)
				}
				return layer.StateWantWrite
			}
			l.fail(errkind.Connection, err)
			return l.finishConnect(layer.StateError)

		case csAwaitWritable:
			if err := l.socket.SOError(); err != nil {
				l.fail(errkind.Connection, err)
				return l.finishConnect(layer.StateError)
			}
			l.connectCS = csDone

		case csDone:
			l.cfg.Logger.Info("connectDone", slog.Time("t", l.cfg.TimeNow()))
			return l.finishConnect(layer.StateOK)

		default:
			return layer.StateError
		}
	}
}

func (l *IOLayer) finishConnect(st layer.State) layer.State {
	l.connectCS = csInit
	if l.onConnectDone != nil {
		done := l.onConnectDone
		l.onConnectDone = nil
		done(st)
	}
	return st
}

// OnDataReady implements the write path (spec §4.2 "Write path").
// payload must be a *layer.Descriptor of bytes to deliver to the socket,
// or nil for an empty write.
func (l *IOLayer) OnDataReady(ctx context.Context, payload any) layer.State {
	desc, _ := payload.(*layer.Descriptor)
	if l.writeCS == wsIdle {
		if desc == nil || desc.Empty() {
			return layer.StateOK
		}
		l.writeBuf = desc
		l.writeCS = wsWriting
	}
	return l.stepWrite(ctx)
}

func (l *IOLayer) stepWrite(ctx context.Context) layer.State {
	for {
		remaining := l.writeBuf.Remaining()
		if len(remaining) == 0 {
			l.writeCS = wsIdle
			return layer.StateOK
		}
		n, err := l.socket.Write(remaining)
		if n > 0 {
			l.cfg.Logger.Debug("write", slog.Int("n", n))
			l.writeBuf.Advance(n)
		}
		if err == errWouldBlock {
			return l.armWrite(ctx)
		}
		if err != nil {
			l.fail(errkind.Transport, err)
			l.writeCS = wsIdle
			return layer.StateError
		}
		if n < len(remaining) {
			// Short write: spec §8 "short write of 0 bytes is WANT_WRITE,
			// not ERROR" — loop back and retry immediately if n>0, else arm.
			if n == 0 {
				return l.armWrite(ctx)
			}
			continue
		}
	}
}

func (l *IOLayer) armWrite(ctx context.Context) layer.State {
	fd := l.socket.FD()
	err := l.cfg.Dispatcher.ContinueWhenEvent(dispatcher.WantWrite, func(ctx context.Context) {
		l.stepWrite(ctx)
	}, fd)
	if err != nil && err != dispatcher.ErrAlreadyArmed {
		l.fail(errkind.Transport, err)
		l.writeCS = wsIdle
		return layer.StateError
	}
	return layer.StateWantWrite
}

// OnDataReceived implements the read path (spec §4.2 "Read path").
// payload, if non-nil, is the caller's target *layer.Descriptor;
// otherwise a scratch [scratchSize]byte buffer is used, matching the
// dispatcher-spontaneous-read convention.
func (l *IOLayer) OnDataReceived(ctx context.Context, payload any) layer.State {
	desc, _ := payload.(*layer.Descriptor)
	if desc == nil {
		buf := make([]byte, scratchSize)
		desc = &layer.Descriptor{Bytes: buf, Len: 0, Cursor: 0}
	}

	capacity := len(desc.Bytes)
	for i := range desc.Bytes {
		desc.Bytes[i] = 0
	}
	if capacity == 0 {
		return layer.StateError
	}
	n, err := l.socket.Read(desc.Bytes[:capacity-1])
	if err == errWouldBlock {
		fd := l.socket.FD()
		armErr := l.cfg.Dispatcher.ContinueWhenEvent(dispatcher.WantRead, func(ctx context.Context) {
			l.OnDataReceived(ctx, payload)
		}, fd)
		if armErr != nil && armErr != dispatcher.ErrAlreadyArmed {
			l.fail(errkind.Transport, armErr)
			return layer.StateError
		}
		return layer.StateWantRead
	}
	if err != nil {
		l.fail(errkind.Transport, err)
		return layer.StateError
	}

	if n == 0 {
		// Peer closed the connection: the read-until-close framing in
		// the HTTP layer (spec §4.3 "BodyEof → Done on on_close") is
		// only finalized by an upward close notification.
		l.cfg.Logger.Debug("readEOF")
		return l.chain.CallOnNextOnClose(ctx, l)
	}

	desc.Bytes[n] = 0 // guard byte, per spec §4.2 and §8
	desc.Len = n
	desc.Cursor = 0

	l.cfg.Logger.Debug("read", slog.Int("n", n))
	st := l.chain.CallOnNextOnDataReceived(ctx, l, desc)
	if st == layer.StateWantRead {
		// The layer above needs more bytes: re-arm the read continuation
		// so the dispatcher wakes this path on the next readable event.
		armErr := l.cfg.Dispatcher.ContinueWhenEvent(dispatcher.WantRead, func(ctx context.Context) {
			l.OnDataReceived(ctx, payload)
		}, l.socket.FD())
		if armErr != nil && armErr != dispatcher.ErrAlreadyArmed {
			l.fail(errkind.Transport, armErr)
			return layer.StateError
		}
	}
	return st
}

// SetChain wires the owning chain so OnDataReceived can forward upward.
func (l *IOLayer) SetChain(c *layer.Chain) { l.chain = c }

// Close implements the downward close signal: a no-op acknowledgement
// (spec §4.2 "Close path").
func (l *IOLayer) Close(ctx context.Context) layer.State {
	return layer.StateOK
}

// OnClose performs shutdown+close and unregisters the fd, best-effort
// (spec §4.2: "any failure maps to a Shutdown/Close error while still
// unregistering and freeing").
func (l *IOLayer) OnClose(ctx context.Context) layer.State {
	fd := l.socket.FD()
	result := layer.StateOK

	if err := l.socket.Shutdown(); err != nil {
		l.fail(errkind.Shutdown, err)
		result = layer.StateError
	}
	if err := l.socket.Close(); err != nil {
		l.fail(errkind.Shutdown, err)
		result = layer.StateError
	}
	if fd >= 0 {
		_ = l.cfg.Dispatcher.UnregisterFD(fd)
	}
	return result
}

func (l *IOLayer) fail(kind errkind.Kind, err error) {
	l.lastErr = kind
	if err == nil {
		return
	}
	l.cfg.Logger.Info("ioError",
		slog.String("errKind", string(kind)),
		slog.Any("err", err),
		slog.String("errClass", l.cfg.ErrClassifier.Classify(err)),
	)
}
