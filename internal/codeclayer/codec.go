// SPDX-License-Identifier: GPL-3.0-or-later

// Package codeclayer implements spec §4.4: the top-most pipeline layer,
// translating a request object into an encoded body on the way down and
// decoding a tabular response body into typed records on the way up.
//
// It has no suspension points (spec §5: "Codec layer: none — it is
// purely transformational on buffers it already owns"), so unlike the
// I/O and HTTP layers it carries no resumable coroutine cursor, only a
// line accumulator for body bytes that arrive split across reads.
package codeclayer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/nimbusdata/feedpipe/internal/codec"
	"github.com/nimbusdata/feedpipe/internal/errkind"
	"github.com/nimbusdata/feedpipe/internal/httplayer"
	"github.com/nimbusdata/feedpipe/internal/layer"
)

// Logger is the minimal structured-logging surface the codec layer needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// Result is the terminal payload the top layer stores once a response
// is fully decoded (spec §3 "Response").
type Result struct {
	StatusCode int
	Headers    map[string]string
	Records    []codec.Record
	ErrKind    errkind.Kind
	Err        error
}

// Config bundles the codec layer's dependencies.
type Config struct {
	StringValueMax int
	Logger         Logger
}

// CodecLayer is spec §4.4's codec layer: the chain's top-most layer.
type CodecLayer struct {
	cfg   Config
	chain *layer.Chain

	pending []byte
	records []codec.Record

	done    bool
	result  *Result
	lastErr errkind.Kind
}

var _ layer.Layer = (*CodecLayer)(nil)

// New returns a new, idle [*CodecLayer].
func New(cfg Config) *CodecLayer {
	return &CodecLayer{cfg: cfg}
}

// ID implements [layer.Layer].
func (c *CodecLayer) ID() layer.ID { return layer.IDCodec }

// SetChain wires the owning chain.
func (c *CodecLayer) SetChain(ch *layer.Chain) { c.chain = ch }

// LastErrKind returns the taxonomy kind of the most recent terminal
// error, or [errkind.None].
func (c *CodecLayer) LastErrKind() errkind.Kind { return c.lastErr }

// Result returns the decoded response once the layer has reached a
// terminal state, or nil if a request is still in flight.
func (c *CodecLayer) Result() *Result { return c.result }

// Reset prepares the layer for a new request on the same context.
func (c *CodecLayer) Reset() {
	c.pending = nil
	c.records = nil
	c.done = false
	c.result = nil
	c.lastErr = errkind.None
}

// OnDataReady implements the downward path: payload must be an
// [httplayer.Request]. The request is encoded into a body and forwarded,
// paired with the original request, to the HTTP layer below.
func (c *CodecLayer) OnDataReady(ctx context.Context, payload any) layer.State {
	req, ok := payload.(httplayer.Request)
	if !ok {
		c.fail(fmt.Errorf("codeclayer: unexpected payload %T", payload))
		return layer.StateError
	}
	body, err := httplayer.EncodeBody(req, c.cfg.StringValueMax)
	if err != nil {
		c.fail(err)
		return layer.StateError
	}
	return c.chain.CallOnNextDataReady(ctx, c, httplayer.OutgoingPayload{Req: req, Body: body})
}

// OnDataReceived implements the upward path. payload is either a
// *layer.Descriptor of newly-arrived body bytes (accumulated and
// decoded line-at-a-time) or an [httplayer.FinalPayload] signaling that
// the body is complete, at which point the terminal [Result] is built.
func (c *CodecLayer) OnDataReceived(ctx context.Context, payload any) layer.State {
	switch p := payload.(type) {
	case *layer.Descriptor:
		data := p.Remaining()
		p.Advance(len(data))
		c.pending = append(c.pending, data...)
		if err := c.consumeLines(false); err != nil {
			c.fail(err)
			return layer.StateError
		}
		return layer.StateOK

	case httplayer.FinalPayload:
		if err := c.consumeLines(true); err != nil {
			c.fail(err)
			return layer.StateError
		}
		c.done = true
		c.result = &Result{
			StatusCode: p.StatusCode,
			Headers:    p.Headers,
			Records:    c.records,
		}
		c.cfg.Logger.Debug("codecDecodeDone", slog.Int("records", len(c.records)))
		return layer.StateOK

	default:
		c.fail(fmt.Errorf("codeclayer: unexpected payload %T", payload))
		return layer.StateError
	}
}

// Close implements the downward close signal: a no-op acknowledgement.
func (c *CodecLayer) Close(ctx context.Context) layer.State {
	return layer.StateOK
}

// OnClose implements the upward close notification; terminal for the
// layer. The codec layer owns no socket or fd, so there is nothing
// further to release.
func (c *CodecLayer) OnClose(ctx context.Context) layer.State {
	return layer.StateOK
}

// consumeLines splits pending on '\n' boundaries, tolerating an
// optional preceding '\r', decoding each complete line as it becomes
// available. When flush is true, a final unterminated line (if any) is
// decoded too, for bodies with no trailing newline.
func (c *CodecLayer) consumeLines(flush bool) error {
	for {
		idx := bytes.IndexByte(c.pending, '\n')
		if idx < 0 {
			if flush && len(c.pending) > 0 {
				line := string(c.pending)
				c.pending = nil
				return c.decodeLine(line)
			}
			return nil
		}
		line := string(c.pending[:idx])
		c.pending = c.pending[idx+1:]
		if err := c.decodeLine(line); err != nil {
			return err
		}
	}
}

func (c *CodecLayer) decodeLine(line string) error {
	if len(line) == 0 {
		return nil
	}
	rec, err := codec.Decode(line, c.cfg.StringValueMax)
	if err != nil {
		return err
	}
	c.records = append(c.records, rec)
	return nil
}

func (c *CodecLayer) fail(err error) {
	c.lastErr = errkind.Protocol
	if err == codec.ErrValueBufferOverflow {
		c.lastErr = errkind.Encoding
	}
	c.cfg.Logger.Info("codecError", slog.Any("err", err))
}
