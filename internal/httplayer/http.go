// SPDX-License-Identifier: GPL-3.0-or-later
//
// Logging shape adapted from: _examples/bassosimone-nop/httpconn.go,
// _examples/bassosimone-nop/httpbody.go
//

package httplayer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nimbusdata/feedpipe/internal/errkind"
	"github.com/nimbusdata/feedpipe/internal/layer"
)

// Logger is the minimal structured-logging surface the HTTP layer needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// FinalPayload is forwarded upward once the response body is fully
// delivered (Content-Length exhausted, or peer close for a
// read-until-close body), telling the codec layer to flush any
// unterminated trailing line and finalize its result.
type FinalPayload struct {
	StatusCode int
	Headers    map[string]string
}

// Config bundles the HTTP layer's dependencies.
type Config struct {
	Host           string
	APIKey         string
	UserAgent      string
	StringValueMax int
	Logger         Logger
	TimeNow        func() time.Time
}

// HTTPLayer is spec §4.3's HTTP layer: outgoing request formatter and
// incoming resumable response parser.
type HTTPLayer struct {
	cfg    Config
	chain  *layer.Chain
	parser *ResponseParser

	t0      time.Time
	method  string
	url     string

	lastErr errkind.Kind
}

var _ layer.Layer = (*HTTPLayer)(nil)

// New returns a new, idle [*HTTPLayer].
func New(cfg Config) *HTTPLayer {
	if cfg.TimeNow == nil {
		cfg.TimeNow = time.Now
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "feedpipe/1"
	}
	return &HTTPLayer{cfg: cfg, parser: NewResponseParser()}
}

// ID implements [layer.Layer].
func (h *HTTPLayer) ID() layer.ID { return layer.IDHTTP }

// SetChain wires the owning chain.
func (h *HTTPLayer) SetChain(c *layer.Chain) { h.chain = c }

// LastErrKind returns the taxonomy kind of the most recent terminal
// error, or [errkind.None].
func (h *HTTPLayer) LastErrKind() errkind.Kind { return h.lastErr }

// Reset prepares the layer for a new request on the same context (spec
// §8 invariant: "context usable for a new call" after a terminal error).
func (h *HTTPLayer) Reset() {
	h.parser = NewResponseParser()
	h.lastErr = errkind.None
}

// OnDataReady implements the outgoing path (spec §4.3 "Outgoing").
// payload must be an [OutgoingPayload] built by the codec layer.
func (h *HTTPLayer) OnDataReady(ctx context.Context, payload any) layer.State {
	out, ok := payload.(OutgoingPayload)
	if !ok {
		h.fail(errkind.Protocol, fmt.Errorf("httplayer: unexpected payload %T", payload))
		return layer.StateError
	}

	method, path := requestLine(out.Req)
	h.method, h.url = method, path
	h.t0 = h.cfg.TimeNow()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", method, path)
	fmt.Fprintf(&b, "Host: %s\r\n", h.cfg.Host)
	fmt.Fprintf(&b, "User-Agent: %s\r\n", h.cfg.UserAgent)
	fmt.Fprintf(&b, "X-ApiKey: %s\r\n", h.cfg.APIKey)
	fmt.Fprintf(&b, "Content-Type: text/csv\r\n")
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(out.Body))
	b.WriteString("\r\n")
	b.Write(out.Body)

	h.cfg.Logger.Info("httpRoundTripStart",
		slog.String("httpMethod", method), slog.String("httpUrl", path), slog.Time("t0", h.t0))

	bytes := []byte(b.String())
	return h.chain.CallOnNextDataReady(ctx, h, layer.NewDescriptor(bytes))
}

// OnDataReceived implements the incoming path (spec §4.3 "Incoming").
// payload must be a *layer.Descriptor of newly-read bytes from the I/O
// layer.
func (h *HTTPLayer) OnDataReceived(ctx context.Context, payload any) layer.State {
	desc, _ := payload.(*layer.Descriptor)
	var data []byte
	if desc != nil {
		data = desc.Remaining()
		desc.Advance(len(data))
	}

	chunk, done := h.parser.Feed(data)
	if h.parser.Errored() {
		h.fail(errkind.Protocol, h.parser.Err)
		return layer.StateError
	}

	if len(chunk) > 0 {
		st := h.chain.CallOnNextOnDataReceived(ctx, h, layer.NewDescriptor(chunk))
		if st == layer.StateError {
			h.fail(errkind.Protocol, fmt.Errorf("httplayer: codec layer rejected body chunk"))
			return layer.StateError
		}
	}

	if done {
		return h.finish(ctx)
	}
	return layer.StateWantRead
}

// NotifyPeerClosed tells a read-until-close response that no more bytes
// are coming (spec §4.3 table: "BodyEof → Done on on_close").
func (h *HTTPLayer) NotifyPeerClosed(ctx context.Context) layer.State {
	h.parser.CloseBody()
	if h.parser.Done() {
		return h.finish(ctx)
	}
	return layer.StateWantRead
}

func (h *HTTPLayer) finish(ctx context.Context) layer.State {
	h.cfg.Logger.Info("httpRoundTripDone",
		slog.String("httpMethod", h.method), slog.String("httpUrl", h.url),
		slog.Int("httpResponseStatusCode", h.parser.StatusCode), slog.Time("t", h.cfg.TimeNow()))

	headers := make(map[string]string, len(h.parser.Headers))
	for k, v := range h.parser.Headers {
		headers[k] = v
	}
	st := h.chain.CallOnNextOnDataReceived(ctx, h, FinalPayload{
		StatusCode: h.parser.StatusCode,
		Headers:    headers,
	})
	if st == layer.StateError {
		h.fail(errkind.Protocol, fmt.Errorf("httplayer: codec layer rejected final flush"))
		return layer.StateError
	}
	return layer.StateOK
}

// Close implements the downward close signal: a no-op acknowledgement.
func (h *HTTPLayer) Close(ctx context.Context) layer.State {
	return layer.StateOK
}

// OnClose implements the upward close notification. If a read-until-close
// response was still in flight, it is finalized here.
func (h *HTTPLayer) OnClose(ctx context.Context) layer.State {
	if !h.parser.Done() {
		return h.NotifyPeerClosed(ctx)
	}
	return layer.StateOK
}

func (h *HTTPLayer) fail(kind errkind.Kind, err error) {
	h.lastErr = kind
	h.cfg.Logger.Info("httpError", slog.String("errKind", string(kind)), slog.Any("err", err))
}
