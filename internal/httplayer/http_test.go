// SPDX-License-Identifier: GPL-3.0-or-later

package httplayer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/feedpipe/internal/errkind"
	"github.com/nimbusdata/feedpipe/internal/layer"
)

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}

// belowLayer stands in for the I/O layer: captures every downward write.
type belowLayer struct {
	writes [][]byte
}

func (b *belowLayer) ID() layer.ID { return layer.IDIO }
func (b *belowLayer) OnDataReady(ctx context.Context, payload any) layer.State {
	desc := payload.(*layer.Descriptor)
	b.writes = append(b.writes, append([]byte(nil), desc.Bytes[:desc.Len]...))
	return layer.StateOK
}
func (b *belowLayer) OnDataReceived(ctx context.Context, payload any) layer.State {
	return layer.StateOK
}
func (b *belowLayer) Close(ctx context.Context) layer.State   { return layer.StateOK }
func (b *belowLayer) OnClose(ctx context.Context) layer.State { return layer.StateOK }

// aboveLayer stands in for the codec layer: captures every upward delivery.
type aboveLayer struct {
	chunks   [][]byte
	finals   []FinalPayload
	failNext bool
}

func (a *aboveLayer) ID() layer.ID { return layer.IDCodec }
func (a *aboveLayer) OnDataReady(ctx context.Context, payload any) layer.State {
	return layer.StateOK
}
func (a *aboveLayer) OnDataReceived(ctx context.Context, payload any) layer.State {
	if a.failNext {
		return layer.StateError
	}
	switch v := payload.(type) {
	case *layer.Descriptor:
		a.chunks = append(a.chunks, append([]byte(nil), v.Bytes[:v.Len]...))
	case FinalPayload:
		a.finals = append(a.finals, v)
	}
	return layer.StateOK
}
func (a *aboveLayer) Close(ctx context.Context) layer.State   { return layer.StateOK }
func (a *aboveLayer) OnClose(ctx context.Context) layer.State { return layer.StateOK }

func newTestHTTPLayer(t *testing.T) (*HTTPLayer, *belowLayer, *aboveLayer) {
	t.Helper()
	h := New(Config{
		Host:           "api.feedservice.example.com",
		APIKey:         "key123",
		UserAgent:      "feedpipe/test",
		StringValueMax: 256,
		Logger:         noopLogger{},
		TimeNow:        time.Now,
	})
	below := &belowLayer{}
	above := &aboveLayer{}
	chain := layer.NewChain(below, h, above)
	h.SetChain(chain)
	return h, below, above
}

func TestHTTPLayerOnDataReadyFormatsRequest(t *testing.T) {
	h, below, _ := newTestHTTPLayer(t)
	st := h.OnDataReady(context.Background(), OutgoingPayload{
		Req:  Request{Op: OpFeedGet, FeedID: "f1"},
		Body: nil,
	})
	assert.Equal(t, layer.StateOK, st)
	require.Len(t, below.writes, 1)
	out := string(below.writes[0])
	assert.Contains(t, out, "GET /v2/feeds/f1 HTTP/1.1\r\n")
	assert.Contains(t, out, "Host: api.feedservice.example.com\r\n")
	assert.Contains(t, out, "X-ApiKey: key123\r\n")
	assert.Contains(t, out, "Content-Length: 0\r\n")
}

func TestHTTPLayerOnDataReadyWrongPayload(t *testing.T) {
	h, _, _ := newTestHTTPLayer(t)
	st := h.OnDataReady(context.Background(), "not a payload")
	assert.Equal(t, layer.StateError, st)
	assert.Equal(t, errkind.Protocol, h.LastErrKind())
}

func TestHTTPLayerOnDataReceivedFramedResponse(t *testing.T) {
	h, _, above := newTestHTTPLayer(t)
	resp := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
	st := h.OnDataReceived(context.Background(), layer.NewDescriptor([]byte(resp)))
	assert.Equal(t, layer.StateOK, st)
	require.Len(t, above.chunks, 1)
	assert.Equal(t, "hello", string(above.chunks[0]))
	require.Len(t, above.finals, 1)
	assert.Equal(t, 200, above.finals[0].StatusCode)
}

func TestHTTPLayerOnDataReceivedWantsMoreData(t *testing.T) {
	h, _, above := newTestHTTPLayer(t)
	st := h.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("HTTP/1.1 200 OK\r\n")))
	assert.Equal(t, layer.StateWantRead, st)
	assert.Empty(t, above.finals)
}

func TestHTTPLayerOnDataReceivedParseError(t *testing.T) {
	h, _, _ := newTestHTTPLayer(t)
	st := h.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("garbage\r\n")))
	assert.Equal(t, layer.StateError, st)
	assert.Equal(t, errkind.Protocol, h.LastErrKind())
}

func TestHTTPLayerNotifyPeerClosedFinalizesBodyEOF(t *testing.T) {
	h, _, above := newTestHTTPLayer(t)
	st := h.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("HTTP/1.1 200 OK\r\n\r\nhello")))
	// Unframed (BodyEOF) response: not done until the peer closes.
	assert.Equal(t, layer.StateWantRead, st)

	st = h.NotifyPeerClosed(context.Background())
	assert.Equal(t, layer.StateOK, st)
	require.Len(t, above.finals, 1)
	assert.Equal(t, 200, above.finals[0].StatusCode)
}

func TestHTTPLayerOnCloseFinalizesPendingBodyEOF(t *testing.T) {
	h, _, above := newTestHTTPLayer(t)
	h.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("HTTP/1.1 200 OK\r\n\r\nhello")))

	st := h.OnClose(context.Background())
	assert.Equal(t, layer.StateOK, st)
	require.Len(t, above.finals, 1)
}

func TestHTTPLayerOnCloseNoopWhenAlreadyDone(t *testing.T) {
	h, _, _ := newTestHTTPLayer(t)
	h.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")))
	st := h.OnClose(context.Background())
	assert.Equal(t, layer.StateOK, st)
}

func TestHTTPLayerCloseIsNoop(t *testing.T) {
	h, _, _ := newTestHTTPLayer(t)
	assert.Equal(t, layer.StateOK, h.Close(context.Background()))
}

func TestHTTPLayerReset(t *testing.T) {
	h, _, _ := newTestHTTPLayer(t)
	h.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("garbage\r\n")))
	require.Equal(t, errkind.Protocol, h.LastErrKind())

	h.Reset()
	assert.Equal(t, errkind.None, h.LastErrKind())
	assert.False(t, h.parser.Done())
}

func TestHTTPLayerFinishPropagatesCodecError(t *testing.T) {
	h, _, above := newTestHTTPLayer(t)
	above.failNext = true
	st := h.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")))
	assert.Equal(t, layer.StateError, st)
	assert.Equal(t, errkind.Protocol, h.LastErrKind())
}
