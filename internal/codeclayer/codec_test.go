// SPDX-License-Identifier: GPL-3.0-or-later

package codeclayer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/feedpipe/internal/errkind"
	"github.com/nimbusdata/feedpipe/internal/httplayer"
	"github.com/nimbusdata/feedpipe/internal/layer"
)

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}

// belowLayer stands in for the HTTP layer below the codec layer.
type belowLayer struct {
	sent []any
}

func (b *belowLayer) ID() layer.ID { return layer.IDHTTP }
func (b *belowLayer) OnDataReady(ctx context.Context, payload any) layer.State {
	b.sent = append(b.sent, payload)
	return layer.StateOK
}
func (b *belowLayer) OnDataReceived(ctx context.Context, payload any) layer.State {
	return layer.StateOK
}
func (b *belowLayer) Close(ctx context.Context) layer.State   { return layer.StateOK }
func (b *belowLayer) OnClose(ctx context.Context) layer.State { return layer.StateOK }

func newTestCodecLayer(t *testing.T) (*CodecLayer, *belowLayer) {
	t.Helper()
	c := New(Config{StringValueMax: 256, Logger: noopLogger{}})
	below := &belowLayer{}
	chain := layer.NewChain(below, c)
	c.SetChain(chain)
	return c, below
}

func TestCodecLayerOnDataReadyEncodesRequest(t *testing.T) {
	c, below := newTestCodecLayer(t)
	st := c.OnDataReady(context.Background(), httplayer.Request{Op: httplayer.OpFeedGet, FeedID: "f1"})
	assert.Equal(t, layer.StateOK, st)
	require.Len(t, below.sent, 1)
	out := below.sent[0].(httplayer.OutgoingPayload)
	assert.Equal(t, httplayer.OpFeedGet, out.Req.Op)
	assert.Nil(t, out.Body)
}

func TestCodecLayerOnDataReadyWrongPayload(t *testing.T) {
	c, _ := newTestCodecLayer(t)
	st := c.OnDataReady(context.Background(), 42)
	assert.Equal(t, layer.StateError, st)
	assert.Equal(t, errkind.Protocol, c.LastErrKind())
}

func TestCodecLayerDecodesBodyAcrossChunksAndFinalizes(t *testing.T) {
	c, _ := newTestCodecLayer(t)

	st := c.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("temp,2026-01-01T00:00:00.000000Z,2")))
	assert.Equal(t, layer.StateOK, st)
	assert.Nil(t, c.Result())

	st = c.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("1\n")))
	assert.Equal(t, layer.StateOK, st)

	st = c.OnDataReceived(context.Background(), httplayer.FinalPayload{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "text/csv"},
	})
	assert.Equal(t, layer.StateOK, st)

	result := c.Result()
	require.NotNil(t, result)
	assert.Equal(t, 200, result.StatusCode)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "temp", result.Records[0].DatastreamID)
	assert.Equal(t, int64(21), result.Records[0].Value.Int)
}

func TestCodecLayerFlushesUnterminatedLineOnFinal(t *testing.T) {
	c, _ := newTestCodecLayer(t)
	c.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("temp,2026-01-01T00:00:00.000000Z,5")))
	st := c.OnDataReceived(context.Background(), httplayer.FinalPayload{StatusCode: 200})
	assert.Equal(t, layer.StateOK, st)
	require.Len(t, c.Result().Records, 1)
	assert.Equal(t, int64(5), c.Result().Records[0].Value.Int)
}

func TestCodecLayerMalformedLineFails(t *testing.T) {
	c, _ := newTestCodecLayer(t)
	st := c.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("not,enough\n")))
	assert.Equal(t, layer.StateError, st)
	assert.Equal(t, errkind.Protocol, c.LastErrKind())
}

func TestCodecLayerValueOverflowSetsEncodingKind(t *testing.T) {
	c := New(Config{StringValueMax: 2, Logger: noopLogger{}})
	below := &belowLayer{}
	c.SetChain(layer.NewChain(below, c))

	st := c.OnDataReceived(context.Background(), layer.NewDescriptor([]byte(`x,2026-01-01T00:00:00.000000Z,"abcdef"` + "\n")))
	assert.Equal(t, layer.StateError, st)
	assert.Equal(t, errkind.Encoding, c.LastErrKind())
}

func TestCodecLayerOnDataReceivedWrongPayload(t *testing.T) {
	c, _ := newTestCodecLayer(t)
	st := c.OnDataReceived(context.Background(), 42)
	assert.Equal(t, layer.StateError, st)
	assert.Equal(t, errkind.Protocol, c.LastErrKind())
}

func TestCodecLayerCloseAndOnCloseAreNoops(t *testing.T) {
	c, _ := newTestCodecLayer(t)
	assert.Equal(t, layer.StateOK, c.Close(context.Background()))
	assert.Equal(t, layer.StateOK, c.OnClose(context.Background()))
}

func TestCodecLayerReset(t *testing.T) {
	c, _ := newTestCodecLayer(t)
	c.OnDataReceived(context.Background(), layer.NewDescriptor([]byte("bad\n")))
	require.Equal(t, errkind.Protocol, c.LastErrKind())

	c.Reset()
	assert.Equal(t, errkind.None, c.LastErrKind())
	assert.Nil(t, c.Result())
}
