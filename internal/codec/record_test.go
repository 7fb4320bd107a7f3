// SPDX-License-Identifier: GPL-3.0-or-later

package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntValue(t *testing.T) {
	v := NewIntValue(42)
	assert.Equal(t, KindInt, v.Kind)
	assert.Equal(t, int64(42), v.Int)
}

func TestNewFloatValue(t *testing.T) {
	v := NewFloatValue(3.5)
	assert.Equal(t, KindFloat, v.Kind)
	assert.Equal(t, 3.5, v.Float)
}

func TestNewStringValue(t *testing.T) {
	v, err := NewStringValue("hello", 10)
	require.NoError(t, err)
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "hello", v.Str)

	_, err = NewStringValue("toolongvalue", 5)
	assert.ErrorIs(t, err, ErrValueBufferOverflow)

	// max <= 0 disables the bound
	v, err = NewStringValue("unbounded-string", 0)
	require.NoError(t, err)
	assert.Equal(t, "unbounded-string", v.Str)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	cases := []Record{
		{DatastreamID: "temp", Timestamp: ts, Value: NewIntValue(21)},
		{DatastreamID: "temp", Timestamp: ts, Value: NewFloatValue(21.5)},
		{DatastreamID: "temp", Timestamp: ts, Value: mustString(t, "ok", 0)},
	}
	for _, rec := range cases {
		line, err := Encode(rec, 0)
		require.NoError(t, err)

		decoded, err := Decode(line, 0)
		require.NoError(t, err)
		assert.Equal(t, rec.DatastreamID, decoded.DatastreamID)
		assert.True(t, rec.Timestamp.Equal(decoded.Timestamp))
		assert.Equal(t, rec.Value.Kind, decoded.Value.Kind)
	}
}

func TestEncodeFloatAlwaysHasFractionalDigit(t *testing.T) {
	line, err := Encode(Record{DatastreamID: "x", Value: NewFloatValue(5)}, 0)
	require.NoError(t, err)
	assert.Contains(t, line, "5.0")
}

func TestEncodeQuotesDelimiterAndQuote(t *testing.T) {
	line, err := Encode(Record{
		DatastreamID: "x",
		Value:        mustString(t, `a,b"c`, 0),
	}, 0)
	require.NoError(t, err)
	assert.Contains(t, line, `"a,b""c"`)
}

func TestEncodeStringOverflow(t *testing.T) {
	_, err := Encode(Record{DatastreamID: "x", Value: mustString(t, "abcdef", 0)}, 3)
	assert.ErrorIs(t, err, ErrValueBufferOverflow)
}

func TestDecodeTrimsLineEndings(t *testing.T) {
	rec, err := Decode("temp,2026-03-01T12:30:00.000000Z,21\r\n", 0)
	require.NoError(t, err)
	assert.Equal(t, "temp", rec.DatastreamID)
	assert.Equal(t, KindInt, rec.Value.Kind)
	assert.Equal(t, int64(21), rec.Value.Int)
}

func TestDecodeMalformedRecord(t *testing.T) {
	_, err := Decode("onlyonefield", 0)
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = Decode("a,b", 0)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestDecodeQuotedStringOverflow(t *testing.T) {
	_, err := Decode(`x,2026-03-01T12:30:00.000000Z,"abcdef"`, 3)
	assert.ErrorIs(t, err, ErrValueBufferOverflow)
}

func TestDecodeInfersNumericKind(t *testing.T) {
	rec, err := Decode("x,2026-03-01T12:30:00.000000Z,3.5", 0)
	require.NoError(t, err)
	assert.Equal(t, KindFloat, rec.Value.Kind)
	assert.Equal(t, 3.5, rec.Value.Float)

	rec, err = Decode("x,2026-03-01T12:30:00.000000Z,hello", 0)
	require.NoError(t, err)
	assert.Equal(t, KindString, rec.Value.Kind)
	assert.Equal(t, "hello", rec.Value.Str)
}

func mustString(t *testing.T, s string, max int) Value {
	t.Helper()
	v, err := NewStringValue(s, max)
	require.NoError(t, err)
	return v
}
