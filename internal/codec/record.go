// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/src/libxively/xively.c (datapoint value accessors)
//

// Package codec implements spec §4.4: the tabular (CSV-like) record
// format exchanged in HTTP request/response bodies.
//
// Encoding and decoding are purely transformational over buffers the
// caller already owns — spec §5 notes this layer has no suspension
// points, so unlike iolayer and httplayer there is no resumable state
// machine here.
package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the active arm of a [Value].
type ValueKind int

const (
	// KindInt marks an integer value.
	KindInt ValueKind = iota

	// KindFloat marks a floating-point value.
	KindFloat

	// KindString marks a bounded UTF-8 string value.
	KindString
)

// Value is a tagged union: integer, float, or bounded string (spec §3
// "Datapoint"). The zero Value is KindInt with value 0.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
}

// NewIntValue returns an integer-tagged [Value].
func NewIntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }

// NewFloatValue returns a float-tagged [Value].
func NewFloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// NewStringValue returns a string-tagged [Value] if len(s) is less than
// max bytes, else reports overflow (spec §4.4, §8 boundary behavior #4:
// "DATAPOINT_VALUE_BUFFER_OVERFLOW").
func NewStringValue(s string, max int) (Value, error) {
	if max > 0 && len(s) >= max {
		return Value{}, ErrValueBufferOverflow
	}
	return Value{Kind: KindString, Str: s}, nil
}

// Record is one decoded or to-be-encoded tabular row: datastream id,
// timestamp, and tagged value (spec §4.4).
type Record struct {
	DatastreamID string
	Timestamp    time.Time
	Value        Value
}

// Encode renders one record as "datastream_id,timestamp,value", without
// a line terminator (spec §4.4 "Encoding"). The value is formatted per its tag: integers without
// a fractional part, floats with at least one fractional digit, strings
// quoted and escaped if they contain the delimiter or a quote.
func Encode(r Record, maxStringLen int) (string, error) {
	var valueStr string
	switch r.Value.Kind {
	case KindInt:
		valueStr = strconv.FormatInt(r.Value.Int, 10)
	case KindFloat:
		valueStr = formatFloat(r.Value.Float)
	case KindString:
		if maxStringLen > 0 && len(r.Value.Str) >= maxStringLen {
			return "", ErrValueBufferOverflow
		}
		valueStr = quoteField(r.Value.Str)
	default:
		return "", fmt.Errorf("codec: unknown value kind %d", r.Value.Kind)
	}

	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return fmt.Sprintf("%s,%s,%s", r.DatastreamID, FormatTimestamp(ts), valueStr), nil
}

// formatFloat ensures at least one fractional digit, per spec §4.4.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// quoteField quotes s if it contains the delimiter or a quote,
// doubling embedded quotes, per spec §4.4.
func quoteField(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Decode parses one tabular line into a [Record] (spec §4.4 "Decoding").
// It tolerates a trailing CR, LF, or CRLF and accepts a quoted,
// escaped third field. The numeric-vs-string tag is inferred: a field
// parseable as an integer becomes KindInt, one parseable as a float
// becomes KindFloat, anything else (or anything explicitly quoted)
// becomes KindString.
func Decode(line string, maxStringLen int) (Record, error) {
	line = splitLine(line)
	fields, err := splitFields(line)
	if err != nil {
		return Record{}, err
	}
	if len(fields) != 3 {
		return Record{}, ErrMalformedRecord
	}

	ts, err := ParseTimestamp(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("codec: bad timestamp: %w", err)
	}

	val, _, err := parseValueField(fields[2])
	if err != nil {
		return Record{}, err
	}
	if val.Kind == KindString && maxStringLen > 0 && len(val.Str) >= maxStringLen {
		return Record{}, ErrValueBufferOverflow
	}

	return Record{DatastreamID: fields[0], Timestamp: ts, Value: val}, nil
}

// splitFields splits a tabular line on commas, honoring a single
// optionally-quoted trailing value field (the only field allowed to
// contain embedded delimiters, per spec §4.4).
func splitFields(line string) ([]string, error) {
	firstComma := strings.IndexByte(line, ',')
	if firstComma < 0 {
		return nil, ErrMalformedRecord
	}
	rest := line[firstComma+1:]
	secondComma := strings.IndexByte(rest, ',')
	if secondComma < 0 {
		return nil, ErrMalformedRecord
	}
	return []string{line[:firstComma], rest[:secondComma], rest[secondComma+1:]}, nil
}

// parseValueField interprets one raw value field, stripping quoting if
// present and reporting whether it was quoted (and therefore always a
// string, regardless of its contents).
func parseValueField(raw string) (Value, bool, error) {
	if strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2 {
		unquoted := strings.ReplaceAll(raw[1:len(raw)-1], `""`, `"`)
		return Value{Kind: KindString, Str: unquoted}, true, nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Value{Kind: KindInt, Int: i}, false, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Value{Kind: KindFloat, Float: f}, false, nil
	}
	return Value{Kind: KindString, Str: raw}, false, nil
}
