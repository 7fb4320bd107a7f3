// SPDX-License-Identifier: GPL-3.0-or-later

package codec

import (
	"errors"
	"strings"
	"time"
)

// ErrValueBufferOverflow is returned when a string value does not fit
// within the configured maximum length (spec §4.4, §8 boundary behavior
// #4), mirroring libxively's DATAPOINT_VALUE_BUFFER_OVERFLOW.
var ErrValueBufferOverflow = errors.New("codec: string value exceeds buffer bound")

// ErrMalformedRecord is returned by [Decode] when a line cannot be
// parsed as a well-formed record.
var ErrMalformedRecord = errors.New("codec: malformed record")

// timestampLayout is ISO-8601 with six fractional (microsecond) digits,
// matching the wire format produced by the reference service (spec
// §4.4 "ISO-8601 timestamp").
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders t as ISO-8601 with microsecond precision, UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp parses an ISO-8601 timestamp, tolerating a missing
// fractional component or a numeric (non-Z) UTC offset, per spec §4.4.
func ParseTimestamp(s string) (time.Time, error) {
	candidates := []string{
		timestampLayout,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05.000000Z07:00",
		"2006-01-02T15:04:05Z07:00",
		time.RFC3339Nano,
		time.RFC3339,
	}
	var firstErr error
	for _, layout := range candidates {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// splitLine trims a trailing CR, LF, or CRLF, per spec §4.4's tolerance
// for either line ending on decode.
func splitLine(s string) string {
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s
}
