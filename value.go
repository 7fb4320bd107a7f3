// SPDX-License-Identifier: GPL-3.0-or-later

package feedpipe

import "github.com/nimbusdata/feedpipe/internal/codec"

// ValueKind tags the active arm of a [Value] (spec §3 "Datapoint",
// §9 "Typed value union").
type ValueKind = codec.ValueKind

const (
	KindInt    = codec.KindInt
	KindFloat  = codec.KindFloat
	KindString = codec.KindString
)

// Value is a tagged union over an integer, a float, or a bounded UTF-8
// string. The zero Value is [KindInt] with value 0.
type Value = codec.Value

// NewIntValue returns an integer-tagged [Value].
func NewIntValue(v int64) Value { return codec.NewIntValue(v) }

// NewFloatValue returns a float-tagged [Value].
func NewFloatValue(v float64) Value { return codec.NewFloatValue(v) }

// NewStringValue returns a string-tagged [Value] if len(s) is less than
// max bytes, else [ErrValueBufferOverflow] and the zero Value, leaving any
// value the caller already holds unchanged (spec §8 boundary behavior
// #4).
func NewStringValue(s string, max int) (Value, error) {
	return codec.NewStringValue(s, max)
}
