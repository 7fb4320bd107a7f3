// SPDX-License-Identifier: GPL-3.0-or-later

// Package layer defines the pipeline layer contract shared by the I/O,
// HTTP, and codec layers: a uniform four-entry-point interface, the
// four-valued layer state, and the chain that wires layers together.
//
// Data flows downward (codec → HTTP → I/O) via OnDataReady and upward
// (I/O → HTTP → codec) via OnDataReceived. Close/OnClose mirror this for
// teardown. See the package-level docs in the feedpipe root package for
// the full pipeline picture.
package layer

import "context"

// State is the outcome of a layer continuation call.
type State int

const (
	// StateOK means the call completed; control may proceed to the next step.
	StateOK State = iota

	// StateWantRead means the layer is waiting for the fd to become readable.
	StateWantRead

	// StateWantWrite means the layer is waiting for the fd to become writable.
	StateWantWrite

	// StateError means the call failed terminally for the current request.
	StateError
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case StateOK:
		return "OK"
	case StateWantRead:
		return "WANT_READ"
	case StateWantWrite:
		return "WANT_WRITE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ID identifies a layer's type within a chain.
type ID int

const (
	// IDIO identifies the I/O layer (bottom of the chain).
	IDIO ID = iota

	// IDHTTP identifies the HTTP layer.
	IDHTTP

	// IDCodec identifies the codec (tabular) layer (top of the chain).
	IDCodec
)

// Descriptor is a byte-region carrier moved between layers.
//
// Downward (toward I/O) descriptors are treated as read-only by
// convention; upward descriptors are written into by the I/O layer and
// read by layers above it. Cursor tracks how much of Bytes[:Len] has
// already been consumed by the current operation.
type Descriptor struct {
	// Bytes is the backing storage. Its capacity may exceed Len.
	Bytes []byte

	// Len is the number of valid bytes in Bytes.
	Len int

	// Cursor is the offset of the next unconsumed byte.
	Cursor int
}

// Remaining returns the unconsumed tail of the descriptor.
func (d *Descriptor) Remaining() []byte {
	if d == nil || d.Cursor >= d.Len {
		return nil
	}
	return d.Bytes[d.Cursor:d.Len]
}

// Advance moves the cursor forward by n bytes.
func (d *Descriptor) Advance(n int) {
	d.Cursor += n
}

// Empty reports whether the descriptor carries no unconsumed bytes.
func (d *Descriptor) Empty() bool {
	return d == nil || d.Cursor >= d.Len
}

// NewDescriptor wraps buf as a full, unconsumed descriptor.
func NewDescriptor(buf []byte) *Descriptor {
	return &Descriptor{Bytes: buf, Len: len(buf)}
}

// Layer is one stage of the pipeline.
//
// payload is deliberately untyped (any): the I/O layer exchanges
// *Descriptor byte buffers with its neighbor, while the HTTP layer
// receives a structured request object on the way down and the codec
// layer receives body-byte descriptors and a final status/headers
// payload on the way up. This mirrors the
// original design's void* data parameter (spec §4.1) while keeping each
// layer's own Go API for its payload type concrete and documented.
//
// Implementations must not mutate another layer's state block, and must
// keep their own resumable cursors monotonic across one suspend/resume
// sequence, resetting only on a terminal transition.
type Layer interface {
	// ID returns this layer's type identifier.
	ID() ID

	// OnDataReady delivers a downward payload: caller-supplied or
	// upstream-produced data that should move toward the I/O layer.
	OnDataReady(ctx context.Context, payload any) State

	// OnDataReceived delivers an upward payload: bytes from I/O (or a
	// decoded payload from the layer below) arriving at this layer.
	OnDataReceived(ctx context.Context, payload any) State

	// Close is the downward close signal.
	Close(ctx context.Context) State

	// OnClose is the upward close notification. Terminal for the layer.
	OnClose(ctx context.Context) State
}

// Chain is an ordered sequence of layers shared by one context.
//
// Layers are indexed bottom (I/O, index 0) to top (codec, index
// len(layers)-1). Neighbor lookup uses the index rather than back
// pointers, per the ownership model in the design notes.
type Chain struct {
	layers []Layer
}

// NewChain builds a chain from layers ordered bottom to top.
func NewChain(layers ...Layer) *Chain {
	return &Chain{layers: layers}
}

// Bottom returns the chain's bottom-most (I/O) layer.
func (c *Chain) Bottom() Layer {
	if len(c.layers) == 0 {
		return nil
	}
	return c.layers[0]
}

// Top returns the chain's top-most (codec) layer.
func (c *Chain) Top() Layer {
	if len(c.layers) == 0 {
		return nil
	}
	return c.layers[len(c.layers)-1]
}

// At returns the layer at the given index, or nil if out of range.
func (c *Chain) At(i int) Layer {
	if i < 0 || i >= len(c.layers) {
		return nil
	}
	return c.layers[i]
}

// Len returns the number of layers in the chain.
func (c *Chain) Len() int {
	return len(c.layers)
}

// IndexOf returns the index of layer l in the chain, or -1 if absent.
func (c *Chain) IndexOf(l Layer) int {
	for i, x := range c.layers {
		if x == l {
			return i
		}
	}
	return -1
}

// CallOnNextDataReady invokes the predecessor's OnDataReady (the layer
// closer to I/O). If l is the bottom layer, there is no predecessor and
// this call is a programming error (the I/O layer has no layer below it
// within the chain; it talks to the socket directly).
func (c *Chain) CallOnNextDataReady(ctx context.Context, l Layer, payload any) State {
	idx := c.IndexOf(l)
	if idx <= 0 {
		return StateError
	}
	return c.layers[idx-1].OnDataReady(ctx, payload)
}

// CallOnNextOnDataReceived invokes the successor's OnDataReceived (the
// layer closer to the user). If l is the top layer, the result is
// terminal and stored in the top layer's own state block; callers at the
// top must not forward further.
func (c *Chain) CallOnNextOnDataReceived(ctx context.Context, l Layer, payload any) State {
	idx := c.IndexOf(l)
	if idx < 0 || idx+1 >= len(c.layers) {
		return StateError
	}
	return c.layers[idx+1].OnDataReceived(ctx, payload)
}

// CallOnNextOnClose invokes the successor's OnClose, propagating an
// upward close notification (e.g. a peer EOF observed by the I/O layer)
// one layer at a time so each layer still in flight (spec §4.3's
// BodyEof framing: "Done on on_close") gets a chance to finalize.
func (c *Chain) CallOnNextOnClose(ctx context.Context, l Layer) State {
	idx := c.IndexOf(l)
	if idx < 0 || idx+1 >= len(c.layers) {
		return StateError
	}
	return c.layers[idx+1].OnClose(ctx)
}

// CloseAll sends the downward close signal through every layer, bottom
// first, matching the direction bytes flow when tearing down.
func (c *Chain) CloseAll(ctx context.Context) State {
	result := StateOK
	for _, l := range c.layers {
		if st := l.Close(ctx); st == StateError {
			result = StateError
		}
	}
	return result
}
