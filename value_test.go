// SPDX-License-Identifier: GPL-3.0-or-later

package feedpipe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
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
	assert.NoError(t, err)
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "hello", v.Str)
}

func TestNewStringValueOverflow(t *testing.T) {
	_, err := NewStringValue("toolong", 4)
	assert.True(t, errors.Is(err, ErrValueBufferOverflow))
}

func TestZeroValueIsIntZero(t *testing.T) {
	var v Value
	assert.Equal(t, KindInt, v.Kind)
	assert.Equal(t, int64(0), v.Int)
}
