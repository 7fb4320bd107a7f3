// SPDX-License-Identifier: GPL-3.0-or-later

package feedpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocolString(t *testing.T) {
	assert.Equal(t, "http", ProtocolHTTP.String())
	assert.Equal(t, "unknown", Protocol(99).String())
}
