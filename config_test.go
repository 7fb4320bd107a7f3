// SPDX-License-Identifier: GPL-3.0-or-later

package feedpipe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)

	// Dialer should be set to *net.Dialer
	_, ok := cfg.Dialer.(*net.Dialer)
	assert.True(t, ok, "Dialer should be *net.Dialer")

	// ErrClassifier should use the errno taxonomy by default
	assert.Equal(t, "", cfg.ErrClassifier.Classify(nil))
	assert.Equal(t, "transport", cfg.ErrClassifier.Classify(context.DeadlineExceeded))

	// Resolver and the new domain-stack defaults
	assert.NotNil(t, cfg.Resolver)
	assert.Equal(t, 30*time.Second, cfg.NetworkTimeout)
	assert.Equal(t, 256, cfg.StringValueMax)
	assert.NotEmpty(t, cfg.Host)
	assert.Equal(t, uint16(80), cfg.Port)
	assert.NotEmpty(t, cfg.UserAgent)
	assert.NotNil(t, cfg.Logger)

	// TimeNow should be set and return a valid time
	now := cfg.TimeNow()
	assert.False(t, now.IsZero())
}
