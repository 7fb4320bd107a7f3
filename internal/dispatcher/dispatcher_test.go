// SPDX-License-Identifier: GPL-3.0-or-later

package dispatcher

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestRegisterUnregisterFD(t *testing.T) {
	d := newTestDispatcher(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fd := int(r.Fd())
	require.NoError(t, d.RegisterFD(fd))
	assert.True(t, d.IsRegistered(fd))

	// Idempotent.
	require.NoError(t, d.RegisterFD(fd))

	require.NoError(t, d.UnregisterFD(fd))
	assert.False(t, d.IsRegistered(fd))

	// Idempotent.
	require.NoError(t, d.UnregisterFD(fd))
}

func TestContinueWhenEventUnregisteredFD(t *testing.T) {
	d := newTestDispatcher(t)
	err := d.ContinueWhenEvent(WantRead, func(ctx context.Context) {}, 999)
	assert.ErrorIs(t, err, ErrUnregisteredFD)
}

func TestContinueWhenEventAlreadyArmed(t *testing.T) {
	d := newTestDispatcher(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fd := int(r.Fd())
	require.NoError(t, d.RegisterFD(fd))

	require.NoError(t, d.ContinueWhenEvent(WantRead, func(ctx context.Context) {}, fd))
	err = d.ContinueWhenEvent(WantRead, func(ctx context.Context) {}, fd)
	assert.ErrorIs(t, err, ErrAlreadyArmed)
}

func TestRunFiresReadContinuation(t *testing.T) {
	d := newTestDispatcher(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fd := int(r.Fd())
	require.NoError(t, d.RegisterFD(fd))

	fired := make(chan struct{})
	require.NoError(t, d.ContinueWhenEvent(WantRead, func(ctx context.Context) {
		close(fired)
	}, fd))

	go func() {
		_, _ = w.Write([]byte("x"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx, func() bool {
			select {
			case <-fired:
				return true
			default:
				return false
			}
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run never observed fd readiness")
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	d := newTestDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Run(ctx, func() bool { return false })
	assert.Error(t, err)
}

func TestEnforceTimeoutsFiresExpiredContinuation(t *testing.T) {
	d := newTestDispatcher(t)
	d.NetworkTimeout = time.Millisecond

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fd := int(r.Fd())
	require.NoError(t, d.RegisterFD(fd))

	fired := make(chan struct{})
	require.NoError(t, d.ContinueWhenEvent(WantRead, func(ctx context.Context) {
		assert.Error(t, ctx.Err())
		close(fired)
	}, fd))

	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx, func() bool {
			select {
			case <-fired:
				return true
			default:
				return false
			}
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("NetworkTimeout never fired the continuation")
	}
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "read", directionString(WantRead))
	assert.Equal(t, "write", directionString(WantWrite))
}
