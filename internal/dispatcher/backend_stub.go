//go:build !unix

// SPDX-License-Identifier: GPL-3.0-or-later

package dispatcher

import (
	"errors"
	"time"
)

// ErrUnsupportedPlatform is returned by the stub backend used on
// platforms without a POSIX non-blocking I/O primitive. Spec §1 allows
// alternate I/O backends as long as they honor the same layer contract;
// a stub that always errors satisfies that contract trivially.
var ErrUnsupportedPlatform = errors.New("dispatcher: no POSIX backend on this platform")

type stubBackend struct{}

func newBackend() (Backend, error) {
	return &stubBackend{}, nil
}

func (stubBackend) Add(fd int) error                   { return ErrUnsupportedPlatform }
func (stubBackend) Modify(fd int, r, w bool) error      { return ErrUnsupportedPlatform }
func (stubBackend) Remove(fd int) error                 { return ErrUnsupportedPlatform }
func (stubBackend) Close() error                        { return nil }
func (stubBackend) Wait(timeout time.Duration, rr, rw *[]int) (int, error) {
	time.Sleep(timeout)
	return 0, ErrUnsupportedPlatform
}
