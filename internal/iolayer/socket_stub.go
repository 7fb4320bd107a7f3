//go:build !unix

// SPDX-License-Identifier: GPL-3.0-or-later

package iolayer

import (
	"errors"
	"net/netip"
)

// ErrUnsupportedPlatform is returned by the stub socket backend used on
// platforms without POSIX non-blocking sockets. Spec §1 allows alternate
// I/O backends provided they honor the same layer contract.
var ErrUnsupportedPlatform = errors.New("iolayer: no POSIX socket backend on this platform")

type stubSocket struct{}

func newRawSocket() rawSocket { return &stubSocket{} }

func (stubSocket) Open() error                                  { return ErrUnsupportedPlatform }
func (stubSocket) Connect(addr netip.Addr, port uint16) error    { return ErrUnsupportedPlatform }
func (stubSocket) SOError() error                                { return ErrUnsupportedPlatform }
func (stubSocket) Write(p []byte) (int, error)                   { return 0, ErrUnsupportedPlatform }
func (stubSocket) Read(p []byte) (int, error)                    { return 0, ErrUnsupportedPlatform }
func (stubSocket) Shutdown() error                               { return ErrUnsupportedPlatform }
func (stubSocket) Close() error                                  { return nil }
func (stubSocket) FD() int                                       { return -1 }
