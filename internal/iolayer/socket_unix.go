//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: original_source/src/libxively/io/posix_asynch/posix_asynch_io_layer.c
//

package iolayer

import (
	"net/netip"

	"golang.org/x/sys/unix"
)

// unixSocket is the real, POSIX non-blocking socket backend.
type unixSocket struct {
	fd int
}

func newRawSocket() rawSocket {
	return &unixSocket{fd: -1}
}

func (s *unixSocket) Open() error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return err
	}
	s.fd = fd
	return nil
}

func (s *unixSocket) Connect(addr netip.Addr, port uint16) error {
	a4 := addr.As4()
	sa := &unix.SockaddrInet4{Port: int(port), Addr: a4}
	err := unix.Connect(s.fd, sa)
	if err == nil {
		return nil
	}
	if err == unix.EINPROGRESS {
		return errInProgress
	}
	return err
}

func (s *unixSocket) SOError() error {
	val, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if val != 0 {
		return unix.Errno(val)
	}
	return nil
}

func (s *unixSocket) Write(p []byte) (int, error) {
	n, err := unix.Write(s.fd, p)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return n, errWouldBlock
	}
	return n, err
}

func (s *unixSocket) Read(p []byte) (int, error) {
	n, err := unix.Read(s.fd, p)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return n, errWouldBlock
	}
	return n, err
}

func (s *unixSocket) Shutdown() error {
	return unix.Shutdown(s.fd, unix.SHUT_RDWR)
}

func (s *unixSocket) Close() error {
	err := unix.Close(s.fd)
	s.fd = -1
	return err
}

func (s *unixSocket) FD() int {
	return s.fd
}
