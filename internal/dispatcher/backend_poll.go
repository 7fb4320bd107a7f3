//go:build unix && !linux

// SPDX-License-Identifier: GPL-3.0-or-later

package dispatcher

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// pollBackend is the POSIX fallback backend for non-Linux unix systems
// (e.g. BSD/Darwin), using poll(2) instead of epoll.
type pollBackend struct {
	mu    sync.Mutex
	fds   map[int]*unix.PollFd
	order []int
}

func newBackend() (Backend, error) {
	return &pollBackend{fds: make(map[int]*unix.PollFd)}, nil
}

func (b *pollBackend) Add(fd int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.fds[fd]; ok {
		return nil
	}
	pfd := &unix.PollFd{Fd: int32(fd)}
	b.fds[fd] = pfd
	b.order = append(b.order, fd)
	return nil
}

func (b *pollBackend) Modify(fd int, wantRead, wantWrite bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	pfd, ok := b.fds[fd]
	if !ok {
		return ErrUnregisteredFD
	}
	var events int16
	if wantRead {
		events |= unix.POLLIN
	}
	if wantWrite {
		events |= unix.POLLOUT
	}
	pfd.Events = events
	return nil
}

func (b *pollBackend) Remove(fd int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.fds, fd)
	for i, x := range b.order {
		if x == fd {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

func (b *pollBackend) Wait(timeout time.Duration, readyRead, readyWrite *[]int) (int, error) {
	*readyRead = (*readyRead)[:0]
	*readyWrite = (*readyWrite)[:0]

	b.mu.Lock()
	pollset := make([]unix.PollFd, 0, len(b.order))
	for _, fd := range b.order {
		pollset = append(pollset, *b.fds[fd])
	}
	b.mu.Unlock()

	if len(pollset) == 0 {
		time.Sleep(timeout)
		return 0, nil
	}

	msec := int(timeout / time.Millisecond)
	n, err := unix.Poll(pollset, msec)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for _, pfd := range pollset {
		if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			*readyRead = append(*readyRead, int(pfd.Fd))
		}
		if pfd.Revents&(unix.POLLOUT|unix.POLLERR) != 0 {
			*readyWrite = append(*readyWrite, int(pfd.Fd))
		}
	}
	return n, nil
}

func (b *pollBackend) Close() error {
	return nil
}
