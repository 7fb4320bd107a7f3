//go:build linux

// SPDX-License-Identifier: GPL-3.0-or-later

package dispatcher

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollBackend is the default POSIX backend on Linux.
type epollBackend struct {
	epfd int
}

func newBackend() (Backend, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollBackend{epfd: fd}, nil
}

func (b *epollBackend) Add(fd int) error {
	ev := unix.EpollEvent{Events: 0, Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (b *epollBackend) Modify(fd int, wantRead, wantWrite bool) error {
	var events uint32
	if wantRead {
		events |= unix.EPOLLIN
	}
	if wantWrite {
		events |= unix.EPOLLOUT
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (b *epollBackend) Remove(fd int) error {
	// Linux ignores the event argument for EPOLL_CTL_DEL but older
	// kernels require a non-nil pointer.
	ev := unix.EpollEvent{}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, &ev)
}

func (b *epollBackend) Wait(timeout time.Duration, readyRead, readyWrite *[]int) (int, error) {
	*readyRead = (*readyRead)[:0]
	*readyWrite = (*readyWrite)[:0]

	events := make([]unix.EpollEvent, 64)
	msec := int(timeout / time.Millisecond)
	n, err := unix.EpollWait(b.epfd, events, msec)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		if events[i].Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			*readyRead = append(*readyRead, fd)
		}
		if events[i].Events&(unix.EPOLLOUT|unix.EPOLLERR) != 0 {
			*readyWrite = append(*readyWrite, fd)
		}
	}
	return len(*readyRead) + len(*readyWrite), nil
}

func (b *epollBackend) Close() error {
	return unix.Close(b.epfd)
}
