//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based reactor implementation and factory.

package reactor

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/momentics/hioload-echo/api"
	"golang.org/x/sys/unix"
)

// linuxReactor is an edge-triggered epoll reactor with an eventfd for wakeups.
type linuxReactor struct {
	epfd   int
	wakefd int
	raw    []unix.EpollEvent

	closeOnce sync.Once
	closeErr  error
}

// NewReactor constructs a new platform-specific EventReactor for Linux.
// maxEvents <= 0 selects DefaultMaxEvents.
func NewReactor(maxEvents int) (EventReactor, error) {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, api.SetupError("epoll create", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, api.SetupError("eventfd", err)
	}
	r := &linuxReactor{
		epfd:   epfd,
		wakefd: wakefd,
		raw:    make([]unix.EpollEvent, maxEvents),
	}
	// Level-triggered on purpose: the eventfd is drained on every wakeup.
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, api.SetupError("epoll ctl add eventfd", err)
	}
	return r, nil
}

func epollEvents(in Interest) uint32 {
	events := uint32(unix.EPOLLET | unix.EPOLLRDHUP)
	if in&Readable != 0 {
		events |= unix.EPOLLIN
	}
	if in&Writable != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

// Register adds fd to the epoll interest list in edge-triggered mode.
func (r *linuxReactor) Register(fd int, in Interest) error {
	ev := unix.EpollEvent{Events: epollEvents(in), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl add fd=%d: %w", fd, err)
	}
	return nil
}

// Modify re-arms fd with a new interest set. If the descriptor is already
// ready for the new set, the next Wait reports it.
func (r *linuxReactor) Modify(fd int, in Interest) error {
	ev := unix.EpollEvent{Events: epollEvents(in), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl mod fd=%d: %w", fd, err)
	}
	return nil
}

// Unregister removes fd from the epoll interest list.
func (r *linuxReactor) Unregister(fd int) error {
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del fd=%d: %w", fd, err)
	}
	return nil
}

// Wait blocks for epoll events and translates them into events.
// An interrupted wait reports zero events.
func (r *linuxReactor) Wait(events []Event, timeoutMs int) (int, error) {
	if len(events) == 0 {
		return 0, api.ErrInvalidArgument
	}
	raw := r.raw
	if len(events) < len(raw) {
		raw = raw[:len(events)]
	}
	if timeoutMs < 0 {
		timeoutMs = -1
	}
	n, err := unix.EpollWait(r.epfd, raw, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}

	count := 0
	for i := 0; i < n; i++ {
		ev := raw[i]
		fd := int(ev.Fd)
		if fd == r.wakefd {
			r.drainWake()
			continue
		}
		events[count] = Event{
			FD:       fd,
			Readable: ev.Events&unix.EPOLLIN != 0,
			Writable: ev.Events&unix.EPOLLOUT != 0,
			Hangup:   ev.Events&(unix.EPOLLHUP|unix.EPOLLERR|unix.EPOLLRDHUP) != 0,
		}
		count++
	}
	return count, nil
}

func (r *linuxReactor) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(r.wakefd, buf[:]); err != nil {
			return
		}
	}
}

// Wake increments the eventfd counter, unblocking Wait.
func (r *linuxReactor) Wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(r.wakefd, buf[:]); err != nil && err != unix.EAGAIN {
		return fmt.Errorf("eventfd write: %w", err)
	}
	return nil
}

// Close closes the epoll instance and the wakeup eventfd.
func (r *linuxReactor) Close() error {
	r.closeOnce.Do(func() {
		errWake := unix.Close(r.wakefd)
		r.closeErr = unix.Close(r.epfd)
		if r.closeErr == nil {
			r.closeErr = errWake
		}
	})
	return r.closeErr
}
