//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/pool"
	"golang.org/x/sys/unix"
)

// Listener owns a bound, non-blocking IPv4 listening socket.
type Listener struct {
	fd   int
	open bool
	pool *pool.BytePool
}

// Bind creates a non-blocking IPv4 stream socket and binds it to ip:port.
// Any failure is a setup error and leaves no descriptor behind.
func Bind(ip string, port int, opts BindOptions) (*Listener, error) {
	addr := &unix.SockaddrInet4{Port: port}
	if ip != "" {
		parsed := net.ParseIP(ip).To4()
		if parsed == nil {
			return nil, api.SetupError("bind", fmt.Errorf("%w: not an IPv4 address %q", api.ErrInvalidArgument, ip))
		}
		copy(addr.Addr[:], parsed)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, api.SetupError("socket", err)
	}
	if opts.ReuseAddr {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			return nil, api.SetupError("setsockopt SO_REUSEADDR", err)
		}
	}
	if opts.ReusePort {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			unix.Close(fd)
			return nil, api.SetupError("setsockopt SO_REUSEPORT", err)
		}
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, api.SetupError("bind", err).
			WithContext("addr", net.JoinHostPort(ip, strconv.Itoa(port)))
	}
	return &Listener{fd: fd, open: true, pool: opts.Pool}, nil
}

// Listen starts accepting with a pending-connection queue of backlog entries.
func (l *Listener) Listen(backlog int) error {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	if err := unix.Listen(l.fd, backlog); err != nil {
		return api.SetupError("listen", err)
	}
	return nil
}

// FD returns the listening descriptor.
func (l *Listener) FD() int { return l.fd }

// Addr returns the bound address, resolving port 0 to the kernel's choice.
func (l *Listener) Addr() (*net.TCPAddr, error) {
	sa, err := unix.Getsockname(l.fd)
	if err != nil {
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	in4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return nil, fmt.Errorf("getsockname: unexpected address %T", sa)
	}
	return &net.TCPAddr{IP: net.IP(in4.Addr[:]).To16(), Port: in4.Port}, nil
}

// Accept takes one connection off the queue. It returns api.ErrWouldBlock
// when the queue is empty and an accept error otherwise.
func (l *Listener) Accept() (*Conn, error) {
	if !l.open {
		return nil, api.AcceptError(api.ErrClosed)
	}
	fd, sa, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN {
			return nil, api.ErrWouldBlock
		}
		return nil, api.AcceptError(err)
	}
	return newConn(fd, sockaddrString(sa), l.pool), nil
}

// Close closes the listening socket once.
func (l *Listener) Close() error {
	if !l.open {
		return nil
	}
	l.open = false
	return unix.Close(l.fd)
}

func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	default:
		return "unknown"
	}
}

// IsTransientAcceptError reports whether the accept loop may try again
// immediately after err.
func IsTransientAcceptError(err error) bool {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return false
	}
	switch errno {
	case unix.ECONNABORTED, unix.EINTR, unix.EPROTO, unix.EPERM:
		return true
	}
	return false
}
