//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"fmt"
	"io"

	"github.com/eapache/queue"
	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/pool"
	"golang.org/x/sys/unix"
)

// chunk is a queued slice of output; buf is owned by the pool when pooled.
type chunk struct {
	buf    []byte
	off    int
	end    int
	pooled bool
}

// Conn is an accepted, non-blocking TCP connection.
//
// The descriptor is released exactly once by Close. A Conn is not safe for
// concurrent use; it belongs to the event loop.
type Conn struct {
	fd     int
	remote string
	open   bool

	pending      *queue.Queue
	pendingBytes int
	pool         *pool.BytePool
}

var _ api.Conn = (*Conn)(nil)

func newConn(fd int, remote string, p *pool.BytePool) *Conn {
	return &Conn{
		fd:      fd,
		remote:  remote,
		open:    true,
		pending: queue.New(),
		pool:    p,
	}
}

// FD returns the underlying descriptor.
func (c *Conn) FD() int { return c.fd }

// RemoteAddr returns the peer as "ip:port".
func (c *Conn) RemoteAddr() string { return c.remote }

// IsOpen reports whether Close has not been called yet.
func (c *Conn) IsOpen() bool { return c.open }

// Read reads available input. It returns api.ErrWouldBlock when the socket
// has been drained and io.EOF after an orderly peer shutdown.
func (c *Conn) Read(p []byte) (int, error) {
	if !c.open {
		return 0, api.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(c.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return 0, api.ErrWouldBlock
		case err != nil:
			return 0, fmt.Errorf("read fd=%d: %w", c.fd, err)
		case n == 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write writes p without blocking. A short count is returned together with
// api.ErrWouldBlock when the send buffer is full.
func (c *Conn) Write(p []byte) (int, error) {
	if !c.open {
		return 0, api.ErrClosed
	}
	written := 0
	for written < len(p) {
		n, err := unix.Write(c.fd, p[written:])
		if n > 0 {
			written += n
		}
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return written, api.ErrWouldBlock
		case err != nil:
			return written, fmt.Errorf("write fd=%d: %w", c.fd, err)
		case n == 0:
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// Enqueue copies p to the pending-output queue.
func (c *Conn) Enqueue(p []byte) {
	if len(p) == 0 {
		return
	}
	ch := &chunk{end: len(p)}
	if c.pool != nil && len(p) <= c.pool.Size() {
		ch.buf = c.pool.GetBuffer()
		ch.pooled = true
	} else {
		ch.buf = make([]byte, len(p))
	}
	copy(ch.buf, p)
	c.pending.Add(ch)
	c.pendingBytes += len(p)
}

// Flush writes queued output in order until the queue is empty or the
// socket would block.
func (c *Conn) Flush() error {
	for c.pending.Length() > 0 {
		ch := c.pending.Peek().(*chunk)
		n, err := c.Write(ch.buf[ch.off:ch.end])
		ch.off += n
		c.pendingBytes -= n
		if err == api.ErrWouldBlock {
			return nil
		}
		if err != nil {
			return err
		}
		c.pending.Remove()
		c.release(ch)
	}
	return nil
}

// Pending returns the number of queued output bytes.
func (c *Conn) Pending() int { return c.pendingBytes }

func (c *Conn) release(ch *chunk) {
	if ch.pooled {
		c.pool.PutBuffer(ch.buf)
	}
	ch.buf = nil
}

// Close releases the descriptor, which also removes it from any epoll set.
// Subsequent calls are no-ops.
func (c *Conn) Close() error {
	if !c.open {
		return nil
	}
	c.open = false
	for c.pending.Length() > 0 {
		c.release(c.pending.Remove().(*chunk))
	}
	c.pendingBytes = 0
	if err := unix.Close(c.fd); err != nil {
		return fmt.Errorf("close fd=%d: %w", c.fd, err)
	}
	return nil
}

func (c *Conn) String() string {
	return fmt.Sprintf("fd=%d %s", c.fd, c.remote)
}
