// File: api/handler.go
// Package api defines the connection and handler contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "io"

// Conn is a non-blocking byte stream owned by the event loop.
//
// Read returns ErrWouldBlock when no input is available and io.EOF after an
// orderly peer shutdown. Write may return a short count together with
// ErrWouldBlock.
type Conn interface {
	io.ReadWriteCloser
	FD() int
	RemoteAddr() string

	// Enqueue stores bytes the socket did not accept yet.
	Enqueue(p []byte)
	// Flush writes queued bytes until the queue is empty or the socket
	// would block. ErrWouldBlock is not reported.
	Flush() error
	// Pending returns the number of queued bytes.
	Pending() int
}

// Handler processes readiness on a client connection.
// A non-nil error means the connection must be closed; io.EOF and
// ErrPeerClosed mark an orderly shutdown.
type Handler interface {
	OnReadable(c Conn) error
	OnWritable(c Conn) error
}
