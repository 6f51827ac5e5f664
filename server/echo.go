// File: server/echo.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"
	"io"
	"log"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
)

// EchoHandler writes every byte it reads back to the same connection.
//
// Connections are registered edge-triggered, so OnReadable drains until the
// socket would block. Bytes the socket does not accept are queued on the
// connection and reading pauses until OnWritable has flushed them.
type EchoHandler struct {
	buf     []byte
	log     *log.Logger
	metrics *control.Metrics
}

var _ api.Handler = (*EchoHandler)(nil)

// NewEchoHandler uses buf for every read; it is reused across connections.
func NewEchoHandler(buf []byte, logger *log.Logger, m *control.Metrics) *EchoHandler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if m == nil {
		m = control.NewMetrics()
	}
	return &EchoHandler{buf: buf, log: logger, metrics: m}
}

// OnReadable drains c. It returns api.ErrPeerClosed after an orderly
// shutdown and a connection error on read or write failure.
func (h *EchoHandler) OnReadable(c api.Conn) error {
	if c.Pending() > 0 {
		return nil
	}
	for {
		n, err := c.Read(h.buf)
		switch {
		case errors.Is(err, api.ErrWouldBlock):
			return nil
		case errors.Is(err, io.EOF):
			return api.ErrPeerClosed
		case err != nil:
			return api.ConnectionError("read", err).WithContext("fd", c.FD())
		}
		h.metrics.BytesReceived.Add(float64(n))
		h.log.Printf("fd=%d received %d bytes", c.FD(), n)

		w, err := c.Write(h.buf[:n])
		if w > 0 {
			h.metrics.BytesSent.Add(float64(w))
			h.log.Printf("fd=%d sent %d bytes", c.FD(), w)
		}
		if errors.Is(err, api.ErrWouldBlock) {
			h.metrics.ShortWrites.Inc()
			c.Enqueue(h.buf[w:n])
			return nil
		}
		if err != nil {
			return api.ConnectionError("write", err).WithContext("fd", c.FD())
		}
	}
}

// OnWritable flushes queued output and resumes draining input once the
// queue is empty; input that arrived meanwhile raised no new edge.
func (h *EchoHandler) OnWritable(c api.Conn) error {
	before := c.Pending()
	if before == 0 {
		return nil
	}
	err := c.Flush()
	if flushed := before - c.Pending(); flushed > 0 {
		h.metrics.BytesSent.Add(float64(flushed))
		h.log.Printf("fd=%d sent %d queued bytes", c.FD(), flushed)
	}
	if err != nil {
		return api.ConnectionError("write", err).WithContext("fd", c.FD())
	}
	if c.Pending() > 0 {
		return nil
	}
	return h.OnReadable(c)
}
