// File: server/run.go
// Package server implements the event loop: readiness wait, accept loop,
// dispatch to the handler and connection teardown.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/reactor"
	"github.com/momentics/hioload-echo/transport/tcp"
)

// Run serves connections on the calling goroutine until Shutdown. It returns
// nil after Shutdown and a poll error if the readiness wait itself fails;
// per-connection and accept failures never stop the loop.
func (s *Server) Run() error {
	if !s.running.CompareAndSwap(false, true) {
		return api.ErrAlreadyRunning
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		close(s.done)
		return api.ErrClosed
	}
	defer close(s.done)
	defer s.teardown()

	events := make([]reactor.Event, s.eventCap())
	for !s.stopping.Load() {
		n, err := s.reactor.Wait(events, -1)
		if err != nil {
			perr := api.PollError(err)
			s.log.Printf("%v", perr)
			return perr
		}
		s.metrics.Wakeups.Inc()
		for i := 0; i < n; i++ {
			s.dispatch(events[i])
		}
	}
	return nil
}

func (s *Server) eventCap() int {
	if s.cfg.MaxEvents > 0 {
		return s.cfg.MaxEvents
	}
	return reactor.DefaultMaxEvents
}

func (s *Server) dispatch(ev reactor.Event) {
	e, ok := s.registry.get(ev.FD)
	if !ok {
		// Closed earlier in this batch.
		return
	}
	if e.listener {
		s.acceptAll()
		return
	}

	c := e.conn
	var err error
	if c.Pending() > 0 && (ev.Writable || ev.Hangup) {
		// A hangup while output is queued surfaces as a flush error.
		err = s.handler.OnWritable(c)
	}
	if err == nil && (ev.Readable || ev.Hangup) {
		err = s.handler.OnReadable(c)
	}
	if err != nil {
		s.closeConn(c, err)
		return
	}
	s.updateInterest(e)
}

// updateInterest arms writability while output is queued and disarms it
// once the queue is empty.
func (s *Server) updateInterest(e *entry) {
	pending := e.conn.Pending() > 0
	if pending == e.flushing {
		return
	}
	in := reactor.Readable
	if pending {
		in |= reactor.Writable
	}
	if err := s.reactor.Modify(e.conn.FD(), in); err != nil {
		s.closeConn(e.conn, api.ConnectionError("rearm", err))
		return
	}
	e.flushing = pending
}

// acceptAll accepts until the backlog is empty; one edge may stand for many
// pending connections.
func (s *Server) acceptAll() {
	for {
		c, err := s.listener.Accept()
		if errors.Is(err, api.ErrWouldBlock) {
			return
		}
		if err != nil {
			s.metrics.AcceptErrors.Inc()
			s.log.Printf("%v", err)
			if tcp.IsTransientAcceptError(err) {
				continue
			}
			// Out of descriptors or memory: retry on the next edge.
			return
		}
		if err := s.reactor.Register(c.FD(), reactor.Readable); err != nil {
			s.metrics.AcceptErrors.Inc()
			s.log.Printf("%v", api.ConnectionError("register", err).WithContext("peer", c.RemoteAddr()))
			c.Close()
			continue
		}
		s.registry.addConn(c)
		s.metrics.Accepted.Inc()
		s.metrics.OpenConns.Inc()
		s.log.Printf("new connection from %s (fd=%d)", c.RemoteAddr(), c.FD())
	}
}

// closeConn removes c from the registry and the epoll set and releases it.
func (s *Server) closeConn(c *tcp.Conn, cause error) {
	if !c.IsOpen() {
		return
	}
	s.registry.remove(c.FD())
	if err := s.reactor.Unregister(c.FD()); err != nil {
		s.log.Printf("unregister fd=%d: %v", c.FD(), err)
	}
	reason := control.ReasonError
	if errors.Is(cause, api.ErrPeerClosed) {
		reason = control.ReasonPeer
		s.log.Printf("connection closed (fd=%d %s)", c.FD(), c.RemoteAddr())
	} else {
		s.log.Printf("closing connection fd=%d %s: %v", c.FD(), c.RemoteAddr(), cause)
	}
	if err := c.Close(); err != nil {
		s.log.Printf("%v", err)
	}
	s.metrics.Closed.WithLabelValues(reason).Inc()
	s.metrics.OpenConns.Dec()
}
