// File: server/server.go
// Package server provides the single-threaded, edge-triggered TCP echo
// server built on the reactor and tcp packages.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/control"
	"github.com/momentics/hioload-echo/pool"
	"github.com/momentics/hioload-echo/reactor"
	"github.com/momentics/hioload-echo/transport/tcp"
)

// Server owns the listener, reactor, registry and handler. All socket I/O
// happens on the goroutine that calls Run.
type Server struct {
	cfg      *Config
	log      *log.Logger
	listener *tcp.Listener
	reactor  reactor.EventReactor
	registry *registry
	handler  api.Handler
	pool     *pool.BytePool
	metrics  *control.Metrics
	probes   *control.DebugProbes
	addr     string

	running  atomic.Bool
	stopping atomic.Bool
	done     chan struct{}

	mu       sync.Mutex // serializes Wake against teardown
	closed   bool
	closeErr error
}

// New binds, listens and registers the listener with a fresh reactor.
// Every failure is a setup error; nothing stays open when New fails.
func New(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	s := &Server{
		cfg:      &c,
		registry: newRegistry(),
		metrics:  control.NewMetrics(),
		probes:   control.NewDebugProbes(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.validate(); err != nil {
		return nil, err
	}
	s.log = s.cfg.Logger
	if s.log == nil {
		s.log = log.New(io.Discard, "", 0)
	}

	s.pool = pool.NewBytePool(s.cfg.BufferSize)
	ln, err := tcp.Bind(s.cfg.Host, s.cfg.Port, tcp.BindOptions{
		ReuseAddr: s.cfg.ReuseAddr,
		ReusePort: s.cfg.ReusePort,
		Pool:      s.pool,
	})
	if err != nil {
		return nil, err
	}
	if err := ln.Listen(s.cfg.Backlog); err != nil {
		ln.Close()
		return nil, err
	}
	addr, err := ln.Addr()
	if err != nil {
		ln.Close()
		return nil, api.SetupError("getsockname", err)
	}
	r, err := reactor.NewReactor(s.cfg.MaxEvents)
	if err != nil {
		ln.Close()
		return nil, err
	}
	if err := r.Register(ln.FD(), reactor.Readable); err != nil {
		r.Close()
		ln.Close()
		return nil, api.SetupError("register listener", err)
	}

	s.listener = ln
	s.reactor = r
	s.addr = addr.String()
	s.registry.addListener(ln.FD())
	if s.handler == nil {
		s.handler = NewEchoHandler(s.pool.GetBuffer(), s.log, s.metrics)
	}

	s.probes.RegisterProbe("connections.open", func() any { return s.registry.openClients() })
	s.probes.RegisterProbe("pool.in_use", func() any { return s.pool.InUse() })
	s.probes.RegisterProbe("listener.addr", func() any { return s.addr })
	control.RegisterPlatformProbes(s.probes)

	s.log.Printf("listening on %s (backlog %d)", s.addr, s.cfg.Backlog)
	return s, nil
}

func (c *Config) validate() error {
	switch {
	case c.BufferSize <= 0:
		return api.SetupError("config", fmt.Errorf("%w: buffer size %d", api.ErrInvalidArgument, c.BufferSize))
	case c.Port < 0 || c.Port > 65535:
		return api.SetupError("config", fmt.Errorf("%w: port %d", api.ErrInvalidArgument, c.Port))
	case c.Backlog < 0:
		return api.SetupError("config", fmt.Errorf("%w: backlog %d", api.ErrInvalidArgument, c.Backlog))
	}
	return nil
}

// Addr returns the bound listener address as "ip:port".
func (s *Server) Addr() string { return s.addr }

// Metrics exposes the server's prometheus collectors.
func (s *Server) Metrics() *control.Metrics { return s.metrics }

// Debug returns the current state of all debug probes.
func (s *Server) Debug() map[string]any { return s.probes.DumpState() }

// Shutdown stops the event loop and waits until Run has released every
// descriptor. It is safe to call from any goroutine and more than once.
func (s *Server) Shutdown() error {
	s.stopping.Store(true)

	s.mu.Lock()
	if s.closed {
		err := s.closeErr
		s.mu.Unlock()
		return err
	}
	if err := s.reactor.Wake(); err != nil {
		s.log.Printf("shutdown: %v", err)
	}
	s.mu.Unlock()

	if s.running.Load() {
		<-s.done
		return s.closeErr
	}
	return s.teardown()
}

// Close is Shutdown.
func (s *Server) Close() error { return s.Shutdown() }

// teardown closes every client connection, the listener and the reactor once.
func (s *Server) teardown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closeErr
	}
	s.closed = true

	for _, c := range s.registry.conns() {
		s.registry.remove(c.FD())
		c.Close()
		s.metrics.Closed.WithLabelValues(control.ReasonShutdown).Inc()
	}
	s.metrics.OpenConns.Set(0)
	s.registry.remove(s.listener.FD())
	if err := s.listener.Close(); err != nil {
		s.closeErr = fmt.Errorf("close listener: %w", err)
	}
	if err := s.reactor.Close(); err != nil && s.closeErr == nil {
		s.closeErr = fmt.Errorf("close reactor: %w", err)
	}
	s.log.Printf("server on %s stopped", s.addr)
	return s.closeErr
}
