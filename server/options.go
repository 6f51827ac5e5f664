// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"log"

	"github.com/momentics/hioload-echo/api"
)

// Option customizes server initialization.
type Option func(*Server)

// WithAddress overrides the bind host and port.
func WithAddress(host string, port int) Option {
	return func(s *Server) {
		s.cfg.Host = host
		s.cfg.Port = port
	}
}

// WithBacklog sets the pending-connection queue length.
func WithBacklog(n int) Option {
	return func(s *Server) {
		s.cfg.Backlog = n
	}
}

// WithBufferSize sets the per-read buffer size.
func WithBufferSize(n int) Option {
	return func(s *Server) {
		s.cfg.BufferSize = n
	}
}

// WithMaxEvents bounds the events collected per wait.
func WithMaxEvents(n int) Option {
	return func(s *Server) {
		s.cfg.MaxEvents = n
	}
}

// WithReuse toggles SO_REUSEADDR and SO_REUSEPORT.
func WithReuse(addr, port bool) Option {
	return func(s *Server) {
		s.cfg.ReuseAddr = addr
		s.cfg.ReusePort = port
	}
}

// WithLogger replaces the console logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.cfg.Logger = l
	}
}

// WithHandler replaces the echo handler.
func WithHandler(h api.Handler) Option {
	return func(s *Server) {
		s.handler = h
	}
}
