//go:build !linux
// +build !linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"net"

	"github.com/momentics/hioload-echo/api"
)

// Listener is unavailable on this platform.
type Listener struct{}

// Conn is unavailable on this platform.
type Conn struct{}

// Bind always fails on this platform.
func Bind(ip string, port int, opts BindOptions) (*Listener, error) {
	return nil, api.SetupError("bind", api.ErrNotSupported)
}

func (l *Listener) Listen(backlog int) error    { return api.ErrNotSupported }
func (l *Listener) FD() int                     { return -1 }
func (l *Listener) Addr() (*net.TCPAddr, error) { return nil, api.ErrNotSupported }
func (l *Listener) Accept() (*Conn, error)      { return nil, api.AcceptError(api.ErrNotSupported) }
func (l *Listener) Close() error                { return nil }
func (c *Conn) FD() int                         { return -1 }
func (c *Conn) RemoteAddr() string              { return "" }
func (c *Conn) IsOpen() bool                    { return false }
func (c *Conn) Read(p []byte) (int, error)      { return 0, api.ErrNotSupported }
func (c *Conn) Write(p []byte) (int, error)     { return 0, api.ErrNotSupported }
func (c *Conn) Enqueue(p []byte)                {}
func (c *Conn) Flush() error                    { return api.ErrNotSupported }
func (c *Conn) Pending() int                    { return 0 }
func (c *Conn) Close() error                    { return nil }

// IsTransientAcceptError always reports false on this platform.
func IsTransientAcceptError(err error) bool { return false }
