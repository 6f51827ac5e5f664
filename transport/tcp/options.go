// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import "github.com/momentics/hioload-echo/pool"

// DefaultBacklog is the pending-connection queue length used by Listen.
const DefaultBacklog = 1024

// BindOptions tunes the listening socket.
type BindOptions struct {
	ReuseAddr bool           // SO_REUSEADDR: restart while old sockets linger in TIME_WAIT
	ReusePort bool           // SO_REUSEPORT
	Pool      *pool.BytePool // backs pending-output chunks of accepted connections
}
