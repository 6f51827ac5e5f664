// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the edge-triggered readiness reactor used by the
// echo server's event loop. Linux is served by epoll; other platforms get a
// stub that fails at setup.
package reactor
