// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for the echo server.
//
// Provides concurrent-safe state handling primitives including:
//   - Prometheus counters and gauges on a private registry
//   - Named debug probes returning point-in-time state
package control
