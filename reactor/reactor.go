// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness reactor interface.

package reactor

// Interest selects the readiness conditions a descriptor is watched for.
type Interest uint32

const (
	Readable Interest = 1 << iota
	Writable
)

// DefaultMaxEvents bounds the number of events returned by one Wait.
const DefaultMaxEvents = 1024

// Event contains readiness information returned by Wait.
type Event struct {
	FD       int
	Readable bool
	Writable bool
	// Hangup is set on EPOLLHUP/EPOLLERR/EPOLLRDHUP. The descriptor still has
	// to be read to observe the cause.
	Hangup bool
}

// EventReactor is an edge-triggered readiness registry.
//
// All methods except Wake must be called from the goroutine that runs Wait.
type EventReactor interface {
	// Register adds fd in edge-triggered mode. A notification is produced
	// only on a not-ready to ready transition, so consumers must drain the
	// descriptor until it would block.
	Register(fd int, in Interest) error

	// Modify replaces the interest set of a registered fd.
	Modify(fd int, in Interest) error

	// Unregister removes fd. Closing fd removes it implicitly.
	Unregister(fd int) error

	// Wait blocks until at least one descriptor is ready, Wake is called, or
	// timeoutMs elapses (negative blocks indefinitely). It writes up to
	// len(events) events and returns their count.
	Wait(events []Event, timeoutMs int) (int, error)

	// Wake makes a blocked or the next Wait return. Safe for concurrent use.
	Wake() error

	// Close releases the reactor descriptors.
	Close() error
}
