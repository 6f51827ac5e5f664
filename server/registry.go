package server

import (
	"sync/atomic"

	"github.com/momentics/hioload-echo/transport/tcp"
)

// entry is what the event loop knows about a registered descriptor.
type entry struct {
	listener bool
	conn     *tcp.Conn
	// flushing is set while the descriptor is armed for writability.
	flushing bool
}

// registry maps descriptors to entries. Only the event loop touches the map;
// the client count is atomic so probes can read it from other goroutines.
type registry struct {
	entries map[int]*entry
	clients atomic.Int64
}

func newRegistry() *registry {
	return &registry{entries: make(map[int]*entry)}
}

func (r *registry) addListener(fd int) {
	r.entries[fd] = &entry{listener: true}
}

func (r *registry) addConn(c *tcp.Conn) *entry {
	e := &entry{conn: c}
	if _, dup := r.entries[c.FD()]; !dup {
		r.clients.Add(1)
	}
	r.entries[c.FD()] = e
	return e
}

func (r *registry) get(fd int) (*entry, bool) {
	e, ok := r.entries[fd]
	return e, ok
}

func (r *registry) remove(fd int) {
	e, ok := r.entries[fd]
	if !ok {
		return
	}
	delete(r.entries, fd)
	if !e.listener {
		r.clients.Add(-1)
	}
}

// conns returns a snapshot of the registered client connections.
func (r *registry) conns() []*tcp.Conn {
	out := make([]*tcp.Conn, 0, len(r.entries))
	for _, e := range r.entries {
		if !e.listener {
			out = append(out, e.conn)
		}
	}
	return out
}

func (r *registry) openClients() int64 { return r.clients.Load() }
