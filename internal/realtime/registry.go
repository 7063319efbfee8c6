// Package realtime holds the in-memory hub for live client connections.
// The hub is volatile and single-process: two instances of the service do
// not share connections, and nothing here survives a restart.
package realtime

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultKeepAlive is how often an idle connection emits a keep-alive frame
// so intermediary proxies do not close the stream.
const DefaultKeepAlive = 30 * time.Second

// sendBuffer is the per-connection event queue depth. A client that cannot
// drain this many events is treated as disconnected.
const sendBuffer = 16

// Event is one frame pushed to a live client. Type is the discriminator
// merged into the serialized object next to the payload fields.
type Event struct {
	Type string
	Data map[string]any
}

func (e Event) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Data)+1)
	for k, v := range e.Data {
		m[k] = v
	}
	m["type"] = e.Type
	return json.Marshal(m)
}

// Connection is one user's live output stream. It is owned by the Registry
// for the lifetime of a client session and is never shared across processes.
type Connection struct {
	userID    uint
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(userID uint) *Connection {
	return &Connection{
		userID: userID,
		events: make(chan Event, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Connection) UserID() uint { return c.userID }

// Events is the stream the serving loop drains.
func (c *Connection) Events() <-chan Event { return c.events }

// Done is closed exactly once, when the connection is torn down.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Close tears the connection down. Safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Registry maps each connected user to their single live connection. All
// operations are best-effort: a missing or dead connection is a silent
// delivery miss, never an error surfaced to the domain caller.
type Registry struct {
	mu        sync.RWMutex
	conns     map[uint]*Connection
	keepAlive time.Duration
}

// NewRegistry constructs a hub. keepAlive <= 0 selects DefaultKeepAlive.
func NewRegistry(keepAlive time.Duration) *Registry {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &Registry{
		conns:     make(map[uint]*Connection),
		keepAlive: keepAlive,
	}
}

func (r *Registry) KeepAliveInterval() time.Duration { return r.keepAlive }

// Register creates a live connection for the user, displacing any prior one
// (at most one active connection per user per process). The new stream
// immediately carries a "connected" acknowledgement event.
func (r *Registry) Register(userID uint) *Connection {
	conn := newConnection(userID)

	r.mu.Lock()
	if old, ok := r.conns[userID]; ok {
		old.Close()
	}
	r.conns[userID] = conn
	r.mu.Unlock()

	// Fresh buffered channel, cannot block.
	conn.events <- Event{Type: "connected", Data: map[string]any{"userId": userID}}
	return conn
}

// Send writes the event to the user's stream if one is present. A dead or
// saturated connection is removed rather than reported; delivery to a
// disconnected user is simply dropped.
func (r *Registry) Send(userID uint, event Event) {
	r.mu.RLock()
	conn := r.conns[userID]
	r.mu.RUnlock()
	if conn == nil {
		return
	}
	r.deliver(conn, event)
}

// SendMany applies Send to each id; failures are isolated per id.
func (r *Registry) SendMany(userIDs []uint, event Event) {
	for _, id := range userIDs {
		r.Send(id, event)
	}
}

// Broadcast sends the event to every registered connection. The connection
// set is snapshotted up front; entries removed while the broadcast is in
// flight are simply missed.
func (r *Registry) Broadcast(event Event) {
	r.mu.RLock()
	snapshot := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		snapshot = append(snapshot, conn)
	}
	r.mu.RUnlock()

	for _, conn := range snapshot {
		r.deliver(conn, event)
	}
}

// Unregister removes the user's current connection, if any. Invoked on
// transport-level disconnect.
func (r *Registry) Unregister(userID uint) {
	r.mu.Lock()
	conn := r.conns[userID]
	delete(r.conns, userID)
	r.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// Disconnect removes this specific connection. Unlike Unregister it will not
// displace a newer connection the same user has since established.
func (r *Registry) Disconnect(conn *Connection) {
	r.mu.Lock()
	if r.conns[conn.userID] == conn {
		delete(r.conns, conn.userID)
	}
	r.mu.Unlock()
	conn.Close()
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Close tears down every connection. Used on shutdown and in tests.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[uint]*Connection)
	r.mu.Unlock()
	for _, conn := range conns {
		conn.Close()
	}
}

// deliver enqueues the event, self-healing the map when the connection turns
// out to be dead: closed or with a client too slow to drain its buffer.
func (r *Registry) deliver(conn *Connection, event Event) {
	select {
	case <-conn.done:
		r.Disconnect(conn)
		return
	default:
	}

	select {
	case conn.events <- event:
	default:
		r.Disconnect(conn)
	}
}
