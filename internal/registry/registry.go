package registry

import (
	"errors"
	"sync"
	"time"
)

// ErrDuplicateConnection is returned when registering an id that is already
// present. The transport assigns unique ids, so hitting this indicates a
// bug upstream.
var ErrDuplicateConnection = errors.New("connection id already registered")

// Connection is the session state tracked for one live connection. UserID
// and Room stay empty until the connection joins a room.
type Connection struct {
	ID          string
	ConnectedAt time.Time
	UserID      string
	Room        string
}

// Registry tracks live connections keyed by id. It is a passive data
// holder; the broker is the only writer.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

func New() *Registry {
	return &Registry{
		conns: make(map[string]*Connection),
	}
}

// Register creates a fresh session for connID.
func (r *Registry) Register(connID string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[connID]; exists {
		return nil, ErrDuplicateConnection
	}

	conn := &Connection{
		ID:          connID,
		ConnectedAt: time.Now(),
	}
	r.conns[connID] = conn
	return conn, nil
}

// Lookup returns a copy of the session, or nil if the connection is not
// registered (e.g. already disconnected).
func (r *Registry) Lookup(connID string) *Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	if !ok {
		return nil
	}
	clone := *conn
	return &clone
}

// UpdateSession partially updates the session. Nil pointers leave the
// corresponding field untouched. Unknown connections are a silent no-op;
// callers must check existence before emitting notifications.
func (r *Registry) UpdateSession(connID string, room, userID *string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return
	}
	if room != nil {
		conn.Room = *room
	}
	if userID != nil {
		conn.UserID = *userID
	}
}

// Remove deletes the session and returns its prior state, or nil if absent.
func (r *Registry) Remove(connID string) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return nil
	}
	delete(r.conns, connID)
	return conn
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
