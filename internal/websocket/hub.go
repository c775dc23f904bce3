package websocket

import (
	"sync"

	"github.com/frenemies/battle-relay/internal/domain"
	"github.com/frenemies/battle-relay/internal/port"
	"github.com/frenemies/battle-relay/pkg/logger"
)

// Hub maps connection ids to live websocket connections and carries
// outbound events to them. It implements port.Emitter for the broker.
// Membership and session state live in the broker's stores; the hub only
// knows how to reach a connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Connection
	logger  logger.Logger
}

var _ port.Emitter = (*Hub)(nil)

func NewHub(logg logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Connection),
		logger:  logg,
	}
}

// Add registers a connection so events can be delivered to it.
func (h *Hub) Add(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Remove unregisters the connection and closes its send channel. Safe to
// call more than once.
func (h *Hub) Remove(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.clients[c.ID]; exists {
		delete(h.clients, c.ID)
		close(c.send)
	}
}

// ToConnection delivers an event to a single connection. Unknown ids are
// ignored: the connection may have disconnected between the broker taking
// its snapshot and the delivery, which best-effort fan-out tolerates.
func (h *Hub) ToConnection(connID string, evt domain.Event) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.deliver(c, evt)
}

// ToConnections fans an event out to every listed connection.
func (h *Hub) ToConnections(connIDs []string, evt domain.Event) {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(connIDs))
	for _, id := range connIDs {
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, evt)
	}
}

// deliver enqueues the event, evicting the connection when its send buffer
// is full. A consumer that slow is effectively dead. The send happens under
// the read lock and after a membership re-check: Remove closes the channel
// only while holding the write lock, so the channel cannot close mid-send.
func (h *Hub) deliver(c *Connection, evt domain.Event) {
	h.mu.RLock()
	_, attached := h.clients[c.ID]
	delivered := false
	if attached {
		select {
		case c.send <- evt:
			delivered = true
		default:
		}
	}
	h.mu.RUnlock()

	if attached && !delivered {
		h.logger.Warnf("dropping slow consumer %s", c.ID)
		h.Remove(c)
		c.ws.Close()
	}
}

// Close tears down every connection. Used during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.send)
		c.ws.Close()
		delete(h.clients, id)
	}
}
