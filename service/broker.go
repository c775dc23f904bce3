package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/frenemies/battle-relay/internal/domain"
	"github.com/frenemies/battle-relay/internal/port"
	"github.com/frenemies/battle-relay/internal/registry"
	"github.com/frenemies/battle-relay/internal/store"
	"github.com/frenemies/battle-relay/pkg/logger"
)

const (
	defaultUserID       = "Anonymous"
	defaultHistoryFetch = 50
)

// Broker orchestrates connection lifecycle and message routing. It is the
// sole writer of registry and room state; the transport layer only calls
// the handler methods and receives events back through the Emitter.
type Broker struct {
	registry *registry.Registry
	rooms    *store.RoomStore
	emitter  port.Emitter
	logger   logger.Logger
	started  time.Time
}

var _ port.Broker = (*Broker)(nil)

func NewBroker(reg *registry.Registry, rooms *store.RoomStore, emitter port.Emitter, logg logger.Logger) *Broker {
	return &Broker{
		registry: reg,
		rooms:    rooms,
		emitter:  emitter,
		logger:   logg,
		started:  time.Now(),
	}
}

func (b *Broker) sendError(connID, message string) {
	b.emitter.ToConnection(connID, domain.Event{
		Type: domain.EventError,
		Data: domain.ErrorPayload{Message: message},
	})
}

// OnConnect registers the connection and greets the client. Never fails:
// transport-assigned ids are unique, so a duplicate only gets logged.
func (b *Broker) OnConnect(connID string) {
	if _, err := b.registry.Register(connID); err != nil {
		b.logger.Errorf("register %s: %v", connID, err)
		return
	}

	b.emitter.ToConnection(connID, domain.Event{
		Type: domain.EventConnectionEstablished,
		Data: domain.ConnectionEstablished{
			Message: "Connected to Frenemies Battle Royale server",
			SID:     connID,
		},
	})
	b.logger.Infof("client %s connected", connID)
}

// OnDisconnect removes the connection from its room and from the registry.
// No user_left broadcast is sent here; only an explicit leave_room
// notifies the room. No-op for unknown connections.
func (b *Broker) OnDisconnect(connID string) {
	conn := b.registry.Remove(connID)
	if conn == nil {
		return
	}
	if conn.Room != "" {
		b.rooms.Leave(conn.Room, connID)
	}
	b.logger.Infof("client %s disconnected", connID)
}

// OnJoinRoom adds the connection to the room and announces it to every
// member, the joiner included. Joining a room twice re-broadcasts; there
// is deliberately no dedup check.
func (b *Broker) OnJoinRoom(connID, roomID, userID string) {
	if strings.TrimSpace(roomID) == "" {
		b.sendError(connID, "Room ID is required")
		return
	}
	if b.registry.Lookup(connID) == nil {
		b.sendError(connID, "Not connected")
		return
	}
	if userID == "" {
		userID = defaultUserID
	}

	b.rooms.EnsureRoom(roomID)
	b.rooms.Join(roomID, connID)
	b.registry.UpdateSession(connID, &roomID, &userID)

	b.emitter.ToConnections(b.rooms.Members(roomID), domain.Event{
		Type: domain.EventUserJoined,
		Data: domain.Presence{
			UserID:    userID,
			Message:   fmt.Sprintf("%s joined the battle!", userID),
			Timestamp: domain.Now(),
		},
	})
	b.logger.Infof("user %s (sid: %s) joined room %s", userID, connID, roomID)
}

// OnLeaveRoom removes the connection from the room and announces the
// departure to everyone who was in the room at the moment of leaving, the
// leaver included (the member snapshot is taken before removal). Empty
// room ids and unknown connections are silent no-ops.
func (b *Broker) OnLeaveRoom(connID, roomID string) {
	if strings.TrimSpace(roomID) == "" {
		return
	}
	conn := b.registry.Lookup(connID)
	if conn == nil {
		return
	}
	userID := conn.UserID
	if userID == "" {
		userID = defaultUserID
	}

	members := b.rooms.Members(roomID)
	b.rooms.Leave(roomID, connID)
	cleared := ""
	b.registry.UpdateSession(connID, &cleared, nil)

	b.emitter.ToConnections(members, domain.Event{
		Type: domain.EventUserLeft,
		Data: domain.Presence{
			UserID:    userID,
			Message:   fmt.Sprintf("%s left the battle!", userID),
			Timestamp: domain.Now(),
		},
	})
	b.logger.Infof("user %s (sid: %s) left room %s", userID, connID, roomID)
}

// OnSendMessage appends the message to the room history and broadcasts it
// to every current member, the sender included.
func (b *Broker) OnSendMessage(connID, roomID, body string) {
	if strings.TrimSpace(roomID) == "" || body == "" {
		b.sendError(connID, "Room ID and message are required")
		return
	}
	conn := b.registry.Lookup(connID)
	if conn == nil {
		b.sendError(connID, "Not connected")
		return
	}
	userID := conn.UserID
	if userID == "" {
		userID = defaultUserID
	}

	msg := b.rooms.Append(roomID, domain.Message{
		UserID:    userID,
		Message:   body,
		Timestamp: domain.Now(),
		RoomID:    roomID,
	})

	b.emitter.ToConnections(b.rooms.Members(roomID), domain.Event{
		Type: domain.EventNewMessage,
		Data: msg,
	})
	b.logger.Debugf("message from %s in room %s: %s", userID, roomID, body)
}

// OnGetRoomMessages returns the most recent limit messages (default 50)
// and the full retained count to the requesting connection only.
func (b *Broker) OnGetRoomMessages(connID, roomID string, limit int) {
	if strings.TrimSpace(roomID) == "" {
		b.sendError(connID, "Room ID is required")
		return
	}
	if limit <= 0 {
		limit = defaultHistoryFetch
	}

	messages := b.rooms.RecentMessages(roomID, limit)
	total, err := b.rooms.RoomStats(roomID)
	if err != nil {
		total = 0
	}

	b.emitter.ToConnection(connID, domain.Event{
		Type: domain.EventRoomMessages,
		Data: domain.RoomMessages{
			RoomID:   roomID,
			Messages: messages,
			Total:    total,
		},
	})
}

// Rooms lists every room created so far.
func (b *Broker) Rooms() []string {
	return b.rooms.ListRooms()
}

// RoomInfo describes one room, or store.ErrRoomNotFound if it has never
// been created.
func (b *Broker) RoomInfo(roomID string) (port.RoomInfo, error) {
	count, err := b.rooms.RoomStats(roomID)
	if err != nil {
		return port.RoomInfo{}, err
	}
	return port.RoomInfo{
		RoomID:       roomID,
		MessageCount: count,
		Active:       true,
	}, nil
}

// Status reports aggregate statistics for the query surface.
func (b *Broker) Status() port.Status {
	return port.Status{
		ActiveConnections: b.registry.Count(),
		ActiveRooms:       b.rooms.RoomCount(),
		TotalMessages:     b.rooms.TotalMessages(),
		Uptime:            time.Since(b.started).Round(time.Second).String(),
	}
}
