package port

import "github.com/frenemies/battle-relay/internal/domain"

// Emitter carries outbound events back to clients. Implemented by the
// websocket hub; the broker never touches transport connections directly.
type Emitter interface {
	ToConnection(connID string, evt domain.Event)
	ToConnections(connIDs []string, evt domain.Event)
}

// Broker is the event-handling contract exposed to the transport layer.
// Each handler corresponds to one inbound event and may emit zero or more
// outbound events through the Emitter.
type Broker interface {
	OnConnect(connID string)
	OnDisconnect(connID string)
	OnJoinRoom(connID, roomID, userID string)
	OnLeaveRoom(connID, roomID string)
	OnSendMessage(connID, roomID, body string)
	OnGetRoomMessages(connID, roomID string, limit int)

	// Stateless reads for the REST query surface.
	Rooms() []string
	RoomInfo(roomID string) (RoomInfo, error)
	Status() Status
}

// RoomInfo describes a single room for the query surface.
type RoomInfo struct {
	RoomID       string `json:"room_id"`
	MessageCount int    `json:"message_count"`
	Active       bool   `json:"active"`
}

// Status is the aggregate server statistics snapshot.
type Status struct {
	ActiveConnections int    `json:"active_connections"`
	ActiveRooms       int    `json:"active_rooms"`
	TotalMessages     int    `json:"total_messages"`
	Uptime            string `json:"uptime"`
}
