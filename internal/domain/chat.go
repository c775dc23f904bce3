package domain

import "time"

// EventType names one kind of event on the wire, inbound or outbound.
type EventType string

const (
	// Inbound events carried inside websocket frames. Connect and
	// disconnect are transport-level and have no frame of their own.
	EventJoinRoom        EventType = "join_room"
	EventLeaveRoom       EventType = "leave_room"
	EventSendMessage     EventType = "send_message"
	EventGetRoomMessages EventType = "get_room_messages"

	// Outbound events.
	EventConnectionEstablished EventType = "connection_established"
	EventUserJoined            EventType = "user_joined"
	EventUserLeft              EventType = "user_left"
	EventNewMessage            EventType = "new_message"
	EventRoomMessages          EventType = "room_messages"
	EventError                 EventType = "error"
)

// Inbound is the decoded client frame. Fields are populated per Type;
// the broker validates whichever ones the event requires.
type Inbound struct {
	Type    EventType `json:"event"`
	RoomID  string    `json:"room_id,omitempty"`
	UserID  string    `json:"user_id,omitempty"`
	Message string    `json:"message,omitempty"`
	Limit   int       `json:"limit,omitempty"`
}

// Event is the outbound envelope written to clients.
type Event struct {
	Type EventType   `json:"event"`
	Data interface{} `json:"data"`
}

// Message is one stored chat message. Immutable once appended to a room's
// history.
type Message struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	RoomID    string `json:"room_id"`
}

// ConnectionEstablished is sent to a client right after it connects.
type ConnectionEstablished struct {
	Message string `json:"message"`
	SID     string `json:"sid"`
}

// Presence is the payload of user_joined and user_left broadcasts.
type Presence struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// RoomMessages answers a get_room_messages request. Total is the full
// retained history count even when Messages is truncated by the limit.
type RoomMessages struct {
	RoomID   string    `json:"room_id"`
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}

// ErrorPayload reports a validation failure back to the sender.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Now returns the timestamp format used on the wire.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
