package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/frenemies/battle-relay/internal/domain"
	"github.com/frenemies/battle-relay/internal/port"
	"github.com/frenemies/battle-relay/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Connection represents a single WebSocket connection to a client. It
// decodes inbound frames into broker events and writes queued outbound
// events back to the socket.
type Connection struct {
	ID     string
	ws     *websocket.Conn
	send   chan domain.Event
	hub    *Hub
	broker port.Broker
	logger logger.Logger
}

func NewConnection(id string, ws *websocket.Conn, hub *Hub, broker port.Broker, logg logger.Logger) *Connection {
	return &Connection{
		ID:     id,
		ws:     ws,
		send:   make(chan domain.Event, sendBufSize),
		hub:    hub,
		broker: broker,
		logger: logg,
	}
}

// ReadPump decodes client frames and dispatches them to the broker. When
// the read loop exits the connection is detached from the hub and the
// broker is told about the disconnect.
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.Remove(c)
		c.ws.Close()
		c.broker.OnDisconnect(c.ID)
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in domain.Inbound
		if err := c.ws.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Errorf("read error on %s: %v", c.ID, err)
			}
			return
		}
		c.dispatch(in)
	}
}

// dispatch routes one inbound event to its broker handler. Malformed or
// unknown events answer the sender with an error event; nothing here is
// fatal to the connection.
func (c *Connection) dispatch(in domain.Inbound) {
	switch in.Type {
	case domain.EventJoinRoom:
		c.broker.OnJoinRoom(c.ID, in.RoomID, in.UserID)
	case domain.EventLeaveRoom:
		c.broker.OnLeaveRoom(c.ID, in.RoomID)
	case domain.EventSendMessage:
		c.broker.OnSendMessage(c.ID, in.RoomID, in.Message)
	case domain.EventGetRoomMessages:
		c.broker.OnGetRoomMessages(c.ID, in.RoomID, in.Limit)
	default:
		c.hub.ToConnection(c.ID, domain.Event{
			Type: domain.EventError,
			Data: domain.ErrorPayload{Message: "Unknown event type"},
		})
	}
}

// WritePump drains the send channel to the socket and keeps the connection
// alive with periodic pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(evt); err != nil {
				c.logger.Errorf("write error on %s: %v", c.ID, err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
