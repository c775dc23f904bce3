package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frenemies/battle-relay/api/rest"
	"github.com/frenemies/battle-relay/api/ws"
	"github.com/frenemies/battle-relay/internal/domain"
	"github.com/frenemies/battle-relay/internal/registry"
	"github.com/frenemies/battle-relay/internal/store"
	wsinternal "github.com/frenemies/battle-relay/internal/websocket"
	"github.com/frenemies/battle-relay/pkg/logger"
	"github.com/frenemies/battle-relay/service"
)

type envelope struct {
	Event domain.EventType `json:"event"`
	Data  json.RawMessage  `json:"data"`
}

type testClient struct {
	conn *websocket.Conn
	sid  string
	t    *testing.T
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	baseLogger := logger.NewLogger("error", "")
	ctx := logger.NewContext(context.Background(), baseLogger)

	reg := registry.New()
	rooms := store.New(1000)
	hub := wsinternal.NewHub(baseLogger)
	broker := service.NewBroker(reg, rooms, hub, baseLogger)

	mux := http.NewServeMux()
	ws.SetupWebSocketRoutes(mux, ws.WSConfig{Hub: hub, Broker: broker, RootCtx: ctx})
	rest.SetupRESTRoutes(mux, rest.RESTConfig{Broker: broker, RootCtx: ctx})

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		hub.Close()
	})
	return server
}

// connectClient dials the websocket endpoint and consumes the greeting.
func connectClient(t *testing.T, server *httptest.Server) *testClient {
	t.Helper()
	wsURL := "ws" + server.URL[4:] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	c := &testClient{conn: conn, t: t}
	t.Cleanup(func() { conn.Close() })

	evt := c.receive()
	require.Equal(t, domain.EventConnectionEstablished, evt.Event)
	var data struct {
		Message string `json:"message"`
		SID     string `json:"sid"`
	}
	require.NoError(t, json.Unmarshal(evt.Data, &data))
	require.NotEmpty(t, data.SID)
	c.sid = data.SID
	return c
}

func (c *testClient) send(in domain.Inbound) {
	require.NoError(c.t, c.conn.WriteJSON(in))
}

func (c *testClient) receive() envelope {
	var evt envelope
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(c.t, c.conn.ReadJSON(&evt))
	return evt
}

// receiveNothing asserts that no frame arrives within the window.
func (c *testClient) receiveNothing(window time.Duration) {
	var evt envelope
	c.conn.SetReadDeadline(time.Now().Add(window))
	err := c.conn.ReadJSON(&evt)
	require.Error(c.t, err, "expected silence, got %s event", evt.Event)
}

func TestConnectionEstablished(t *testing.T) {
	server := setupServer(t)

	c := connectClient(t, server)
	assert.NotEmpty(t, c.sid)
}

func TestLobbyScenario(t *testing.T) {
	server := setupServer(t)

	alice := connectClient(t, server)
	bob := connectClient(t, server)

	// Alice joins and hears her own announcement.
	alice.send(domain.Inbound{Type: domain.EventJoinRoom, RoomID: "lobby", UserID: "Alice"})
	evt := alice.receive()
	require.Equal(t, domain.EventUserJoined, evt.Event)
	var joined struct {
		UserID    string `json:"user_id"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(evt.Data, &joined))
	assert.Equal(t, "Alice", joined.UserID)
	assert.NotEmpty(t, joined.Timestamp)

	// Bob joins; both hear it.
	bob.send(domain.Inbound{Type: domain.EventJoinRoom, RoomID: "lobby", UserID: "Bob"})
	for _, c := range []*testClient{alice, bob} {
		evt := c.receive()
		require.Equal(t, domain.EventUserJoined, evt.Event)
		require.NoError(t, json.Unmarshal(evt.Data, &joined))
		assert.Equal(t, "Bob", joined.UserID)
	}

	// Alice sends a message; both receive it.
	alice.send(domain.Inbound{Type: domain.EventSendMessage, RoomID: "lobby", Message: "hi"})
	var msg domain.Message
	for _, c := range []*testClient{alice, bob} {
		evt := c.receive()
		require.Equal(t, domain.EventNewMessage, evt.Event)
		require.NoError(t, json.Unmarshal(evt.Data, &msg))
		assert.Equal(t, "Alice", msg.UserID)
		assert.Equal(t, "hi", msg.Message)
		assert.Equal(t, "lobby", msg.RoomID)
		assert.NotEmpty(t, msg.ID)
	}

	// Bob fetches the history.
	bob.send(domain.Inbound{Type: domain.EventGetRoomMessages, RoomID: "lobby", Limit: 10})
	evt = bob.receive()
	require.Equal(t, domain.EventRoomMessages, evt.Event)
	var history domain.RoomMessages
	require.NoError(t, json.Unmarshal(evt.Data, &history))
	assert.Equal(t, "lobby", history.RoomID)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, 1, history.Total)
	assert.Equal(t, "hi", history.Messages[0].Message)
}

func TestJoinWithoutRoomID(t *testing.T) {
	server := setupServer(t)

	c := connectClient(t, server)
	c.send(domain.Inbound{Type: domain.EventJoinRoom, UserID: "Alice"})

	evt := c.receive()
	require.Equal(t, domain.EventError, evt.Event)
	var payload domain.ErrorPayload
	require.NoError(t, json.Unmarshal(evt.Data, &payload))
	assert.Equal(t, "Room ID is required", payload.Message)
}

func TestExplicitLeaveBroadcasts(t *testing.T) {
	server := setupServer(t)

	alice := connectClient(t, server)
	bob := connectClient(t, server)

	alice.send(domain.Inbound{Type: domain.EventJoinRoom, RoomID: "arena", UserID: "Alice"})
	_ = alice.receive()
	bob.send(domain.Inbound{Type: domain.EventJoinRoom, RoomID: "arena", UserID: "Bob"})
	_ = alice.receive()
	_ = bob.receive()

	bob.send(domain.Inbound{Type: domain.EventLeaveRoom, RoomID: "arena"})

	// Both hear the departure: the target snapshot is taken at the moment
	// of leaving, so it still includes Bob.
	var left struct {
		UserID string `json:"user_id"`
	}
	for _, c := range []*testClient{alice, bob} {
		evt := c.receive()
		require.Equal(t, domain.EventUserLeft, evt.Event)
		require.NoError(t, json.Unmarshal(evt.Data, &left))
		assert.Equal(t, "Bob", left.UserID)
	}
}

func TestDisconnectIsSilent(t *testing.T) {
	// Documented current behavior: a transport disconnect removes the
	// connection from its room without a user_left broadcast.
	server := setupServer(t)

	alice := connectClient(t, server)
	bob := connectClient(t, server)

	alice.send(domain.Inbound{Type: domain.EventJoinRoom, RoomID: "arena", UserID: "Alice"})
	_ = alice.receive()
	bob.send(domain.Inbound{Type: domain.EventJoinRoom, RoomID: "arena", UserID: "Bob"})
	_ = alice.receive()
	_ = bob.receive()

	require.NoError(t, bob.conn.Close())

	alice.receiveNothing(500 * time.Millisecond)
}

func TestDefaultHistoryLimit(t *testing.T) {
	server := setupServer(t)

	c := connectClient(t, server)
	c.send(domain.Inbound{Type: domain.EventJoinRoom, RoomID: "busy", UserID: "Alice"})
	_ = c.receive()

	for i := 0; i < 60; i++ {
		c.send(domain.Inbound{Type: domain.EventSendMessage, RoomID: "busy", Message: "spam"})
		_ = c.receive()
	}

	// Omitted limit defaults to 50; total still reports the full count.
	c.send(domain.Inbound{Type: domain.EventGetRoomMessages, RoomID: "busy"})
	evt := c.receive()
	require.Equal(t, domain.EventRoomMessages, evt.Event)
	var history domain.RoomMessages
	require.NoError(t, json.Unmarshal(evt.Data, &history))
	assert.Len(t, history.Messages, 50)
	assert.Equal(t, 60, history.Total)
}

func TestUnknownEventType(t *testing.T) {
	server := setupServer(t)

	c := connectClient(t, server)
	c.send(domain.Inbound{Type: "teleport"})

	evt := c.receive()
	require.Equal(t, domain.EventError, evt.Event)
}

func TestRESTSurfaceAlongsideWebSocket(t *testing.T) {
	server := setupServer(t)

	c := connectClient(t, server)
	c.send(domain.Inbound{Type: domain.EventJoinRoom, RoomID: "lobby", UserID: "Alice"})
	_ = c.receive()
	c.send(domain.Inbound{Type: domain.EventSendMessage, RoomID: "lobby", Message: "hi"})
	_ = c.receive()

	resp, err := http.Get(server.URL + "/api/rooms/lobby")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info struct {
		RoomID       string `json:"room_id"`
		MessageCount int    `json:"message_count"`
		Active       bool   `json:"active"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "lobby", info.RoomID)
	assert.Equal(t, 1, info.MessageCount)
	assert.True(t, info.Active)

	resp, err = http.Get(server.URL + "/api/rooms/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
