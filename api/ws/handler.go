package ws

import (
	"net/http"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"

	"github.com/frenemies/battle-relay/internal/port"
	"github.com/frenemies/battle-relay/internal/websocket"
	"github.com/frenemies/battle-relay/pkg/logger"
)

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins, matching the permissive CORS policy of the REST
	// surface. Restrict at a reverse proxy in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades the HTTP request, assigns the connection its id,
// attaches it to the hub, and hands the connect event to the broker.
func HandleWebSocket(hub *websocket.Hub, broker port.Broker, logg logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logg.Errorf("upgrade error: %v", err)
			return
		}

		connID := uuid.NewString()
		client := websocket.NewConnection(connID, conn, hub, broker, logg)
		hub.Add(client)

		// Register with the broker before the pumps start so the greeting
		// is queued ahead of anything the client sends.
		broker.OnConnect(connID)

		go client.WritePump()
		go client.ReadPump()
		logg.Infof("new connection from %s (sid=%s)", conn.RemoteAddr(), connID)
	}
}
