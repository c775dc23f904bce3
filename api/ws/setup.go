package ws

import (
	"context"
	"net/http"

	"github.com/frenemies/battle-relay/internal/port"
	"github.com/frenemies/battle-relay/internal/websocket"
	"github.com/frenemies/battle-relay/pkg/logger"
)

type WSConfig struct {
	Hub     *websocket.Hub
	Broker  port.Broker
	RootCtx context.Context
}

// SetupWebSocketRoutes mounts the websocket endpoint on the mux.
func SetupWebSocketRoutes(mux *http.ServeMux, cfg WSConfig) {
	log := logger.FromContext(cfg.RootCtx).WithModule("websocket")
	mux.HandleFunc("/ws", HandleWebSocket(cfg.Hub, cfg.Broker, log))
}
