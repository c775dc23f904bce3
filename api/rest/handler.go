package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/frenemies/battle-relay/internal/port"
	"github.com/frenemies/battle-relay/internal/store"
	"github.com/frenemies/battle-relay/pkg/logger"
)

const serviceVersion = "1.0.0"

type RESTConfig struct {
	Broker  port.Broker
	RootCtx context.Context
}

// SetupRESTRoutes mounts the stateless query surface on the mux.
func SetupRESTRoutes(mux *http.ServeMux, cfg RESTConfig) {
	h := &handler{
		broker: cfg.Broker,
		logger: logger.FromContext(cfg.RootCtx).WithModule("rest"),
	}
	mux.HandleFunc("/", h.root)
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/api/rooms", h.rooms)
	mux.HandleFunc("/api/rooms/", h.roomInfo)
	mux.HandleFunc("/api/status", h.status)
}

type handler struct {
	broker port.Broker
	logger logger.Logger
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Frenemies Battle Royale API",
		"status":  "running",
		"endpoints": map[string]string{
			"health": "/health",
			"rooms":  "/api/rooms",
			"status": "/api/status",
			"socket": "/ws",
		},
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"version":   serviceVersion,
		"service":   "Frenemies Battle Royale Backend",
	})
}

func (h *handler) rooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.broker.Rooms()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": rooms,
		"total": len(rooms),
	})
}

func (h *handler) roomInfo(w http.ResponseWriter, r *http.Request) {
	roomID := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	if roomID == "" || strings.Contains(roomID, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Room not found"})
		return
	}

	info, err := h.broker.RoomInfo(roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Room not found"})
			return
		}
		h.logger.Errorf("room info %s: %v", roomID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal error"})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.broker.Status())
}
