package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/deepdesert/go/internal/events"
)

// SnapshotProvider returns the events a new viewer receives on connect
type SnapshotProvider interface {
	Snapshot() []*events.MapEvent
}

// WebSocketHandler handles WebSocket upgrade requests for the map feed
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	snapshots         SnapshotProvider
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, snapshots SnapshotProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		snapshots:         snapshots,
	}
}

// HandleMapConnection upgrades a viewer and sends it the current map state
func (h *WebSocketHandler) HandleMapConnection(w http.ResponseWriter, r *http.Request) {
	var greeting []*events.MapEvent
	if h.snapshots != nil {
		greeting = h.snapshots.Snapshot()
	}

	// the upgrader has already written an error response on failure
	if err := h.connectionManager.UpgradeConnection(w, r, greeting...); err != nil {
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{
		"total_connections": h.connectionManager.Count(),
	})
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/map", h.HandleMapConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
