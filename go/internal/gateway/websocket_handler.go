package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/aviator/go/internal/round"
)

// SnapshotProvider hands the handler the current engine state for late
// joiners.
type SnapshotProvider interface {
	Snapshot() round.Snapshot
}

// WebSocketHandler handles WebSocket upgrade requests for round observers.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	snapshots         SnapshotProvider
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(cm *ConnectionManager, snapshots SnapshotProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		snapshots:         snapshots,
	}
}

// HandleObserverConnection handles GET /ws. Observers need no identity; the
// stream carries no per-user data beyond what every client may see. The
// first frame is a snapshot so the client renders without waiting for the
// next event.
func (h *WebSocketHandler) HandleObserverConnection(w http.ResponseWriter, r *http.Request) {
	var snapshot []byte
	if h.snapshots != nil {
		data, err := json.Marshal(map[string]interface{}{
			"type": "snapshot",
			"data": h.snapshots.Snapshot(),
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal snapshot for new observer")
		} else {
			snapshot = data
		}
	}

	if err := h.connectionManager.UpgradeConnection(w, r, snapshot); err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.connectionManager.Stats())
}
