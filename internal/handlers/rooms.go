// internal/handlers/rooms.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/teamdraw/teamdraw-service/internal/room"
)

// ListRoomsHandler serves the room directory over plain HTTP, for landing
// pages that want the list before opening a websocket.
func ListRoomsHandler(store *room.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rooms": store.Directory(),
		})
	}
}

// HealthHandler reports liveness.
func HealthHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			logger.Warnf("healthz write failed: %v", err)
		}
	}
}
