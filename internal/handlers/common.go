// Package handlers exposes the kiosk HTTP API consumed by the front-end:
// scan and consent input, session state, the composed artifact, and the
// WebSocket event stream.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/zonarhotels/liftselfie/internal/events"
	"github.com/zonarhotels/liftselfie/internal/session"
)

type Handler struct {
	machine  *session.Machine
	hub      *events.Hub
	upgrader websocket.Upgrader
}

func New(machine *session.Machine, hub *events.Hub) *Handler {
	return &Handler{
		machine: machine,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The kiosk screen and backend share a closed LAN.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
