package handlers

import (
	"log/slog"
	"net/http"

	"github.com/zonarhotels/liftselfie/internal/events"
)

// HandleWS upgrades the kiosk screen's connection and streams events to it.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "err", err)
		return
	}

	client := events.NewClient(h.hub, conn)
	go client.WritePump()
	go client.ReadPump()
}
