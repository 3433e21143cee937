// Package events pushes kiosk state to the front-end over WebSocket so the
// UI can render countdowns, notices and screen changes as they happen.
package events

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/zonarhotels/liftselfie/internal/models"
)

// Event is one message pushed to connected kiosk screens.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Step      models.Step `json:"step,omitempty"`
	Notice    string      `json:"notice,omitempty"`
	Detail    string      `json:"detail,omitempty"`
	Shot      int         `json:"shot,omitempty"`
	Count     int         `json:"count,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Event types
const (
	EvStepChanged    = "step.changed"
	EvCountdownTick  = "countdown.tick"
	EvPhotoTaken     = "photo.taken"
	EvNotice         = "notice"
	EvDeliveryResult = "delivery.result"
)

// Hub maintains the connected kiosk screens and broadcasts events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub. Run must be called for it to process anything.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Publish queues an event for broadcast. It never blocks the caller; if the
// hub is saturated the event is dropped with a warning.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- ev:
	default:
		slog.Warn("Event hub saturated, dropping event", "type", ev.Type)
	}
}

// Run processes register/unregister/broadcast until the register channels
// are drained and the process exits. Intended to run in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			payload, err := json.Marshal(ev)
			if err != nil {
				slog.Error("Unable to marshal event", "err", err)
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow consumer; drop it rather than stall the kiosk.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount reports the number of connected screens.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
