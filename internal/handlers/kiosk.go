package handlers

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/zonarhotels/liftselfie/internal/models"
)

// HandleScan accepts a card-scan event from the kiosk reader.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		UID string `json:"uid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.UID == "" {
		h.writeError(w, "Missing uid", http.StatusBadRequest)
		return
	}

	h.machine.Scan(body.UID)
	h.writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleConsent accepts the guest's consent decision.
func (h *Handler) HandleConsent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Accepted bool `json:"accepted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if h.machine.Snapshot().Step != models.StepAwaitingConsent {
		h.writeError(w, "Not awaiting consent", http.StatusConflict)
		return
	}

	h.machine.Consent(body.Accepted)
	h.writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleReset returns the kiosk to idle, discarding the session.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.machine.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession reports the live session state.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.machine.Snapshot())
}

// HandleArtifact streams the composed polaroid from memory. Nothing is ever
// written to disk and clients are told not to cache.
func (h *Handler) HandleArtifact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	artifact := h.machine.Artifact()
	if artifact == nil {
		h.writeError(w, "No artifact composed", http.StatusNotFound)
		return
	}

	etag := fmt.Sprintf(`"%x"`, md5.Sum(artifact))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("ETag", etag)
	if _, err := w.Write(artifact); err != nil {
		slog.Error("Unable to write artifact", "err", err)
	}
}
