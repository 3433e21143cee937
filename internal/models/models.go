package models

import (
	"image"
	"time"
)

// Step is the kiosk's current position in the guest journey.
type Step string

const (
	StepIdle            Step = "idle"
	StepScanning        Step = "scanning"
	StepVerifying       Step = "verifying"
	StepAwaitingConsent Step = "awaiting_consent"
	StepCapturing       Step = "capturing"
	StepComposing       Step = "composing"
	StepDelivering      Step = "delivering"
	StepComplete        Step = "complete"
)

// Guest is the resolved identity for a room. Immutable for the session's
// lifetime once resolved.
type Guest struct {
	Name    string `json:"name" yaml:"name"`
	Phone   string `json:"phone" yaml:"phone"`
	Email   string `json:"email" yaml:"email"`
	Consent bool   `json:"consent" yaml:"consent"`
}

// Room is the result of resolving a scanned card against the guest directory.
type Room struct {
	UID   string `json:"uid"`
	Room  string `json:"room"`
	Guest *Guest `json:"guest,omitempty"`
}

// Session is one guest's end-to-end journey from scan to reset. Exactly one
// session is live at a time; a new scan supersedes any prior one. Frames and
// the composed artifact live only in memory and are dropped on reset.
type Session struct {
	ID        string
	Step      Step
	ScannedID string
	Room      *Room
	Frames    []image.Image
	Artifact  []byte
	StartedAt time.Time
}

// View is the JSON-safe projection of a session. Raw frames and artifact
// bytes are deliberately excluded.
type View struct {
	ID         string    `json:"id,omitempty"`
	Step       Step      `json:"step"`
	ScannedID  string    `json:"scanned_id,omitempty"`
	Room       string    `json:"room,omitempty"`
	GuestName  string    `json:"guest_name,omitempty"`
	FrameCount int       `json:"frame_count"`
	Composed   bool      `json:"composed"`
	StartedAt  time.Time `json:"started_at,omitempty"`
}

// View returns the JSON-safe projection of s. A nil session projects as idle.
func (s *Session) View() View {
	if s == nil {
		return View{Step: StepIdle}
	}
	v := View{
		ID:         s.ID,
		Step:       s.Step,
		ScannedID:  s.ScannedID,
		FrameCount: len(s.Frames),
		Composed:   len(s.Artifact) > 0,
		StartedAt:  s.StartedAt,
	}
	if s.Room != nil {
		v.Room = s.Room.Room
		if s.Room.Guest != nil {
			v.GuestName = s.Room.Guest.Name
		}
	}
	return v
}
