package models

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilSessionViewsAsIdle(t *testing.T) {
	var s *Session
	view := s.View()
	assert.Equal(t, StepIdle, view.Step)
	assert.Empty(t, view.ID)
	assert.Zero(t, view.FrameCount)
}

func TestSessionView(t *testing.T) {
	s := &Session{
		ID:        "abc",
		Step:      StepComposing,
		ScannedID: "387598235",
		Room: &Room{
			UID:  "387598235",
			Room: "402",
			Guest: &Guest{
				Name:    "Ivana Horvat",
				Phone:   "+385912345678",
				Consent: true,
			},
		},
		Frames:    []image.Image{image.NewRGBA(image.Rect(0, 0, 1, 1))},
		Artifact:  []byte{0x89},
		StartedAt: time.Now(),
	}

	view := s.View()
	assert.Equal(t, "abc", view.ID)
	assert.Equal(t, StepComposing, view.Step)
	assert.Equal(t, "402", view.Room)
	assert.Equal(t, "Ivana Horvat", view.GuestName)
	assert.Equal(t, 1, view.FrameCount)
	assert.True(t, view.Composed)
}

func TestViewOmitsGuestWhenUnresolved(t *testing.T) {
	s := &Session{ID: "abc", Step: StepScanning, ScannedID: "000000000"}
	view := s.View()
	assert.Empty(t, view.Room)
	assert.Empty(t, view.GuestName)
	assert.False(t, view.Composed)
}
