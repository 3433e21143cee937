package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub() // Run intentionally not started

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(Event{Type: EvNotice})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on saturated hub")
	}
}

func TestPublishStampsTimestamp(t *testing.T) {
	hub := NewHub()
	hub.Publish(Event{Type: EvNotice})

	ev := <-hub.broadcast
	assert.False(t, ev.Timestamp.IsZero())
}

func TestClientCountStartsEmpty(t *testing.T) {
	assert.Equal(t, 0, NewHub().ClientCount())
}
