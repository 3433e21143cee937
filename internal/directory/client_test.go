package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultFixture(t *testing.T) {
	client, err := NewFixtureClient("", 0)
	require.NoError(t, err)

	tests := []struct {
		name    string
		uid     string
		room    string
		guest   string
		consent bool
	}{
		{"consenting guest", "387598235", "402", "Ivana Horvat", true},
		{"non-consenting guest", "987654321", "210", "John Doe", false},
		{"second consenting guest", "123456789", "501", "Ana Kovač", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, err := client.Resolve(context.Background(), tt.uid)
			require.NoError(t, err)
			assert.Equal(t, tt.room, room.Room)
			require.NotNil(t, room.Guest)
			assert.Equal(t, tt.guest, room.Guest.Name)
			assert.Equal(t, tt.consent, room.Guest.Consent)
		})
	}
}

func TestResolveUnknownCard(t *testing.T) {
	client, err := NewFixtureClient("", 0)
	require.NoError(t, err)

	room, err := client.Resolve(context.Background(), "000000000")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, room)
}

func TestResolveHonorsCancellation(t *testing.T) {
	client, err := NewFixtureClient("", time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = client.Resolve(ctx, "387598235")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
