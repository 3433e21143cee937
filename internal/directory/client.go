// Package directory resolves scanned room cards to guest records. The kiosk
// treats the property-management system as an external service; the fixture
// client below stands in for it, reading a card/guest export and answering
// lookups with realistic latency.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/zonarhotels/liftselfie/internal/models"
)

// ErrNotFound is returned when the scanned card matches no directory record.
var ErrNotFound = errors.New("card not recognized")

// Client resolves a scanned card identifier to a room and guest profile.
type Client interface {
	Resolve(ctx context.Context, cardID string) (*models.Room, error)
}

// FixtureClient answers lookups from an in-memory snapshot of a PMS export.
type FixtureClient struct {
	rooms   map[string]*models.Room
	latency time.Duration
}

// NewFixtureClient loads the export at path (yaml or parquet). An empty path
// uses the built-in demo records.
func NewFixtureClient(path string, latency time.Duration) (*FixtureClient, error) {
	records := defaultRecords()
	if path != "" {
		var err error
		records, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	rooms := make(map[string]*models.Room, len(records))
	for _, rec := range records {
		room := &models.Room{UID: rec.UID, Room: rec.Room}
		if rec.Name != "" {
			room.Guest = &models.Guest{
				Name:    rec.Name,
				Phone:   rec.Phone,
				Email:   rec.Email,
				Consent: rec.Consent,
			}
		}
		rooms[rec.UID] = room
	}

	return &FixtureClient{rooms: rooms, latency: latency}, nil
}

// Resolve looks up a card after the configured latency. The latency wait is
// cancellable through ctx so a superseded session never blocks on it.
func (c *FixtureClient) Resolve(ctx context.Context, cardID string) (*models.Room, error) {
	if c.latency > 0 {
		timer := time.NewTimer(c.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	room, ok := c.rooms[cardID]
	if !ok {
		return nil, ErrNotFound
	}
	return room, nil
}

// defaultRecords mirrors the demo card set used during fit-out.
func defaultRecords() []Record {
	return []Record{
		{UID: "387598235", Room: "402", Name: "Ivana Horvat", Phone: "+385912345678", Email: "ivana@example.com", Consent: true},
		{UID: "987654321", Room: "210", Name: "John Doe", Phone: "", Email: "john@example.com", Consent: false},
		{UID: "123456789", Room: "501", Name: "Ana Kovač", Phone: "+385911234567", Email: "ana@example.com", Consent: true},
		{UID: "555666777", Room: "308", Name: "Marco Rossi", Phone: "+393331234567", Email: "marco@example.com", Consent: true},
	}
}
