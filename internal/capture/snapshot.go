package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"time"
)

// SnapshotSource grabs stills from the camera unit's HTTP snapshot endpoint.
type SnapshotSource struct {
	endpoint   string
	httpClient *http.Client
	open       bool
}

// NewSnapshotSource creates a source for the given snapshot URL.
func NewSnapshotSource(endpoint string) *SnapshotSource {
	return &SnapshotSource{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Open probes the endpoint with one fetch. Any failure maps to
// ErrDeviceUnavailable so the engine can fall back to degraded mode. The
// resolution hint is passed as query parameters for units that honor it.
func (s *SnapshotSource) Open(ctx context.Context, hint Resolution) error {
	if s.endpoint == "" {
		return fmt.Errorf("%w: no snapshot URL configured", ErrDeviceUnavailable)
	}

	u, err := url.Parse(s.endpoint)
	if err != nil {
		return fmt.Errorf("%w: invalid snapshot URL: %v", ErrDeviceUnavailable, err)
	}
	q := u.Query()
	q.Set("width", fmt.Sprint(hint.Width))
	q.Set("height", fmt.Sprint(hint.Height))
	u.RawQuery = q.Encode()
	s.endpoint = u.String()

	if _, err := s.fetch(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	s.open = true
	return nil
}

// Grab fetches and decodes one still frame.
func (s *SnapshotSource) Grab(ctx context.Context) (image.Image, error) {
	if !s.open {
		return nil, fmt.Errorf("snapshot source is not open")
	}
	return s.fetch(ctx)
}

// Close releases the source. Idempotent.
func (s *SnapshotSource) Close() error {
	s.open = false
	return nil
}

func (s *SnapshotSource) fetch(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot endpoint returned HTTP %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return img, nil
}
