// Package delivery hands the finished polaroid to the hotel's delivery
// gateway, which forwards it to the guest over WhatsApp or email. Delivery
// is best-effort: the kiosk flow never waits on it or rolls back for it.
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// Destination addresses one guest. Phone wins over email when both are set.
type Destination struct {
	Phone string
	Email string
}

// String returns the address the artifact will be sent to.
func (d Destination) String() string {
	if d.Phone != "" {
		return d.Phone
	}
	return d.Email
}

// Empty reports whether there is nowhere to deliver to.
func (d Destination) Empty() bool {
	return d.Phone == "" && d.Email == ""
}

// Sender delivers a finished artifact out-of-band.
type Sender interface {
	Send(ctx context.Context, artifact []byte, dest Destination) error
}

// WebhookSender posts the artifact to the delivery gateway as a multipart
// form.
type WebhookSender struct {
	endpoint   string
	httpClient *http.Client
}

// NewWebhookSender creates a sender for the given gateway URL.
func NewWebhookSender(endpoint string) *WebhookSender {
	return &WebhookSender{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send posts the PNG plus destination fields and treats any non-2xx status
// as failure.
func (s *WebhookSender) Send(ctx context.Context, artifact []byte, dest Destination) error {
	if dest.Empty() {
		return fmt.Errorf("no destination for delivery")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("artifact", "polaroid.png")
	if err != nil {
		return fmt.Errorf("failed to build delivery payload: %w", err)
	}
	if _, err := part.Write(artifact); err != nil {
		return fmt.Errorf("failed to build delivery payload: %w", err)
	}
	if dest.Phone != "" {
		if err := writer.WriteField("phone", dest.Phone); err != nil {
			return fmt.Errorf("failed to build delivery payload: %w", err)
		}
	}
	if dest.Email != "" {
		if err := writer.WriteField("email", dest.Email); err != nil {
			return fmt.Errorf("failed to build delivery payload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build delivery payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach delivery gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("delivery gateway returned HTTP %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// LogSender logs deliveries instead of performing them. Used when no gateway
// is configured, e.g. during fit-out.
type LogSender struct{}

// Send logs the would-be delivery and succeeds.
func (LogSender) Send(ctx context.Context, artifact []byte, dest Destination) error {
	slog.Info("Delivery (log only)", "to", dest.String(), "bytes", len(artifact))
	return nil
}
