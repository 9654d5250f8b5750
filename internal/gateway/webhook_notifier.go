package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier posts alerts to a webhook endpoint. Delivery is
// best-effort; callers must never escalate a notify failure.
type WebhookNotifier struct {
	url  string
	http *http.Client
}

// NewWebhookNotifier builds the alerting collaborator.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{url: url, http: &http.Client{Timeout: timeout}}
}

type notifyPayload struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Recipient string `json:"recipient,omitempty"`
}

// Notify delivers one alert.
func (n *WebhookNotifier) Notify(ctx context.Context, subject, body, recipient string) error {
	if n.url == "" {
		return fmt.Errorf("alert webhook not configured")
	}

	raw, err := json.Marshal(notifyPayload{Subject: subject, Body: body, Recipient: recipient})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("deliver alert: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("alert webhook returned %d", resp.StatusCode)
	}
	return nil
}
