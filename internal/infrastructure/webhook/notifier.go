package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"PhoneSync/internal/ports"
)

// Notifier delivers monitoring alerts to a configured webhook URL.
type Notifier struct {
	url    string
	client *http.Client
}

var _ ports.AlertSink = (*Notifier)(nil)

// NewNotifier registers the webhook endpoint.
func NewNotifier(url string) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// SendAlert posts a JSON payload. Callers treat delivery as best-effort;
// the monitoring path logs failures and never blocks on them.
func (n *Notifier) SendAlert(ctx context.Context, subject, body string) error {
	if n.url == "" {
		return fmt.Errorf("webhook notifier misconfigured")
	}

	payload, err := json.Marshal(map[string]string{
		"subject":   subject,
		"body":      body,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook error: %s", resp.Status)
	}
	return nil
}
