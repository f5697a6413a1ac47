package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook posts alerts as JSON to a generic endpoint with optional
// HMAC-SHA256 signing.
type Webhook struct {
	URL    string
	Secret string
	Client *http.Client
}

// NewWebhook creates a webhook notifier with the given hard timeout.
func NewWebhook(url, secret string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{URL: url, Secret: secret, Client: &http.Client{Timeout: timeout}}
}

// Send posts the alert payload, signing it when a secret is configured.
func (w *Webhook) Send(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"event":     "provider_alert",
		"message":   text,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Kind: KindUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ftsomon/1.0")

	if w.Secret != "" {
		mac := hmac.New(sha256.New, []byte(w.Secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Ftsomon-Signature", "sha256="+sig)
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return &DeliveryError{Kind: KindUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{Kind: KindRejected, Err: fmt.Errorf("webhook status %d", resp.StatusCode)}
	}
	return nil
}
