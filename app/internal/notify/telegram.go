package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Telegram sends messages via the Telegram Bot API.
type Telegram struct {
	Token   string
	ChatID  string
	APIBase string // overridable in tests
	Client  *http.Client
}

// NewTelegram creates a Telegram notifier with the given hard timeout.
func NewTelegram(token, chatID string, timeout time.Duration) *Telegram {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Telegram{
		Token:   token,
		ChatID:  chatID,
		APIBase: "https://api.telegram.org",
		Client:  &http.Client{Timeout: timeout},
	}
}

// Send posts a Markdown message to the configured chat.
func (t *Telegram) Send(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Kind: KindUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return &DeliveryError{Kind: KindUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{
			Kind: KindRejected,
			Err:  fmt.Errorf("telegram status %d: %s", resp.StatusCode, snippet),
		}
	}
	return nil
}
