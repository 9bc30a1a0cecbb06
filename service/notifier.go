package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Notifier dispatches best-effort notifications. Implementations must never
// propagate failures to the calling operation.
type Notifier interface {
	Notify(ctx context.Context, userID, event string, payload map[string]any)
}

// NopNotifier drops all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string, map[string]any) {}

// WebhookNotifier POSTs notification events to a callback URL.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, userID, event string, payload map[string]any) {
	body := map[string]any{
		"user_id": userID,
		"event":   event,
		"payload": payload,
		"sent_at": time.Now().UTC(),
	}
	raw, err := json.Marshal(body)
	if err != nil {
		slog.Warn("notify: marshal failed", "event", event, "error", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(raw))
	if err != nil {
		slog.Warn("notify: build request failed", "event", event, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		slog.Warn("notify: dispatch failed", "event", event, "user_id", userID, "error", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		slog.Warn("notify: non-2xx response", "event", event, "status", resp.StatusCode)
	}
}
