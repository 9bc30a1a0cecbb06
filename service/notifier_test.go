package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier_PostsEvent(t *testing.T) {
	type received struct {
		UserID  string         `json:"user_id"`
		Event   string         `json:"event"`
		Payload map[string]any `json:"payload"`
	}
	var got received
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	n.Notify(context.Background(), "P1", "split_settled", map[string]any{"wallet_id": "W1"})

	assert.Equal(t, "P1", got.UserID)
	assert.Equal(t, "split_settled", got.Event)
	assert.Equal(t, "W1", got.Payload["wallet_id"])
}

func TestWebhookNotifier_FailuresAreSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	n := NewWebhookNotifier(srv.URL)
	assert.NotPanics(t, func() {
		n.Notify(context.Background(), "P1", "participant_paid", nil)
	})

	srv.Close()
	assert.NotPanics(t, func() {
		n.Notify(context.Background(), "P1", "participant_paid", nil)
	})
}
