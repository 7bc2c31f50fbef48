// Package notify delivers push notifications to players. Delivery is
// best-effort: senders report acknowledgment and the caller only marks a
// notification as sent when that report is positive, so failed sends are
// retried on the next status sweep.
package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MarkusShepherd/diris-server/internal/logger"
)

// WebhookSender POSTs notification payloads to a configured endpoint,
// typically a relay in front of the mobile push service.
type WebhookSender struct {
	URL    string
	Client *http.Client
}

func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type payload struct {
	Players []uint            `json:"player_ids"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}

func (s *WebhookSender) Send(players []uint, title, message string, data map[string]string) bool {
	if s.URL == "" || len(players) == 0 {
		return false
	}
	body, err := json.Marshal(payload{
		Players: players,
		Title:   title,
		Message: message,
		Data:    data,
	})
	if err != nil {
		return false
	}
	resp, err := s.Client.Post(s.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Log.Warnw("notification send failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Log.Warnw("notification rejected", "status", resp.StatusCode)
		return false
	}
	return true
}

// LogSender acknowledges every notification and only logs it. Used when no
// webhook is configured and in tests.
type LogSender struct{}

func (LogSender) Send(players []uint, title, message string, data map[string]string) bool {
	logger.Log.Infow("notification", "players", players, "title", title, "message", message)
	return true
}
