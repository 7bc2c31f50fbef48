package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookSenderDelivers(t *testing.T) {
	var received payload
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(backend.Close)

	sender := NewWebhookSender(backend.URL)
	ok := sender.Send([]uint{1, 2}, "Tell your story!", "A new round has started", map[string]string{
		"match": "42",
	})
	if !ok {
		t.Fatal("expected acknowledged send")
	}
	if len(received.Players) != 2 || received.Title != "Tell your story!" {
		t.Fatalf("unexpected payload: %+v", received)
	}
	if received.Data["match"] != "42" {
		t.Fatalf("expected match data, got %v", received.Data)
	}
}

func TestWebhookSenderRejection(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(backend.Close)

	sender := NewWebhookSender(backend.URL)
	if sender.Send([]uint{1}, "title", "message", nil) {
		t.Fatal("expected unacknowledged send on 5xx")
	}
}

func TestWebhookSenderNoURL(t *testing.T) {
	sender := NewWebhookSender("")
	if sender.Send([]uint{1}, "title", "message", nil) {
		t.Fatal("expected unacknowledged send without URL")
	}
}

func TestWebhookSenderNoRecipients(t *testing.T) {
	sender := NewWebhookSender("http://localhost:0")
	if sender.Send(nil, "title", "message", nil) {
		t.Fatal("expected unacknowledged send without recipients")
	}
}

func TestLogSenderAcknowledges(t *testing.T) {
	if !(LogSender{}).Send([]uint{1}, "title", "message", nil) {
		t.Fatal("expected log sender to acknowledge")
	}
}
