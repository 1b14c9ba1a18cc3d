package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestGatewayNotifierPostsPayload(t *testing.T) {
	var got Notification
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/push" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewGateway(srv.URL, "secret", zerolog.Nop())
	err := n.Notify(context.Background(), Notification{
		Type:        "invitation",
		SenderID:    "alice",
		RecipientID: "bob",
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got.Type != "invitation" || got.SenderID != "alice" || got.RecipientID != "bob" {
		t.Fatalf("payload mismatch: %+v", got)
	}
	if auth != "Bearer secret" {
		t.Fatalf("auth header = %q", auth)
	}
}

func TestGatewayNotifierReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewGateway(srv.URL, "", zerolog.Nop())
	if err := n.Notify(context.Background(), Notification{Type: "friend_request"}); err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestNoopNotifier(t *testing.T) {
	if err := (NoopNotifier{}).Notify(context.Background(), Notification{}); err != nil {
		t.Fatalf("noop: %v", err)
	}
}
