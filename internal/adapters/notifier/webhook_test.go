package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taskmaster/routine/internal/ports"
)

func TestWebhookNotifierPostsJSON(t *testing.T) {
	var got ports.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	want := ports.Notification{TaskID: "t1", Title: "Standup", Body: "starts in 5 minutes", Boundary: ports.BoundaryStart}
	if err := n.Notify(context.Background(), want); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got.TaskID != want.TaskID || got.Title != want.Title || got.Boundary != want.Boundary {
		t.Fatalf("received %+v", got)
	}
}

func TestWebhookNotifierRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	if err := n.Notify(context.Background(), ports.Notification{TaskID: "t1"}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}
