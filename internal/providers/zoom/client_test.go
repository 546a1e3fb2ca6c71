package zoom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/event-publisher/internal/event"
)

func newTestClient(t *testing.T, api http.Handler) (*Client, *int32) {
	t.Helper()

	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "account_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "token-abc", "expires_in": 3600})
	})
	mux.Handle("/", api)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		BaseURL:      server.URL,
		TokenURL:     server.URL + "/oauth/token",
		AccountID:    "acct-1",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		HTTPClient:   server.Client(),
	})
	return client, &tokenCalls
}

func requireBearer(t *testing.T, r *http.Request) {
	t.Helper()
	if got := r.Header.Get("Authorization"); got != "Bearer token-abc" {
		t.Fatalf("Authorization = %q, want bearer token", got)
	}
}

func TestListAvailabilityFiltersToWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.June, 12, 18, 0, 0, 0, time.UTC)
	window := event.TimeWindow{Start: start, End: start.Add(time.Hour)}

	api := http.NewServeMux()
	api.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		json.NewEncoder(w).Encode(map[string]any{"users": []map[string]any{
			{"id": "u1", "email": "room-a@example.org"},
			{"id": "u2", "email": "room-b@example.org"},
		}})
	})
	api.HandleFunc("GET /users/u1/meetings", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"meetings": []map[string]any{
			{"topic": "Overlapping", "start_time": start.Add(30 * time.Minute).Format(time.RFC3339), "duration": 60},
			{"topic": "Earlier today", "start_time": start.Add(-2 * time.Hour).Format(time.RFC3339), "duration": 30},
		}})
	})
	api.HandleFunc("GET /users/u2/meetings", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"meetings": []map[string]any{}})
	})

	client, _ := newTestClient(t, api)

	got, err := client.ListAvailability(context.Background(), window)
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("accounts = %d, want 2", len(got))
	}
	if got[0].Account != "room-a@example.org" || got[1].Account != "room-b@example.org" {
		t.Fatalf("account order = %q, %q", got[0].Account, got[1].Account)
	}
	if len(got[0].Bookings) != 1 || got[0].Bookings[0].Title != "Overlapping" {
		t.Fatalf("room-a bookings = %+v, want only the overlapping meeting", got[0].Bookings)
	}
	if len(got[1].Bookings) != 0 {
		t.Fatalf("room-b bookings = %+v, want none", got[1].Bookings)
	}
}

func TestCreateMeetingReturnsJoinURL(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.June, 12, 18, 0, 0, 0, time.UTC)
	window := event.TimeWindow{Start: start, End: start.Add(90 * time.Minute)}

	api := http.NewServeMux()
	api.HandleFunc("POST /users/room-a@example.org/meetings", func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		var body struct {
			Topic     string `json:"topic"`
			Type      int    `json:"type"`
			StartTime string `json:"start_time"`
			Duration  int    `json:"duration"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode create body: %v", err)
		}
		if body.Topic != "Community Town Hall" || body.Type != 2 {
			t.Fatalf("create body = %+v", body)
		}
		if body.StartTime != "2024-06-12T18:00:00Z" || body.Duration != 90 {
			t.Fatalf("schedule = %q / %d minutes", body.StartTime, body.Duration)
		}
		json.NewEncoder(w).Encode(map[string]any{"join_url": "https://video.example.org/j/123"})
	})

	client, _ := newTestClient(t, api)

	joinURL, err := client.CreateMeeting(context.Background(), "Community Town Hall", window, "room-a@example.org")
	if err != nil {
		t.Fatalf("CreateMeeting: %v", err)
	}
	if joinURL != "https://video.example.org/j/123" {
		t.Fatalf("join URL = %q", joinURL)
	}
}

func TestTokenIsCachedAcrossRequests(t *testing.T) {
	t.Parallel()

	api := http.NewServeMux()
	api.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"users": []map[string]any{}})
	})

	client, tokenCalls := newTestClient(t, api)

	window := event.TimeWindow{Start: time.Now(), End: time.Now().Add(time.Hour)}
	for i := 0; i < 3; i++ {
		if _, err := client.ListAvailability(context.Background(), window); err != nil {
			t.Fatalf("ListAvailability #%d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(tokenCalls); got != 1 {
		t.Fatalf("token fetches = %d, want 1", got)
	}
}

func TestAPIErrorIncludesStatusAndBody(t *testing.T) {
	t.Parallel()

	api := http.NewServeMux()
	api.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"rate limited"}`))
	})

	client, _ := newTestClient(t, api)

	window := event.TimeWindow{Start: time.Now(), End: time.Now().Add(time.Hour)}
	_, err := client.ListAvailability(context.Background(), window)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 429") || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("error = %v, want status and body detail", err)
	}
}
