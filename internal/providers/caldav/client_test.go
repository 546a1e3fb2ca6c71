package caldav

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/event-publisher/internal/event"
)

const feedFixture = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:single-1
DTSTAMP:20240601T000000Z
DTSTART:20240612T230000Z
DTEND:20240613T000000Z
SUMMARY:Board meeting
END:VEVENT
BEGIN:VEVENT
UID:single-2
DTSTAMP:20240601T000000Z
DTSTART:20240610T230000Z
DTEND:20240611T000000Z
SUMMARY:Last week
END:VEVENT
BEGIN:VEVENT
UID:weekly-1
DTSTAMP:20240601T000000Z
DTSTART:20240522T233000Z
DTEND:20240523T003000Z
RRULE:FREQ=WEEKLY;BYDAY=WE
SUMMARY:Weekly standup
END:VEVENT
END:VCALENDAR
`

func newFeedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "cal-user" || pass != "cal-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "text/calendar")
			w.Write([]byte(body))
		case http.MethodPut:
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	return NewClient(Config{
		FeedURL:       server.URL + "/calendar.ics",
		CollectionURL: server.URL + "/collection/",
		Username:      "cal-user",
		Password:      "cal-pass",
		HTTPClient:    server.Client(),
		IDGenerator:   func() string { return "uid-42" },
	})
}

func TestFindConflictsExpandsRecurrences(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, newFeedServer(t, feedFixture))

	// 2024-06-12 is a Wednesday, so the weekly standup has an occurrence
	// at 23:30Z that night alongside the one-off board meeting.
	window := event.TimeWindow{
		Start: time.Date(2024, time.June, 12, 23, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.June, 13, 1, 0, 0, 0, time.UTC),
	}

	got, err := client.FindConflicts(context.Background(), window)
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("conflicts = %+v, want 2 entries", got)
	}

	byTitle := map[string]event.Booking{}
	for _, b := range got {
		byTitle[b.Title] = b
	}
	if _, ok := byTitle["Board meeting"]; !ok {
		t.Fatal("missing one-off conflict")
	}
	standup, ok := byTitle["Weekly standup"]
	if !ok {
		t.Fatal("missing recurring conflict")
	}
	wantStart := time.Date(2024, time.June, 12, 23, 30, 0, 0, time.UTC)
	if !standup.Start.Equal(wantStart) {
		t.Fatalf("standup occurrence start = %v, want %v", standup.Start, wantStart)
	}
	if got := standup.End.Sub(standup.Start); got != time.Hour {
		t.Fatalf("standup occurrence duration = %v, want 1h", got)
	}
}

func TestFindConflictsEmptyWindow(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, newFeedServer(t, feedFixture))

	// A Monday afternoon with no one-offs and no weekly occurrence.
	window := event.TimeWindow{
		Start: time.Date(2024, time.June, 17, 15, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.June, 17, 16, 0, 0, 0, time.UTC),
	}

	got, err := client.FindConflicts(context.Background(), window)
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("conflicts = %+v, want none", got)
	}
}

func TestCreateEventPutsCalendarResource(t *testing.T) {
	t.Parallel()

	var gotPath, gotBody, gotIfNoneMatch string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gotPath = r.URL.Path
		gotIfNoneMatch = r.Header.Get("If-None-Match")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{
		FeedURL:       server.URL + "/calendar.ics",
		CollectionURL: server.URL + "/collection/",
		HTTPClient:    server.Client(),
		IDGenerator:   func() string { return "uid-42" },
	})

	info := event.Info{
		Title:         "Community Town Hall",
		Description:   "RSVP: https://example.org/share \n\n Open to all.",
		Start:         time.Date(2024, time.June, 12, 18, 0, 0, 0, time.UTC),
		End:           time.Date(2024, time.June, 12, 19, 0, 0, 0, time.UTC),
		LocationName:  "Civic Hall",
		StreetAddress: "1 Main St",
		City:          "Springfield",
		Region:        "IL",
		PostalCode:    "62701",
		Country:       "US",
	}

	url, err := client.CreateEvent(context.Background(), info)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if url != server.URL+"/collection/uid-42.ics" {
		t.Fatalf("resource URL = %q", url)
	}
	if gotPath != "/collection/uid-42.ics" {
		t.Fatalf("PUT path = %q", gotPath)
	}
	if gotIfNoneMatch != "*" {
		t.Fatalf("If-None-Match = %q, want *", gotIfNoneMatch)
	}
	for _, want := range []string{"BEGIN:VEVENT", "UID:uid-42", "SUMMARY:Community Town Hall", "DTSTART:20240612T180000Z"} {
		if !strings.Contains(gotBody, want) {
			t.Fatalf("serialized calendar missing %q:\n%s", want, gotBody)
		}
	}
}

func TestCreateEventSurfacesServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{
		CollectionURL: server.URL + "/collection/",
		HTTPClient:    server.Client(),
		IDGenerator:   func() string { return "uid-42" },
	})

	info := event.Info{
		Title: "Dup",
		Start: time.Date(2024, time.June, 12, 18, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.June, 12, 19, 0, 0, 0, time.UTC),
	}
	if _, err := client.CreateEvent(context.Background(), info); err == nil {
		t.Fatal("expected error for non-created status")
	} else if !strings.Contains(err.Error(), "status 412") {
		t.Fatalf("error = %v, want status detail", err)
	}
}
