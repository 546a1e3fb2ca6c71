package conflict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/event-publisher/internal/event"
)

type videoStub struct {
	availability []AccountBookings
	err          error
	calls        int
}

func (v *videoStub) ListAvailability(ctx context.Context, window event.TimeWindow) ([]AccountBookings, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return v.availability, nil
}

type calendarStub struct {
	bookings []event.Booking
	err      error
	calls    int
}

func (c *calendarStub) FindConflicts(ctx context.Context, window event.TimeWindow) ([]event.Booking, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.bookings, nil
}

func mustCT(t *testing.T, hour int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("failed to load Central Time location: %v", err)
	}
	return time.Date(2024, 6, 12, hour, 0, 0, 0, loc)
}

func window(t *testing.T, startHour, endHour int) event.TimeWindow {
	t.Helper()
	return event.TimeWindow{Start: mustCT(t, startHour), End: mustCT(t, endHour)}
}

func TestDetect_FirstFreeAccountWins(t *testing.T) {
	t.Parallel()

	video := &videoStub{availability: []AccountBookings{
		{Account: "organizer-a@example.org", Bookings: []event.Booking{
			{Title: "Weekly sync", Start: mustCT(t, 10), End: mustCT(t, 11)},
		}},
		{Account: "organizer-b@example.org"},
		{Account: "organizer-c@example.org", Bookings: []event.Booking{
			{Title: "Training", Start: mustCT(t, 10), End: mustCT(t, 12)},
		}},
	}}
	calendar := &calendarStub{}

	result, err := NewClassifier(video, calendar).Detect(context.Background(), window(t, 10, 11))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}

	if result.AvailableAccount != "organizer-b@example.org" {
		t.Fatalf("expected organizer-b selected, got %q", result.AvailableAccount)
	}
	if len(result.VideoConflicts) != 0 {
		t.Fatalf("expected bookings from earlier accounts discarded, got %v", result.VideoConflicts)
	}
}

func TestDetect_AllAccountsBusy(t *testing.T) {
	t.Parallel()

	video := &videoStub{availability: []AccountBookings{
		{Account: "organizer-a@example.org", Bookings: []event.Booking{
			{Title: "Weekly sync", Start: mustCT(t, 10), End: mustCT(t, 11)},
		}},
		{Account: "organizer-b@example.org", Bookings: []event.Booking{
			{Title: "Training", Start: mustCT(t, 9), End: mustCT(t, 12)},
		}},
	}}
	calendar := &calendarStub{}

	result, err := NewClassifier(video, calendar).Detect(context.Background(), window(t, 10, 11))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}

	if result.AvailableAccount != "" {
		t.Fatalf("expected no available account, got %q", result.AvailableAccount)
	}
	if len(result.VideoConflicts) != 2 {
		t.Fatalf("expected 2 video conflicts, got %v", result.VideoConflicts)
	}
	for _, c := range result.VideoConflicts {
		if c.Kind != event.ConflictKindVideoConferencing {
			t.Fatalf("expected video kind, got %q", c.Kind)
		}
		if c.VideoAccount == "" {
			t.Fatalf("expected account identity on video conflict: %+v", c)
		}
		if c.Resolvable() {
			t.Fatalf("video conflict must be unresolvable: %+v", c)
		}
	}
}

func TestDetect_CalendarQueriedIndependently(t *testing.T) {
	t.Parallel()

	video := &videoStub{availability: []AccountBookings{
		{Account: "organizer-a@example.org"},
	}}
	calendar := &calendarStub{bookings: []event.Booking{
		{Title: "Phone bank", Start: mustCT(t, 10), End: mustCT(t, 12)},
		{Title: "Next week", Start: mustCT(t, 15), End: mustCT(t, 16)},
	}}

	result, err := NewClassifier(video, calendar).Detect(context.Background(), window(t, 10, 11))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}

	if calendar.calls != 1 {
		t.Fatalf("expected calendar queried once, got %d", calendar.calls)
	}
	if len(result.CalendarConflicts) != 1 {
		t.Fatalf("expected only the overlapping booking reported, got %v", result.CalendarConflicts)
	}
	got := result.CalendarConflicts[0]
	if got.Kind != event.ConflictKindCalendar || got.Title != "Phone bank" {
		t.Fatalf("unexpected calendar conflict: %+v", got)
	}
	if !got.Resolvable() {
		t.Fatalf("calendar conflict must be resolvable: %+v", got)
	}
	if !result.Blocking() {
		t.Fatal("calendar overlap should block an un-overridden publish")
	}
}

func TestDetect_CollaboratorErrors(t *testing.T) {
	t.Parallel()

	videoErr := errors.New("zoom api unavailable")
	_, err := NewClassifier(&videoStub{err: videoErr}, &calendarStub{}).Detect(context.Background(), window(t, 10, 11))
	if !errors.Is(err, videoErr) {
		t.Fatalf("expected video error wrapped, got %v", err)
	}

	calErr := errors.New("ics feed unavailable")
	video := &videoStub{availability: []AccountBookings{{Account: "organizer-a@example.org"}}}
	_, err = NewClassifier(video, &calendarStub{err: calErr}).Detect(context.Background(), window(t, 10, 11))
	if !errors.Is(err, calErr) {
		t.Fatalf("expected calendar error wrapped, got %v", err)
	}
}
