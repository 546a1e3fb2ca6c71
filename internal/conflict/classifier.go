package conflict

import (
	"context"
	"fmt"

	"github.com/example/event-publisher/internal/event"
)

// AccountBookings pairs one video-conferencing sub-account with its bookings
// that intersect the queried window.
type AccountBookings struct {
	Account  string
	Bookings []event.Booking
}

// VideoAvailability exposes the video-conferencing lookups the classifier
// needs.
type VideoAvailability interface {
	ListAvailability(ctx context.Context, window event.TimeWindow) ([]AccountBookings, error)
}

// CalendarSource exposes the calendar lookup the classifier needs.
type CalendarSource interface {
	FindConflicts(ctx context.Context, window event.TimeWindow) ([]event.Booking, error)
}

// Result captures one classification pass over both collaborators.
type Result struct {
	// AvailableAccount is the first video sub-account with no intersecting
	// bookings; empty when every account is busy.
	AvailableAccount string
	// VideoConflicts lists every intersecting booking across all
	// sub-accounts. Populated only when AvailableAccount is empty.
	VideoConflicts []event.Conflict
	// CalendarConflicts lists intersecting calendar entries, regardless of
	// video availability.
	CalendarConflicts []event.Conflict
}

// Blocking reports whether the result prevents an un-overridden publish.
func (r Result) Blocking() bool {
	return r.AvailableAccount == "" || len(r.CalendarConflicts) > 0
}

// Classifier labels overlapping bookings for a proposed window by severity.
// Video-conferencing overlaps are unresolvable: the account pool is finite
// and a double-booking cannot be overridden. Calendar overlaps are
// informational and may be overridden by caller policy.
type Classifier struct {
	video    VideoAvailability
	calendar CalendarSource
}

// NewClassifier wires the collaborators consulted during classification.
func NewClassifier(video VideoAvailability, calendar CalendarSource) *Classifier {
	return &Classifier{video: video, calendar: calendar}
}

// Detect queries both collaborators for the window. The first sub-account
// with zero intersecting bookings wins, in the collaborator's enumeration
// order; bookings collected from earlier busy accounts are discarded once a
// free account is found. The calendar is consulted independently of the
// video outcome. A collaborator failure is returned as an error; the caller
// converts it to an outcome.
func (c *Classifier) Detect(ctx context.Context, window event.TimeWindow) (Result, error) {
	if c == nil || c.video == nil || c.calendar == nil {
		return Result{}, fmt.Errorf("conflict: classifier collaborators not configured")
	}

	availability, err := c.video.ListAvailability(ctx, window)
	if err != nil {
		return Result{}, fmt.Errorf("conflict: video availability lookup: %w", err)
	}

	var result Result
	var videoConflicts []event.Conflict
	for _, entry := range availability {
		intersecting := intersectingBookings(entry.Bookings, window)
		if len(intersecting) == 0 {
			result.AvailableAccount = entry.Account
			videoConflicts = nil
			break
		}
		for _, b := range intersecting {
			videoConflicts = append(videoConflicts, event.Conflict{
				Kind:         event.ConflictKindVideoConferencing,
				Title:        b.Title,
				Start:        b.Start,
				End:          b.End,
				VideoAccount: entry.Account,
			})
		}
	}
	result.VideoConflicts = videoConflicts

	calendarBookings, err := c.calendar.FindConflicts(ctx, window)
	if err != nil {
		return Result{}, fmt.Errorf("conflict: calendar conflict lookup: %w", err)
	}
	for _, b := range intersectingBookings(calendarBookings, window) {
		result.CalendarConflicts = append(result.CalendarConflicts, event.Conflict{
			Kind:  event.ConflictKindCalendar,
			Title: b.Title,
			Start: b.Start,
			End:   b.End,
		})
	}

	return result, nil
}

// intersectingBookings filters bookings down to those overlapping the
// window. Collaborators are expected to pre-filter, but the window check is
// re-applied so an over-broad listing cannot produce phantom conflicts.
func intersectingBookings(bookings []event.Booking, window event.TimeWindow) []event.Booking {
	var out []event.Booking
	for _, b := range bookings {
		if b.Window().Overlaps(window) {
			out = append(out, b)
		}
	}
	return out
}
