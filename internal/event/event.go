package event

import (
	"time"
)

// Info is the immutable description of an event to publish. Start and End
// must carry an explicit zone offset; callers constructing Info from wire
// input should parse timestamps as RFC 3339 so offset-less values are
// rejected before they reach the core.
type Info struct {
	Title         string
	Description   string
	Instructions  string
	Start         time.Time
	End           time.Time
	LocationName  string
	StreetAddress string
	City          string
	Region        string
	PostalCode    string
	Country       string
}

// DefaultCountry is applied when callers leave Info.Country empty.
const DefaultCountry = "US"

// Window returns the time window covered by the event.
func (i Info) Window() TimeWindow {
	return TimeWindow{Start: i.Start, End: i.End}
}

// LocationLine renders the single-line postal address used for calendar
// entries.
func (i Info) LocationLine() string {
	return i.StreetAddress + ", " + i.City + ", " + i.Region + " " + i.PostalCode
}

// Validate reports field level problems with the event description. A zero
// Start or End is the Go analogue of an offset-naive timestamp: it means the
// caller never supplied a real instant.
func (i Info) Validate() map[string]string {
	problems := make(map[string]string)
	if i.Title == "" {
		problems["title"] = "title is required"
	}
	if i.Start.IsZero() {
		problems["start"] = "start must be an instant with an explicit zone offset"
	}
	if i.End.IsZero() {
		problems["end"] = "end must be an instant with an explicit zone offset"
	}
	if !i.Start.IsZero() && !i.End.IsZero() && !i.End.After(i.Start) {
		problems["time"] = "end must be after start"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Duration returns the window length.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps reports whether the two windows intersect.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Booking is an existing reservation reported by a collaborator.
type Booking struct {
	Title string
	Start time.Time
	End   time.Time
}

// Window returns the time window occupied by the booking.
func (b Booking) Window() TimeWindow {
	return TimeWindow{Start: b.Start, End: b.End}
}
