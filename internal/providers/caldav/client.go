// Package caldav implements the calendaring collaborator against a shared
// calendar exposed as an ICS feed for reads and a CalDAV collection for
// writes.
package caldav

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/example/event-publisher/internal/event"
)

// occurrenceCap bounds RRULE expansion for a single VEVENT so a
// pathological rule cannot stall a conflict check.
const occurrenceCap = 1000

// Config wires endpoints and credentials for the client.
type Config struct {
	// FeedURL serves the whole calendar as one ICS document.
	FeedURL string
	// CollectionURL is the CalDAV collection new events are PUT into.
	CollectionURL string
	Username      string
	Password      string
	HTTPClient    *http.Client
	// IDGenerator supplies UIDs for created events.
	IDGenerator func() string
}

// Client reads busy windows from the feed and writes new events to the
// collection. Reads always hit the feed; nothing is cached between calls.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// FindConflicts fetches the feed and returns every occurrence, recurring
// ones expanded, that overlaps the window.
func (c *Client) FindConflicts(ctx context.Context, window event.TimeWindow) ([]event.Booking, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("caldav: build feed request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("caldav: fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caldav: fetch feed: status %d", resp.StatusCode)
	}

	cal, err := ical.ParseCalendar(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("caldav: parse feed: %w", err)
	}

	var conflicts []event.Booking
	for _, ve := range cal.Events() {
		bookings, err := expandWithin(ve, window)
		if err != nil {
			return nil, fmt.Errorf("caldav: expand event: %w", err)
		}
		conflicts = append(conflicts, bookings...)
	}
	return conflicts, nil
}

// CreateEvent serializes the event as a single-VEVENT calendar, PUTs it into
// the collection under a fresh UID and returns the resource URL.
func (c *Client) CreateEvent(ctx context.Context, info event.Info) (string, error) {
	uid := c.cfg.IDGenerator()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//event-publisher//EN")

	ve := cal.AddEvent(uid)
	ve.SetDtStampTime(time.Now().UTC())
	ve.SetStartAt(info.Start.UTC())
	ve.SetEndAt(info.End.UTC())
	ve.SetSummary(info.Title)
	ve.SetDescription(info.Description)
	if line := info.LocationLine(); line != "" {
		ve.SetLocation(line)
	}

	resourceURL := strings.TrimSuffix(c.cfg.CollectionURL, "/") + "/" + uid + ".ics"

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, resourceURL, strings.NewReader(cal.Serialize()))
	if err != nil {
		return "", fmt.Errorf("caldav: build put request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")
	// Reject silent overwrite of an existing resource.
	req.Header.Set("If-None-Match", "*")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("caldav: put event: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return "", fmt.Errorf("caldav: put event: status %d", resp.StatusCode)
	}
	return resourceURL, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
}

// expandWithin returns the occurrences of a VEVENT that overlap the window.
// Non-recurring events yield at most one entry; RRULE events are expanded
// with their DTSTART anchoring the rule.
func expandWithin(ve *ical.VEvent, window event.TimeWindow) ([]event.Booking, error) {
	start, err := ve.GetStartAt()
	if err != nil {
		return nil, err
	}
	end, err := ve.GetEndAt()
	if err != nil {
		// Events without DTEND are treated as one hour long.
		end = start.Add(time.Hour)
	}

	title := ""
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		title = p.Value
	}

	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	if rruleProp == nil {
		booking := event.Booking{Title: title, Start: start, End: end}
		if booking.Window().Overlaps(window) {
			return []event.Booking{booking}, nil
		}
		return nil, nil
	}

	rule, err := rrule.StrToRRule(rruleProp.Value)
	if err != nil {
		return nil, fmt.Errorf("parse RRULE %q: %w", rruleProp.Value, err)
	}
	rule.DTStart(start)

	var set rrule.Set
	set.RRule(rule)

	duration := end.Sub(start)

	// Widen the query by the event duration so occurrences that started
	// before the window but run into it are still found.
	occStarts := set.Between(window.Start.Add(-duration).In(start.Location()), window.End.In(start.Location()), true)
	if len(occStarts) > occurrenceCap {
		occStarts = occStarts[:occurrenceCap]
	}

	var out []event.Booking
	for _, occStart := range occStarts {
		booking := event.Booking{Title: title, Start: occStart, End: occStart.Add(duration)}
		if booking.Window().Overlaps(window) {
			out = append(out, booking)
		}
	}
	return out, nil
}
