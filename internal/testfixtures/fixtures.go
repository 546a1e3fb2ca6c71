// Package testfixtures provides deterministic clocks, identifier generators
// and record builders shared by tests across the module.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/event-publisher/internal/event"
	"github.com/example/event-publisher/internal/persistence"
)

var (
	ownerCounter   uint64
	requestCounter uint64
	eventCounter   uint64
)

var referenceTime = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Event fixtures -----------------------------

// EventOption configures a generated event description.
type EventOption func(*event.Info)

// NewEventInfo returns a valid, deterministic event description. Each call
// shifts the window by a day so fixtures do not collide with each other.
func NewEventInfo(opts ...EventOption) event.Info {
	idx := atomic.AddUint64(&eventCounter, 1)
	start := referenceTime.AddDate(0, 0, int(idx)).Add(6 * time.Hour)

	info := event.Info{
		Title:         fmt.Sprintf("Community Event %03d", idx),
		Description:   "Open to all supporters.",
		Instructions:  "Doors open fifteen minutes early.",
		Start:         start,
		End:           start.Add(90 * time.Minute),
		LocationName:  "Civic Hall",
		StreetAddress: "1 Main St",
		City:          "Springfield",
		Region:        "IL",
		PostalCode:    "62701",
		Country:       "US",
	}
	for _, opt := range opts {
		opt(&info)
	}
	return info
}

// WithWindow overrides the event window.
func WithWindow(start, end time.Time) EventOption {
	return func(info *event.Info) {
		info.Start = start
		info.End = end
	}
}

// WithTitle overrides the event title.
func WithTitle(title string) EventOption {
	return func(info *event.Info) {
		info.Title = title
	}
}

// ----------------------------- Owner fixtures -----------------------------

// OwnerOption configures a generated owner record.
type OwnerOption func(*persistence.EventOwner)

// NewOwner returns a deterministic active owner with two authorizers.
func NewOwner(opts ...OwnerOption) persistence.EventOwner {
	idx := atomic.AddUint64(&ownerCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)

	owner := persistence.EventOwner{
		ID:   fmt.Sprintf("owner-%03d", idx),
		Name: fmt.Sprintf("Owner %03d", idx),
		AuthorizerIDs: []string{
			fmt.Sprintf("alex+%03d@example.org", idx),
			fmt.Sprintf("blake+%03d@example.org", idx),
		},
		IsActive:  true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&owner)
	}
	return owner
}

// WithAuthorizers overrides the owner's authorizer set.
func WithAuthorizers(ids ...string) OwnerOption {
	return func(owner *persistence.EventOwner) {
		owner.AuthorizerIDs = ids
	}
}

// Inactive marks the owner as not accepting requests.
func Inactive() OwnerOption {
	return func(owner *persistence.EventOwner) {
		owner.IsActive = false
	}
}

// ----------------------- Delegated request fixtures -----------------------

// RequestOption configures a generated delegated request record.
type RequestOption func(*persistence.DelegatedEventRequest)

// NewDelegatedRequest returns a deterministic pending request tied to the
// given owner.
func NewDelegatedRequest(owner persistence.EventOwner, opts ...RequestOption) persistence.DelegatedEventRequest {
	idx := atomic.AddUint64(&requestCounter, 1)
	info := NewEventInfo()

	request := persistence.DelegatedEventRequest{
		ID: fmt.Sprintf("request-%03d", idx),
		Event: persistence.EventSnapshot{
			Title:         info.Title,
			Description:   info.Description,
			Instructions:  info.Instructions,
			Start:         info.Start,
			End:           info.End,
			LocationName:  info.LocationName,
			StreetAddress: info.StreetAddress,
			City:          info.City,
			Region:        info.Region,
			PostalCode:    info.PostalCode,
			Country:       info.Country,
		},
		OwnerID:     owner.ID,
		RequesterID: fmt.Sprintf("requester+%03d@example.org", idx),
		State:       persistence.DelegatedRequestRequested,
		CreatedAt:   referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&request)
	}
	return request
}

// Resolved transitions the fixture to a terminal state.
func Resolved(state persistence.DelegatedRequestState, by, reason string, at time.Time) RequestOption {
	return func(request *persistence.DelegatedEventRequest) {
		request.State = state
		request.ResolvedBy = by
		request.Reason = reason
		request.ResolvedAt = &at
	}
}
