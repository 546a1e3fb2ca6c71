package persistence

import "time"

// EventOwner is the entity on whose behalf delegated events are requested.
// Owners are created and deactivated administratively; the publish workflows
// only read them.
type EventOwner struct {
	ID            string
	Name          string
	AuthorizerIDs []string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DelegatedRequestState enumerates the delegated request lifecycle.
type DelegatedRequestState string

const (
	// DelegatedRequestRequested is the initial state.
	DelegatedRequestRequested DelegatedRequestState = "requested"
	// DelegatedRequestApproved is terminal; the event was published.
	DelegatedRequestApproved DelegatedRequestState = "approved"
	// DelegatedRequestDenied is terminal; no external side effects occurred.
	DelegatedRequestDenied DelegatedRequestState = "denied"
)

// Terminal reports whether no further transition is allowed.
func (s DelegatedRequestState) Terminal() bool {
	return s == DelegatedRequestApproved || s == DelegatedRequestDenied
}

// EventSnapshot flattens the candidate event fields stored with durable
// records.
type EventSnapshot struct {
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

// DelegatedEventRequest is a pending or resolved request to publish an event
// on behalf of an owner.
type DelegatedEventRequest struct {
	ID          string
	Event       EventSnapshot
	OwnerID     string
	RequesterID string
	State       DelegatedRequestState
	Reason      string
	ResolvedBy  string
	ResolvedAt  *time.Time
	CreatedAt   time.Time
}

// PostedEvent is the append-only record of a successful publish.
type PostedEvent struct {
	ID                string
	Event             EventSnapshot
	VideoJoinURL      string
	VideoAccount      string
	AdvocacyManageURL string
	AdvocacyShareURL  string
	CalendarURL       string
	CreatorID         string
	ApproverID        string
	OwnerID           string
	ApprovalReason    string
	CreatedAt         time.Time
	PublishedAt       time.Time
}
