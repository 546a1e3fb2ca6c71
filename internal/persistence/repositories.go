package persistence

import "context"

// EventOwnerRepository exposes CRUD operations for event owners.
type EventOwnerRepository interface {
	CreateEventOwner(ctx context.Context, owner EventOwner) error
	UpdateEventOwner(ctx context.Context, owner EventOwner) error
	GetEventOwner(ctx context.Context, id string) (EventOwner, error)
	ListEventOwners(ctx context.Context) ([]EventOwner, error)
	DeleteEventOwner(ctx context.Context, id string) error
}

// DelegatedEventRequestRepository stores delegated requests and their state
// transitions.
type DelegatedEventRequestRepository interface {
	CreateDelegatedEventRequest(ctx context.Context, request DelegatedEventRequest) error
	UpdateDelegatedEventRequest(ctx context.Context, request DelegatedEventRequest) error
	GetDelegatedEventRequest(ctx context.Context, id string) (DelegatedEventRequest, error)
	ListDelegatedEventRequestsForOwner(ctx context.Context, ownerID string) ([]DelegatedEventRequest, error)
}

// PostedEventRepository appends records of successful publishes. Posted
// events are never updated or deleted by the application.
type PostedEventRepository interface {
	CreatePostedEvent(ctx context.Context, posted PostedEvent) error
	GetPostedEvent(ctx context.Context, id string) (PostedEvent, error)
	ListPostedEvents(ctx context.Context) ([]PostedEvent, error)
}
