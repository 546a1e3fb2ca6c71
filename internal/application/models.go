package application

import (
	"github.com/example/event-publisher/internal/event"
)

// PublishPolicy controls how the orchestrator reacts to conflicts.
type PublishPolicy struct {
	// IgnoreResolvableConflicts forces the publish past calendar overlaps.
	// It never overrides a video-conferencing conflict.
	IgnoreResolvableConflicts bool
	// CheckOnly stops before any commit step; a clean evaluation yields the
	// NoConflicts outcome with zero side effects.
	CheckOnly bool
}

// CreateDelegatedRequestParams wraps the data required to submit a delegated
// event request.
type CreateDelegatedRequestParams struct {
	Event       event.Info
	OwnerID     string
	RequesterID string
}

// ApproveDelegatedRequestParams wraps the data required to approve a
// delegated request.
type ApproveDelegatedRequestParams struct {
	RequestID  string
	ApproverID string
	Policy     PublishPolicy
}

// DenyDelegatedRequestParams wraps the data required to deny a delegated
// request.
type DenyDelegatedRequestParams struct {
	RequestID  string
	ApproverID string
	Reason     string
}

// DefaultApprovalReason is recorded when an authorizer approves a request
// without supplying their own reason.
const DefaultApprovalReason = "Created by approved authorizer"
