package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/example/event-publisher/internal/event"
	"github.com/example/event-publisher/internal/persistence"
)

// Publisher is the orchestration capability the delegated workflow wraps.
type Publisher interface {
	Publish(ctx context.Context, info event.Info, policy PublishPolicy) event.PublishOutcome
}

// Notifier delivers best-effort notifications to owner authorizers. Send
// failures are logged and swallowed; they never block or fail a workflow
// call.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// DelegationService runs the delegated event approval state machine:
// Requested is the initial state, Approved and Denied are terminal, and
// every transition is gated on the owner's authorizer set and active flag
// before any external call is made.
type DelegationService struct {
	publisher   Publisher
	owners      persistence.EventOwnerRepository
	requests    persistence.DelegatedEventRequestRepository
	posted      persistence.PostedEventRepository
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewDelegationService wires dependencies for the delegated workflow.
func NewDelegationService(publisher Publisher, owners persistence.EventOwnerRepository, requests persistence.DelegatedEventRequestRepository, posted persistence.PostedEventRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *DelegationService {
	return NewDelegationServiceWithLogger(publisher, owners, requests, posted, notifier, idGenerator, now, nil)
}

// NewDelegationServiceWithLogger wires dependencies plus a base logger.
func NewDelegationServiceWithLogger(publisher Publisher, owners persistence.EventOwnerRepository, requests persistence.DelegatedEventRequestRepository, posted persistence.PostedEventRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DelegationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DelegationService{
		publisher:   publisher,
		owners:      owners,
		requests:    requests,
		posted:      posted,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateDelegatedRequest runs the conflict pre-check for a candidate event
// and, when nothing blocks it, persists a new request in the Requested state
// and notifies every owner authorizer. On a conflict outcome nothing is
// persisted; the outcome is handed back for the requester to see with a zero
// request.
func (s *DelegationService) CreateDelegatedRequest(ctx context.Context, params CreateDelegatedRequestParams) (persistence.DelegatedEventRequest, event.PublishOutcome, error) {
	logger := serviceLogger(ctx, s.logger, "delegation", "create_request", "owner_id", params.OwnerID)

	vErr := &ValidationError{}
	if params.RequesterID == "" {
		vErr.add("requester_id", "requester is required")
	}
	if params.OwnerID == "" {
		vErr.add("owner_id", "owner is required")
	}
	if vErr.HasErrors() {
		return persistence.DelegatedEventRequest{}, event.PublishOutcome{}, vErr
	}

	owner, err := s.loadActiveOwner(ctx, params.OwnerID)
	if err != nil {
		logger.Warn("delegated request rejected", "error_kind", ErrorKind(err))
		return persistence.DelegatedEventRequest{}, event.PublishOutcome{}, err
	}

	outcome := s.publisher.Publish(ctx, params.Event, PublishPolicy{CheckOnly: true})
	if outcome.Kind != event.OutcomeNoConflicts {
		logger.Info("pre-check blocked delegated request", "outcome", string(outcome.Kind))
		return persistence.DelegatedEventRequest{}, outcome, nil
	}

	request := persistence.DelegatedEventRequest{
		ID:          s.idGenerator(),
		Event:       snapshotFromInfo(params.Event),
		OwnerID:     owner.ID,
		RequesterID: params.RequesterID,
		State:       persistence.DelegatedRequestRequested,
		CreatedAt:   s.now(),
	}
	if err := s.requests.CreateDelegatedEventRequest(ctx, request); err != nil {
		logger.Error("failed to persist delegated request", "error", err)
		return persistence.DelegatedEventRequest{}, event.PublishOutcome{}, fmt.Errorf("persist delegated request: %w", err)
	}

	s.notifyAuthorizers(ctx, logger, owner, request)

	logger.Info("delegated request created", "request_id", request.ID)
	return request, outcome, nil
}

// ApproveDelegatedRequest re-runs the full publish for a pending request.
// Conflicts may have appeared since creation, so the evaluation is repeated
// with the approver's override policy. Only a Published outcome transitions
// the request; on a conflict outcome the request stays Requested and the
// conflict is surfaced for the approver to decide.
func (s *DelegationService) ApproveDelegatedRequest(ctx context.Context, params ApproveDelegatedRequestParams) (event.PublishOutcome, error) {
	logger := serviceLogger(ctx, s.logger, "delegation", "approve_request", "request_id", params.RequestID)

	request, owner, err := s.loadPendingRequest(ctx, params.RequestID, params.ApproverID)
	if err != nil {
		logger.Warn("approval rejected", "error_kind", ErrorKind(err))
		return event.PublishOutcome{}, err
	}

	policy := params.Policy
	policy.CheckOnly = false
	outcome := s.publisher.Publish(ctx, infoFromSnapshot(request.Event), policy)
	if !outcome.Published() {
		logger.Info("approval publish did not complete", "outcome", string(outcome.Kind))
		return outcome, nil
	}

	resolvedAt := s.now()
	request.State = persistence.DelegatedRequestApproved
	request.Reason = DefaultApprovalReason
	request.ResolvedBy = params.ApproverID
	request.ResolvedAt = &resolvedAt
	if err := s.requests.UpdateDelegatedEventRequest(ctx, request); err != nil {
		logger.Error("event published but request transition failed", "error", err)
		return outcome, fmt.Errorf("record approval: %w", err)
	}

	posted := persistence.PostedEvent{
		ID:                s.idGenerator(),
		Event:             request.Event,
		VideoJoinURL:      outcome.Links.VideoJoinURL,
		VideoAccount:      outcome.Links.VideoAccount,
		AdvocacyManageURL: outcome.Links.AdvocacyManageURL,
		AdvocacyShareURL:  outcome.Links.AdvocacyShareURL,
		CalendarURL:       outcome.Links.CalendarURL,
		CreatorID:         request.RequesterID,
		ApproverID:        params.ApproverID,
		OwnerID:           owner.ID,
		ApprovalReason:    DefaultApprovalReason,
		CreatedAt:         request.CreatedAt,
		PublishedAt:       resolvedAt,
	}
	if err := s.posted.CreatePostedEvent(ctx, posted); err != nil {
		logger.Error("event published but posted record failed", "error", err)
		return outcome, fmt.Errorf("record posted event: %w", err)
	}

	logger.Info("delegated request approved", "approver_id", params.ApproverID)
	return outcome, nil
}

// DenyDelegatedRequest transitions a pending request to Denied. No external
// side effects are taken. A request already in a terminal state is left
// untouched and the attempt is rejected, so repeating a denial cannot alter
// the first resolution.
func (s *DelegationService) DenyDelegatedRequest(ctx context.Context, params DenyDelegatedRequestParams) error {
	logger := serviceLogger(ctx, s.logger, "delegation", "deny_request", "request_id", params.RequestID)

	request, _, err := s.loadPendingRequest(ctx, params.RequestID, params.ApproverID)
	if err != nil {
		logger.Warn("denial rejected", "error_kind", ErrorKind(err))
		return err
	}

	resolvedAt := s.now()
	request.State = persistence.DelegatedRequestDenied
	request.Reason = params.Reason
	request.ResolvedBy = params.ApproverID
	request.ResolvedAt = &resolvedAt
	if err := s.requests.UpdateDelegatedEventRequest(ctx, request); err != nil {
		logger.Error("failed to record denial", "error", err)
		return fmt.Errorf("record denial: %w", err)
	}

	logger.Info("delegated request denied", "approver_id", params.ApproverID)
	return nil
}

// GetDelegatedRequest returns a request by ID for presentation.
func (s *DelegationService) GetDelegatedRequest(ctx context.Context, id string) (persistence.DelegatedEventRequest, error) {
	request, err := s.requests.GetDelegatedEventRequest(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.DelegatedEventRequest{}, ErrNotFound
		}
		return persistence.DelegatedEventRequest{}, fmt.Errorf("load delegated request: %w", err)
	}
	return request, nil
}

// loadPendingRequest loads the request and enforces every precondition for
// a state transition: the request exists and is still Requested, its owner
// is active and the actor is in the owner's authorizer set. Nothing is
// mutated when any check fails.
func (s *DelegationService) loadPendingRequest(ctx context.Context, requestID, actorID string) (persistence.DelegatedEventRequest, persistence.EventOwner, error) {
	request, err := s.requests.GetDelegatedEventRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.DelegatedEventRequest{}, persistence.EventOwner{}, ErrNotFound
		}
		return persistence.DelegatedEventRequest{}, persistence.EventOwner{}, fmt.Errorf("load delegated request: %w", err)
	}

	owner, err := s.loadActiveOwner(ctx, request.OwnerID)
	if err != nil {
		return persistence.DelegatedEventRequest{}, persistence.EventOwner{}, err
	}

	if !slices.Contains(owner.AuthorizerIDs, actorID) {
		return persistence.DelegatedEventRequest{}, persistence.EventOwner{}, ErrUnauthorized
	}

	if request.State.Terminal() {
		return persistence.DelegatedEventRequest{}, persistence.EventOwner{}, ErrRequestResolved
	}

	return request, owner, nil
}

func (s *DelegationService) loadActiveOwner(ctx context.Context, ownerID string) (persistence.EventOwner, error) {
	owner, err := s.owners.GetEventOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.EventOwner{}, ErrNotFound
		}
		return persistence.EventOwner{}, fmt.Errorf("load event owner: %w", err)
	}
	if !owner.IsActive {
		return persistence.EventOwner{}, ErrOwnerInactive
	}
	return owner, nil
}

func (s *DelegationService) notifyAuthorizers(ctx context.Context, logger *slog.Logger, owner persistence.EventOwner, request persistence.DelegatedEventRequest) {
	if s.notifier == nil {
		return
	}

	subject := fmt.Sprintf("New event request for %s: %s", owner.Name, request.Event.Title)
	body := fmt.Sprintf(
		"%s requested %q from %s to %s.\n\nReview the request to approve or deny it.",
		request.RequesterID,
		request.Event.Title,
		request.Event.Start.Format(time.RFC1123),
		request.Event.End.Format(time.RFC1123),
	)
	for _, authorizer := range owner.AuthorizerIDs {
		if err := s.notifier.Send(ctx, authorizer, subject, body); err != nil {
			logger.Warn("authorizer notification failed", "authorizer", authorizer, "error", err)
		}
	}
}

func snapshotFromInfo(info event.Info) persistence.EventSnapshot {
	country := info.Country
	if country == "" {
		country = event.DefaultCountry
	}
	return persistence.EventSnapshot{
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
		Country:       country,
	}
}

func infoFromSnapshot(snapshot persistence.EventSnapshot) event.Info {
	return event.Info{
		Title:         snapshot.Title,
		Description:   snapshot.Description,
		Instructions:  snapshot.Instructions,
		Start:         snapshot.Start,
		End:           snapshot.End,
		LocationName:  snapshot.LocationName,
		StreetAddress: snapshot.StreetAddress,
		City:          snapshot.City,
		Region:        snapshot.Region,
		PostalCode:    snapshot.PostalCode,
		Country:       snapshot.Country,
	}
}
