package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/event-publisher/internal/application"
	"github.com/example/event-publisher/internal/event"
	"github.com/example/event-publisher/internal/persistence"
)

type delegationService interface {
	CreateDelegatedRequest(ctx context.Context, params application.CreateDelegatedRequestParams) (persistence.DelegatedEventRequest, event.PublishOutcome, error)
	ApproveDelegatedRequest(ctx context.Context, params application.ApproveDelegatedRequestParams) (event.PublishOutcome, error)
	DenyDelegatedRequest(ctx context.Context, params application.DenyDelegatedRequestParams) error
	GetDelegatedRequest(ctx context.Context, id string) (persistence.DelegatedEventRequest, error)
}

type DelegationHandler struct {
	service   delegationService
	responder responder
	logger    *slog.Logger
}

func NewDelegationHandler(service delegationService, logger *slog.Logger) *DelegationHandler {
	base := defaultLogger(logger)
	return &DelegationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DelegationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DelegationHandler", operation, attrs...)
}

func (h *DelegationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createDelegatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode delegated request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "owner_id", req.OwnerID, "requester_id", req.RequesterID)

	info, problems := req.Event.toInfo()
	if len(problems) > 0 {
		logger.ErrorContext(r.Context(), "delegated request rejected", "error_kind", "validation")
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request contains invalid fields",
			Errors:  problems,
		})
		return
	}

	request, outcome, err := h.service.CreateDelegatedRequest(r.Context(), application.CreateDelegatedRequestParams{
		Event:       info,
		OwnerID:     strings.TrimSpace(req.OwnerID),
		RequesterID: strings.TrimSpace(req.RequesterID),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "delegated request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if outcome.Kind != event.OutcomeNoConflicts {
		logger.With("outcome", string(outcome.Kind)).InfoContext(r.Context(), "delegated request blocked by pre-check")
		h.responder.writeJSON(r.Context(), w, statusForOutcome(outcome.Kind), outcomeResponse{Outcome: toOutcomeDTO(outcome)})
		return
	}

	logger.With("request_id", request.ID).InfoContext(r.Context(), "delegated request created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, delegatedRequestResponse{Request: toDelegatedRequestDTO(request)})
}

func (h *DelegationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := DelegatedRequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	logger := h.log(r.Context(), "Get", "request_id", requestID)

	request, err := h.service.GetDelegatedRequest(r.Context(), requestID)
	if err != nil {
		logger.ErrorContext(r.Context(), "delegated request lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, delegatedRequestResponse{Request: toDelegatedRequestDTO(request)})
}

func (h *DelegationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := DelegatedRequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Approve", "request_id", requestID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode approval", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Approve", "request_id", requestID, "approver_id", req.ApproverID)

	outcome, err := h.service.ApproveDelegatedRequest(r.Context(), application.ApproveDelegatedRequestParams{
		RequestID:  requestID,
		ApproverID: strings.TrimSpace(req.ApproverID),
		Policy: application.PublishPolicy{
			IgnoreResolvableConflicts: req.IgnoreResolvableConflicts,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "approval failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("outcome", string(outcome.Kind)).InfoContext(r.Context(), "approval evaluated")
	h.responder.writeJSON(r.Context(), w, statusForOutcome(outcome.Kind), outcomeResponse{Outcome: toOutcomeDTO(outcome)})
}

func (h *DelegationHandler) Deny(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := DelegatedRequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	var req denyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Deny", "request_id", requestID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode denial", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingDenyReason)
		return
	}

	logger := h.log(r.Context(), "Deny", "request_id", requestID, "approver_id", req.ApproverID)

	err := h.service.DenyDelegatedRequest(r.Context(), application.DenyDelegatedRequestParams{
		RequestID:  requestID,
		ApproverID: strings.TrimSpace(req.ApproverID),
		Reason:     strings.TrimSpace(req.Reason),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "denial failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "delegated request denied")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type createDelegatedRequest struct {
	Event       eventPayload `json:"event"`
	OwnerID     string       `json:"owner_id"`
	RequesterID string       `json:"requester_id"`
}

type approveRequest struct {
	ApproverID                string `json:"approver_id"`
	IgnoreResolvableConflicts bool   `json:"ignore_resolvable_conflicts"`
}

type denyRequest struct {
	ApproverID string `json:"approver_id"`
	Reason     string `json:"reason"`
}

type delegatedRequestResponse struct {
	Request delegatedRequestDTO `json:"request"`
}

type delegatedRequestDTO struct {
	ID          string   `json:"id"`
	Event       eventDTO `json:"event"`
	OwnerID     string   `json:"owner_id"`
	RequesterID string   `json:"requester_id"`
	State       string   `json:"state"`
	Reason      string   `json:"reason,omitempty"`
	ResolvedBy  string   `json:"resolved_by,omitempty"`
	ResolvedAt  *string  `json:"resolved_at,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

type eventDTO struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Instructions  string `json:"instructions,omitempty"`
	Start         string `json:"start"`
	End           string `json:"end"`
	LocationName  string `json:"location_name"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	Region        string `json:"region"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

func toDelegatedRequestDTO(request persistence.DelegatedEventRequest) delegatedRequestDTO {
	dto := delegatedRequestDTO{
		ID:          request.ID,
		Event:       toEventDTO(request.Event),
		OwnerID:     request.OwnerID,
		RequesterID: request.RequesterID,
		State:       string(request.State),
		Reason:      request.Reason,
		ResolvedBy:  request.ResolvedBy,
		CreatedAt:   request.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if request.ResolvedAt != nil {
		resolved := request.ResolvedAt.UTC().Format(time.RFC3339Nano)
		dto.ResolvedAt = &resolved
	}
	return dto
}

func toEventDTO(snapshot persistence.EventSnapshot) eventDTO {
	return eventDTO{
		Title:         snapshot.Title,
		Description:   snapshot.Description,
		Instructions:  snapshot.Instructions,
		Start:         snapshot.Start.Format(time.RFC3339Nano),
		End:           snapshot.End.Format(time.RFC3339Nano),
		LocationName:  snapshot.LocationName,
		StreetAddress: snapshot.StreetAddress,
		City:          snapshot.City,
		Region:        snapshot.Region,
		PostalCode:    snapshot.PostalCode,
		Country:       snapshot.Country,
	}
}
