package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/event-publisher/internal/application"
	"github.com/example/event-publisher/internal/persistence"
)

type ownerService interface {
	CreateOwner(ctx context.Context, input application.EventOwnerInput) (persistence.EventOwner, error)
	UpdateOwner(ctx context.Context, ownerID string, input application.EventOwnerInput) (persistence.EventOwner, error)
	GetOwner(ctx context.Context, ownerID string) (persistence.EventOwner, error)
	ListOwners(ctx context.Context) ([]persistence.EventOwner, error)
	DeleteOwner(ctx context.Context, ownerID string) error
}

type OwnerHandler struct {
	service   ownerService
	responder responder
	logger    *slog.Logger
}

func NewOwnerHandler(service ownerService, logger *slog.Logger) *OwnerHandler {
	base := defaultLogger(logger)
	return &OwnerHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *OwnerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "OwnerHandler", operation, attrs...)
}

func (h *OwnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req ownerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode owner request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "name", req.Name)

	owner, err := h.service.CreateOwner(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "owner creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("owner_id", owner.ID).InfoContext(r.Context(), "owner created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, ownerResponse{Owner: toOwnerDTO(owner)})
}

func (h *OwnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ownerID, ok := OwnerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ownerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOwnerID)
		return
	}

	var req ownerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "owner_id", ownerID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode owner update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "owner_id", ownerID)

	owner, err := h.service.UpdateOwner(r.Context(), ownerID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "owner update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "owner updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, ownerResponse{Owner: toOwnerDTO(owner)})
}

func (h *OwnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ownerID, ok := OwnerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ownerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOwnerID)
		return
	}

	logger := h.log(r.Context(), "Get", "owner_id", ownerID)

	owner, err := h.service.GetOwner(r.Context(), ownerID)
	if err != nil {
		logger.ErrorContext(r.Context(), "owner lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, ownerResponse{Owner: toOwnerDTO(owner)})
}

func (h *OwnerHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")

	owners, err := h.service.ListOwners(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "owner list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(owners)).InfoContext(r.Context(), "owners listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listOwnersResponse{Owners: toOwnerDTOs(owners)})
}

func (h *OwnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ownerID, ok := OwnerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ownerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOwnerID)
		return
	}

	logger := h.log(r.Context(), "Delete", "owner_id", ownerID)

	if err := h.service.DeleteOwner(r.Context(), ownerID); err != nil {
		logger.ErrorContext(r.Context(), "owner delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "owner deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type ownerRequest struct {
	Name          string   `json:"name"`
	AuthorizerIDs []string `json:"authorizer_ids"`
	IsActive      bool     `json:"is_active"`
}

func (r ownerRequest) toInput() application.EventOwnerInput {
	return application.EventOwnerInput{
		Name:          strings.TrimSpace(r.Name),
		AuthorizerIDs: r.AuthorizerIDs,
		IsActive:      r.IsActive,
	}
}

type ownerResponse struct {
	Owner ownerDTO `json:"owner"`
}

type listOwnersResponse struct {
	Owners []ownerDTO `json:"owners"`
}

type ownerDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	AuthorizerIDs []string `json:"authorizer_ids"`
	IsActive      bool     `json:"is_active"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func toOwnerDTO(owner persistence.EventOwner) ownerDTO {
	return ownerDTO{
		ID:            owner.ID,
		Name:          owner.Name,
		AuthorizerIDs: owner.AuthorizerIDs,
		IsActive:      owner.IsActive,
		CreatedAt:     owner.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     owner.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toOwnerDTOs(owners []persistence.EventOwner) []ownerDTO {
	if len(owners) == 0 {
		return nil
	}
	out := make([]ownerDTO, 0, len(owners))
	for _, owner := range owners {
		out = append(out, toOwnerDTO(owner))
	}
	return out
}
