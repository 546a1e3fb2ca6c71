package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/event-publisher/internal/persistence"
)

// EventOwnerInput captures caller provided owner fields.
type EventOwnerInput struct {
	Name          string
	AuthorizerIDs []string
	IsActive      bool
}

// OwnerService manages the administrative lifecycle of event owners. The
// publish workflows only ever read owners; creation and deactivation happen
// here.
type OwnerService struct {
	owners      persistence.EventOwnerRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewOwnerService wires dependencies for owner administration.
func NewOwnerService(owners persistence.EventOwnerRepository, idGenerator func() string, now func() time.Time) *OwnerService {
	return NewOwnerServiceWithLogger(owners, idGenerator, now, nil)
}

// NewOwnerServiceWithLogger wires dependencies plus a base logger.
func NewOwnerServiceWithLogger(owners persistence.EventOwnerRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *OwnerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &OwnerService{
		owners:      owners,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateOwner validates and stores a new owner.
func (s *OwnerService) CreateOwner(ctx context.Context, input EventOwnerInput) (persistence.EventOwner, error) {
	logger := serviceLogger(ctx, s.logger, "owner", "create")

	if err := validateOwnerInput(input); err != nil {
		return persistence.EventOwner{}, err
	}

	now := s.now()
	owner := persistence.EventOwner{
		ID:            s.idGenerator(),
		Name:          strings.TrimSpace(input.Name),
		AuthorizerIDs: normalizeAuthorizers(input.AuthorizerIDs),
		IsActive:      input.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.owners.CreateEventOwner(ctx, owner); err != nil {
		if errors.Is(err, persistence.ErrAlreadyExists) {
			return persistence.EventOwner{}, ErrAlreadyExists
		}
		return persistence.EventOwner{}, fmt.Errorf("create event owner: %w", err)
	}

	logger.Info("event owner created", "owner_id", owner.ID)
	return owner, nil
}

// UpdateOwner validates and applies changes to an existing owner, including
// deactivation.
func (s *OwnerService) UpdateOwner(ctx context.Context, ownerID string, input EventOwnerInput) (persistence.EventOwner, error) {
	logger := serviceLogger(ctx, s.logger, "owner", "update", "owner_id", ownerID)

	if err := validateOwnerInput(input); err != nil {
		return persistence.EventOwner{}, err
	}

	owner, err := s.owners.GetEventOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.EventOwner{}, ErrNotFound
		}
		return persistence.EventOwner{}, fmt.Errorf("load event owner: %w", err)
	}

	owner.Name = strings.TrimSpace(input.Name)
	owner.AuthorizerIDs = normalizeAuthorizers(input.AuthorizerIDs)
	owner.IsActive = input.IsActive
	owner.UpdatedAt = s.now()

	if err := s.owners.UpdateEventOwner(ctx, owner); err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			return persistence.EventOwner{}, ErrNotFound
		case errors.Is(err, persistence.ErrAlreadyExists):
			return persistence.EventOwner{}, ErrAlreadyExists
		}
		return persistence.EventOwner{}, fmt.Errorf("update event owner: %w", err)
	}

	logger.Info("event owner updated", "is_active", owner.IsActive)
	return owner, nil
}

// GetOwner returns one owner by ID.
func (s *OwnerService) GetOwner(ctx context.Context, ownerID string) (persistence.EventOwner, error) {
	owner, err := s.owners.GetEventOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.EventOwner{}, ErrNotFound
		}
		return persistence.EventOwner{}, fmt.Errorf("load event owner: %w", err)
	}
	return owner, nil
}

// ListOwners returns every owner.
func (s *OwnerService) ListOwners(ctx context.Context) ([]persistence.EventOwner, error) {
	owners, err := s.owners.ListEventOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list event owners: %w", err)
	}
	return owners, nil
}

// DeleteOwner removes an owner entirely. Deactivation via UpdateOwner is
// preferred; deletion exists for records created in error.
func (s *OwnerService) DeleteOwner(ctx context.Context, ownerID string) error {
	if err := s.owners.DeleteEventOwner(ctx, ownerID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete event owner: %w", err)
	}
	return nil
}

func validateOwnerInput(input EventOwnerInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if len(normalizeAuthorizers(input.AuthorizerIDs)) == 0 {
		vErr.add("authorizer_ids", "at least one authorizer is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func normalizeAuthorizers(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
