package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/event-publisher/internal/persistence"
)

// DelegatedEventRequestRepository implements
// persistence.DelegatedEventRequestRepository using SQLite.
type DelegatedEventRequestRepository struct {
	pool *ConnectionPool
}

// NewDelegatedEventRequestRepository creates a new SQLite delegated request
// repository.
func NewDelegatedEventRequestRepository(pool *ConnectionPool) *DelegatedEventRequestRepository {
	return &DelegatedEventRequestRepository{pool: pool}
}

const delegatedRequestColumns = `id, title, description, instructions, start_time, end_time,
	location_name, street_address, city, region, postal_code, country,
	owner_id, requester_id, state, reason, resolved_by, resolved_at, created_at`

// CreateDelegatedEventRequest inserts a new request in its initial state.
func (r *DelegatedEventRequestRepository) CreateDelegatedEventRequest(ctx context.Context, request persistence.DelegatedEventRequest) error {
	if request.ID == "" {
		return fmt.Errorf("sqlite: delegated request ID is required")
	}

	var resolvedAt sql.NullString
	if request.ResolvedAt != nil {
		resolvedAt.String = request.ResolvedAt.UTC().Format(time.RFC3339Nano)
		resolvedAt.Valid = true
	}

	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO delegated_event_requests (`+delegatedRequestColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.Event.Title,
		request.Event.Description,
		request.Event.Instructions,
		request.Event.Start.UTC().Format(time.RFC3339Nano),
		request.Event.End.UTC().Format(time.RFC3339Nano),
		request.Event.LocationName,
		request.Event.StreetAddress,
		request.Event.City,
		request.Event.Region,
		request.Event.PostalCode,
		request.Event.Country,
		request.OwnerID,
		request.RequesterID,
		string(request.State),
		request.Reason,
		request.ResolvedBy,
		resolvedAt,
		request.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.ErrAlreadyExists
		}
		return fmt.Errorf("sqlite: insert delegated request: %w", err)
	}
	return nil
}

// UpdateDelegatedEventRequest persists a state transition. Only the mutable
// resolution fields change; the event snapshot is immutable.
func (r *DelegatedEventRequestRepository) UpdateDelegatedEventRequest(ctx context.Context, request persistence.DelegatedEventRequest) error {
	var resolvedAt sql.NullString
	if request.ResolvedAt != nil {
		resolvedAt.String = request.ResolvedAt.UTC().Format(time.RFC3339Nano)
		resolvedAt.Valid = true
	}

	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE delegated_event_requests
		 SET state = ?, reason = ?, resolved_by = ?, resolved_at = ?
		 WHERE id = ?`,
		string(request.State),
		request.Reason,
		request.ResolvedBy,
		resolvedAt,
		request.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update delegated request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update delegated request: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetDelegatedEventRequest retrieves a request by ID.
func (r *DelegatedEventRequestRepository) GetDelegatedEventRequest(ctx context.Context, id string) (persistence.DelegatedEventRequest, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT `+delegatedRequestColumns+` FROM delegated_event_requests WHERE id = ?`, id)

	request, err := scanDelegatedRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.DelegatedEventRequest{}, persistence.ErrNotFound
		}
		return persistence.DelegatedEventRequest{}, err
	}
	return request, nil
}

// ListDelegatedEventRequestsForOwner returns an owner's requests, newest
// first.
func (r *DelegatedEventRequestRepository) ListDelegatedEventRequestsForOwner(ctx context.Context, ownerID string) ([]persistence.DelegatedEventRequest, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT `+delegatedRequestColumns+` FROM delegated_event_requests
		 WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list delegated requests: %w", err)
	}
	defer rows.Close()

	var requests []persistence.DelegatedEventRequest
	for rows.Next() {
		request, err := scanDelegatedRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list delegated requests: %w", err)
	}
	return requests, nil
}

func scanDelegatedRequest(scan func(...any) error) (persistence.DelegatedEventRequest, error) {
	var request persistence.DelegatedEventRequest
	var start, end, createdAt, state string
	var resolvedAt sql.NullString

	err := scan(
		&request.ID,
		&request.Event.Title,
		&request.Event.Description,
		&request.Event.Instructions,
		&start,
		&end,
		&request.Event.LocationName,
		&request.Event.StreetAddress,
		&request.Event.City,
		&request.Event.Region,
		&request.Event.PostalCode,
		&request.Event.Country,
		&request.OwnerID,
		&request.RequesterID,
		&state,
		&request.Reason,
		&request.ResolvedBy,
		&resolvedAt,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.DelegatedEventRequest{}, err
		}
		return persistence.DelegatedEventRequest{}, fmt.Errorf("sqlite: scan delegated request: %w", err)
	}

	request.State = persistence.DelegatedRequestState(state)
	if request.Event.Start, err = parseStoredTime(start); err != nil {
		return persistence.DelegatedEventRequest{}, err
	}
	if request.Event.End, err = parseStoredTime(end); err != nil {
		return persistence.DelegatedEventRequest{}, err
	}
	if request.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return persistence.DelegatedEventRequest{}, err
	}
	if resolvedAt.Valid {
		resolved, err := parseStoredTime(resolvedAt.String)
		if err != nil {
			return persistence.DelegatedEventRequest{}, err
		}
		request.ResolvedAt = &resolved
	}
	return request, nil
}
