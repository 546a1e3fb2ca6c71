package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/event-publisher/internal/persistence"
)

// EventOwnerRepository implements persistence.EventOwnerRepository using SQLite.
type EventOwnerRepository struct {
	pool *ConnectionPool
}

// NewEventOwnerRepository creates a new SQLite event owner repository.
func NewEventOwnerRepository(pool *ConnectionPool) *EventOwnerRepository {
	return &EventOwnerRepository{pool: pool}
}

// CreateEventOwner inserts a new owner together with its authorizer set.
func (r *EventOwnerRepository) CreateEventOwner(ctx context.Context, owner persistence.EventOwner) error {
	if owner.ID == "" {
		return fmt.Errorf("sqlite: event owner ID is required")
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO event_owners (id, name, is_active, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			owner.ID,
			owner.Name,
			boolToInt(owner.IsActive),
			owner.CreatedAt.UTC().Format(time.RFC3339Nano),
			owner.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return persistence.ErrAlreadyExists
			}
			return fmt.Errorf("sqlite: insert event owner: %w", err)
		}

		return insertAuthorizers(ctx, tx, owner.ID, owner.AuthorizerIDs)
	})
}

// UpdateEventOwner replaces the owner row and its authorizer set.
func (r *EventOwnerRepository) UpdateEventOwner(ctx context.Context, owner persistence.EventOwner) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE event_owners SET name = ?, is_active = ?, updated_at = ? WHERE id = ?`,
			owner.Name,
			boolToInt(owner.IsActive),
			owner.UpdatedAt.UTC().Format(time.RFC3339Nano),
			owner.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return persistence.ErrAlreadyExists
			}
			return fmt.Errorf("sqlite: update event owner: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: update event owner: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM event_owner_authorizers WHERE owner_id = ?`, owner.ID); err != nil {
			return fmt.Errorf("sqlite: clear authorizers: %w", err)
		}
		return insertAuthorizers(ctx, tx, owner.ID, owner.AuthorizerIDs)
	})
}

// GetEventOwner retrieves an owner and its authorizer set by ID.
func (r *EventOwnerRepository) GetEventOwner(ctx context.Context, id string) (persistence.EventOwner, error) {
	var owner persistence.EventOwner
	var isActive int
	var createdAt, updatedAt string

	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM event_owners WHERE id = ?`, id,
	).Scan(&owner.ID, &owner.Name, &isActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.EventOwner{}, persistence.ErrNotFound
		}
		return persistence.EventOwner{}, fmt.Errorf("sqlite: get event owner: %w", err)
	}

	owner.IsActive = isActive != 0
	if owner.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return persistence.EventOwner{}, err
	}
	if owner.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return persistence.EventOwner{}, err
	}

	if owner.AuthorizerIDs, err = r.authorizersFor(ctx, owner.ID); err != nil {
		return persistence.EventOwner{}, err
	}
	return owner, nil
}

// ListEventOwners returns every owner ordered by name.
func (r *EventOwnerRepository) ListEventOwners(ctx context.Context) ([]persistence.EventOwner, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM event_owners ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list event owners: %w", err)
	}
	defer rows.Close()

	var owners []persistence.EventOwner
	for rows.Next() {
		var owner persistence.EventOwner
		var isActive int
		var createdAt, updatedAt string
		if err := rows.Scan(&owner.ID, &owner.Name, &isActive, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan event owner: %w", err)
		}
		owner.IsActive = isActive != 0
		if owner.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, err
		}
		if owner.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list event owners: %w", err)
	}

	for i := range owners {
		if owners[i].AuthorizerIDs, err = r.authorizersFor(ctx, owners[i].ID); err != nil {
			return nil, err
		}
	}
	return owners, nil
}

// DeleteEventOwner removes an owner; authorizer rows cascade.
func (r *EventOwnerRepository) DeleteEventOwner(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM event_owners WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete event owner: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete event owner: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *EventOwnerRepository) authorizersFor(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT authorizer_id FROM event_owner_authorizers WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list authorizers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan authorizer: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list authorizers: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func insertAuthorizers(ctx context.Context, tx *sql.Tx, ownerID string, authorizerIDs []string) error {
	for _, id := range authorizerIDs {
		if id == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO event_owner_authorizers (owner_id, authorizer_id) VALUES (?, ?)`,
			ownerID, id,
		); err != nil {
			return fmt.Errorf("sqlite: insert authorizer: %w", err)
		}
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func parseStoredTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse stored time %q: %w", value, err)
	}
	return t, nil
}
