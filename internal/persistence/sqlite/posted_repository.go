package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/event-publisher/internal/persistence"
)

// PostedEventRepository implements persistence.PostedEventRepository using
// SQLite. Posted events are append-only; no update or delete is exposed.
type PostedEventRepository struct {
	pool *ConnectionPool
}

// NewPostedEventRepository creates a new SQLite posted event repository.
func NewPostedEventRepository(pool *ConnectionPool) *PostedEventRepository {
	return &PostedEventRepository{pool: pool}
}

const postedEventColumns = `id, title, description, instructions, start_time, end_time,
	location_name, street_address, city, region, postal_code, country,
	video_join_url, video_account, advocacy_manage_url, advocacy_share_url, calendar_url,
	creator_id, approver_id, owner_id, approval_reason, created_at, published_at`

// CreatePostedEvent appends the record of a successful publish.
func (r *PostedEventRepository) CreatePostedEvent(ctx context.Context, posted persistence.PostedEvent) error {
	if posted.ID == "" {
		return fmt.Errorf("sqlite: posted event ID is required")
	}

	var ownerID sql.NullString
	if posted.OwnerID != "" {
		ownerID.String = posted.OwnerID
		ownerID.Valid = true
	}

	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO posted_events (`+postedEventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		posted.ID,
		posted.Event.Title,
		posted.Event.Description,
		posted.Event.Instructions,
		posted.Event.Start.UTC().Format(time.RFC3339Nano),
		posted.Event.End.UTC().Format(time.RFC3339Nano),
		posted.Event.LocationName,
		posted.Event.StreetAddress,
		posted.Event.City,
		posted.Event.Region,
		posted.Event.PostalCode,
		posted.Event.Country,
		posted.VideoJoinURL,
		posted.VideoAccount,
		posted.AdvocacyManageURL,
		posted.AdvocacyShareURL,
		posted.CalendarURL,
		posted.CreatorID,
		posted.ApproverID,
		ownerID,
		posted.ApprovalReason,
		posted.CreatedAt.UTC().Format(time.RFC3339Nano),
		posted.PublishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.ErrAlreadyExists
		}
		return fmt.Errorf("sqlite: insert posted event: %w", err)
	}
	return nil
}

// GetPostedEvent retrieves a posted event by ID.
func (r *PostedEventRepository) GetPostedEvent(ctx context.Context, id string) (persistence.PostedEvent, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT `+postedEventColumns+` FROM posted_events WHERE id = ?`, id)

	posted, err := scanPostedEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.PostedEvent{}, persistence.ErrNotFound
		}
		return persistence.PostedEvent{}, err
	}
	return posted, nil
}

// ListPostedEvents returns every posted event, most recently published first.
func (r *PostedEventRepository) ListPostedEvents(ctx context.Context) ([]persistence.PostedEvent, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT `+postedEventColumns+` FROM posted_events ORDER BY published_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list posted events: %w", err)
	}
	defer rows.Close()

	var events []persistence.PostedEvent
	for rows.Next() {
		posted, err := scanPostedEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, posted)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list posted events: %w", err)
	}
	return events, nil
}

func scanPostedEvent(scan func(...any) error) (persistence.PostedEvent, error) {
	var posted persistence.PostedEvent
	var start, end, createdAt, publishedAt string
	var ownerID sql.NullString

	err := scan(
		&posted.ID,
		&posted.Event.Title,
		&posted.Event.Description,
		&posted.Event.Instructions,
		&start,
		&end,
		&posted.Event.LocationName,
		&posted.Event.StreetAddress,
		&posted.Event.City,
		&posted.Event.Region,
		&posted.Event.PostalCode,
		&posted.Event.Country,
		&posted.VideoJoinURL,
		&posted.VideoAccount,
		&posted.AdvocacyManageURL,
		&posted.AdvocacyShareURL,
		&posted.CalendarURL,
		&posted.CreatorID,
		&posted.ApproverID,
		&ownerID,
		&posted.ApprovalReason,
		&createdAt,
		&publishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.PostedEvent{}, err
		}
		return persistence.PostedEvent{}, fmt.Errorf("sqlite: scan posted event: %w", err)
	}

	posted.OwnerID = ownerID.String
	if posted.Event.Start, err = parseStoredTime(start); err != nil {
		return persistence.PostedEvent{}, err
	}
	if posted.Event.End, err = parseStoredTime(end); err != nil {
		return persistence.PostedEvent{}, err
	}
	if posted.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return persistence.PostedEvent{}, err
	}
	if posted.PublishedAt, err = parseStoredTime(publishedAt); err != nil {
		return persistence.PostedEvent{}, err
	}
	return posted, nil
}
