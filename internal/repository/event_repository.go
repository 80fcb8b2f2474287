package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// EventRepo provides CRUD operations for events.  It covers the
// catalogue reads and plain admin edits; seat counters are written
// only through Store so that every counter mutation happens under a
// row lock.  All timestamp columns are stored in UTC.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, title, description, starts_at, venue, category,
	price_cents, total_seats, available_seats, image_url, created_by,
	created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var (
		e        model.Event
		imageURL sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.Venue, &e.Category,
		&e.PriceCents, &e.TotalSeats, &e.AvailableSeats, &imageURL, &e.CreatedBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return model.Event{}, err
	}
	if imageURL.Valid {
		u := imageURL.String
		e.ImageURL = &u
	}
	return e, nil
}

// Create inserts a new event and populates the generated ID and the
// DB-default timestamps on the provided record.  AvailableSeats must
// already be initialised by the caller (TotalSeats for a fresh event).
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events
		(title, description, starts_at, venue, category, price_cents,
		 total_seats, available_seats, image_url, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.Title, e.Description, e.StartsAt.UTC(), e.Venue, e.Category,
		e.PriceCents, e.TotalSeats, e.AvailableSeats, e.ImageURL, e.CreatedBy,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	fresh, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = fresh
	return nil
}

// GetByID returns a single event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	e, err := scanEvent(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, err
	}
	return e, nil
}

// ListFilter narrows the catalogue listing.  Category matches exactly,
// Search matches the title with a LIKE pattern, UpcomingOnly restricts
// to events that have not started yet.  Page is 1-based.
type ListFilter struct {
	Category     string
	Search       string
	UpcomingOnly bool
	Page         int
	Limit        int
}

// List returns a page of events matching the filter together with the
// total number of matching rows so callers can report pagination.
// Events are ordered by start time ascending (soonest first).
func (r *EventRepo) List(ctx context.Context, f ListFilter) ([]model.Event, int, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if f.UpcomingOnly {
		where = append(where, "starts_at > UTC_TIMESTAMP()")
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "title LIKE ?")
		args = append(args, "%"+s+"%")
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events"+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 || limit > 100 {
		limit = 10
	}
	q := `SELECT ` + eventColumns + ` FROM events` + cond +
		` ORDER BY starts_at ASC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// UpdateDetails changes the descriptive fields of an event.  Seat
// counters and pricing of existing bookings are untouched; capacity
// changes go through the Store so the recompute happens under the row
// lock.  Returns ErrEventNotFound when no row matches.
func (r *EventRepo) UpdateDetails(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events
		SET title = ?, description = ?, starts_at = ?, venue = ?,
		    category = ?, price_cents = ?, image_url = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		e.Title, e.Description, e.StartsAt.UTC(), e.Venue,
		e.Category, e.PriceCents, e.ImageURL, e.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// No rows changed: either missing or identical values.  Probe
		// existence so callers still get a clean not-found signal.
		if _, err := r.GetByID(ctx, e.ID); err != nil {
			return err
		}
	}
	fresh, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = fresh
	return nil
}

// Delete removes an event.  Deletion is refused with ErrConflict while
// confirmed bookings still reference the event, since the ledger must
// keep pointing at a real row.  Returns ErrEventNotFound when no row
// matches.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	var confirmed int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE event_id = ? AND status = ?`,
		id, model.BookingConfirmed).Scan(&confirmed)
	if err != nil {
		return err
	}
	if confirmed > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}
