package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// BookingRepo provides read access to the booking ledger.  Writes to
// the ledger (creation, cancellation) happen exclusively through
// Store so they stay inside the same transaction as the seat counter
// mutation.  All timestamp columns are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingDetail is a ledger entry joined with a summary of its event,
// as returned to customers listing their bookings.
type BookingDetail struct {
	ID               uint64    `json:"id"`
	Reference        string    `json:"reference"`
	EventID          uint64    `json:"event_id"`
	Tickets          uint32    `json:"tickets"`
	TotalAmountCents uint64    `json:"total_amount_cents"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	EventTitle       string    `json:"event_title"`
	EventStartsAt    time.Time `json:"event_starts_at"`
	EventVenue       string    `json:"event_venue"`
}

const bookingJoin = `SELECT b.id, b.reference, b.event_id, b.tickets,
	       b.total_amount_cents, b.status, b.created_at,
	       e.title, e.starts_at, e.venue
	FROM bookings b
	JOIN events e ON e.id = b.event_id`

func scanBookingDetail(row interface{ Scan(...any) error }) (BookingDetail, error) {
	var d BookingDetail
	err := row.Scan(
		&d.ID, &d.Reference, &d.EventID, &d.Tickets,
		&d.TotalAmountCents, &d.Status, &d.CreatedAt,
		&d.EventTitle, &d.EventStartsAt, &d.EventVenue,
	)
	return d, err
}

// ListByUser returns a page of the user's bookings, newest first,
// together with the total count for pagination.  When no bookings
// exist, an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, page, limit int) ([]BookingDetail, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	const q = bookingJoin + `
	WHERE b.user_id = ?
	ORDER BY b.created_at DESC
	LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	details := make([]BookingDetail, 0)
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// GetByIDForUser returns a single booking with its event summary.  It
// returns ErrBookingNotFound when the booking does not exist and
// ErrForbidden when it belongs to a different user.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (BookingDetail, error) {
	const q = bookingJoin + ` WHERE b.id = ?`
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM bookings WHERE id = ?`, bookingID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BookingDetail{}, ErrBookingNotFound
		}
		return BookingDetail{}, err
	}
	if ownerID != userID {
		return BookingDetail{}, ErrForbidden
	}
	d, err := scanBookingDetail(r.db.QueryRowContext(ctx, q, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BookingDetail{}, ErrBookingNotFound
		}
		return BookingDetail{}, err
	}
	return d, nil
}

// CountActiveByEvent returns the sum of tickets across confirmed
// bookings for an event.  Feeds the demand figure on the admin event
// detail.
func (r *BookingRepo) CountActiveByEvent(ctx context.Context, eventID uint64) (uint32, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(tickets) FROM bookings WHERE event_id = ? AND status = ?`,
		eventID, model.BookingConfirmed).Scan(&total)
	if err != nil {
		return 0, err
	}
	if !total.Valid {
		return 0, nil
	}
	return uint32(total.Int64), nil
}
