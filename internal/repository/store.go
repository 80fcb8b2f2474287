package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// Store executes the transactional core of the booking system.  Every
// Reserve, Cancel and capacity change runs inside a single MySQL
// transaction scoped to the event row and the booking row; the event
// row is locked with SELECT ... FOR UPDATE so concurrent reservations
// against the same event serialize at the storage layer.  In-memory
// locks would not survive multiple process instances, so none are
// used.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the given database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

type txKey struct{}

// WithTx runs fn inside a transaction.  The transaction is carried in
// the context so that the row-level methods below participate in it
// transparently.  fn returning an error rolls everything back; nested
// calls reuse the surrounding transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// queryRow routes through the context transaction when present.
func (s *Store) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRowContext(ctx, q, args...)
	}
	return s.db.QueryRowContext(ctx, q, args...)
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.ExecContext(ctx, q, args...)
	}
	return s.db.ExecContext(ctx, q, args...)
}

// GetEventForUpdate loads an event and acquires an exclusive row lock
// on it.  Any concurrent transaction issuing the same statement for
// the same event blocks until this transaction commits or rolls back,
// which is the per-event serialization point the booking guarantees
// rest on.  Must be called inside WithTx.
func (s *Store) GetEventForUpdate(ctx context.Context, eventID uint64) (model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ? FOR UPDATE`
	e, err := scanEvent(s.queryRow(ctx, q, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, err
	}
	return e, nil
}

// SetSeatCounts writes both seat counters of a locked event row.  The
// caller computes the new values under the row lock; writing absolute
// values keeps the invariant check and the mutation in the same
// atomic unit instead of relying on schema hooks or relative
// increments issued outside the lock.
func (s *Store) SetSeatCounts(ctx context.Context, eventID uint64, totalSeats, availableSeats uint32) error {
	_, err := s.exec(ctx,
		`UPDATE events SET total_seats = ?, available_seats = ? WHERE id = ?`,
		totalSeats, availableSeats, eventID)
	return err
}

// CreateBooking inserts a ledger entry and populates the generated ID
// and timestamps on the provided record.  Must be called inside the
// same transaction that decremented the seat counter.
func (s *Store) CreateBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
		(reference, user_id, event_id, tickets, total_amount_cents, status)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.exec(ctx, q,
		b.Reference, b.UserID, b.EventID, b.Tickets, b.TotalAmountCents, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return s.queryRow(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetBookingForUpdate loads a booking and locks its row for the
// duration of the transaction.  Returns ErrBookingNotFound when the
// booking does not exist.
func (s *Store) GetBookingForUpdate(ctx context.Context, bookingID uint64) (model.Booking, error) {
	const q = `SELECT id, reference, user_id, event_id, tickets,
	                  total_amount_cents, status, created_at, updated_at
	           FROM bookings WHERE id = ? FOR UPDATE`
	var b model.Booking
	err := s.queryRow(ctx, q, bookingID).Scan(
		&b.ID, &b.Reference, &b.UserID, &b.EventID, &b.Tickets,
		&b.TotalAmountCents, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, ErrBookingNotFound
		}
		return model.Booking{}, err
	}
	return b, nil
}

// MarkBookingCancelled flips a booking's status to CANCELLED.  The
// ledger entry itself is never deleted.
func (s *Store) MarkBookingCancelled(ctx context.Context, bookingID uint64) error {
	_, err := s.exec(ctx,
		`UPDATE bookings SET status = ? WHERE id = ?`,
		model.BookingCancelled, bookingID)
	return err
}
