package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticket-booking/internal/clock"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/queue"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// Store is the transactional surface the booking manager needs from
// the storage layer.  WithTx brackets an atomic unit; the row-level
// methods participate in the surrounding transaction and the
// *ForUpdate reads acquire exclusive row locks, which is where the
// per-event serialization comes from.  repository.Store implements
// this against MySQL; tests substitute an in-memory fake.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEventForUpdate(ctx context.Context, eventID uint64) (model.Event, error)
	SetSeatCounts(ctx context.Context, eventID uint64, totalSeats, availableSeats uint32) error
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBookingForUpdate(ctx context.Context, bookingID uint64) (model.Booking, error)
	MarkBookingCancelled(ctx context.Context, bookingID uint64) error
}

// Dispatcher delivers post-commit notifications.  Implementations are
// expected to be slow and unreliable (a broker, an SMTP relay); the
// booking manager therefore calls them from a detached goroutine and
// only logs failures.  A nil Dispatcher disables notifications.
type Dispatcher interface {
	BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	BookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error
}

// dispatchTimeout bounds a single post-commit notification attempt.
const dispatchTimeout = 10 * time.Second

// BookingService is the booking transaction manager.  It guarantees
// that seat reservation and ledger writes happen together or not at
// all, and that concurrent reservations against one event never
// oversell its capacity.
type BookingService struct {
	store    Store
	dispatch Dispatcher
	clock    clock.Clock
}

// NewBookingService constructs a BookingService.  store and clk must
// be non-nil; dispatch may be nil to run without notifications.
func NewBookingService(store Store, dispatch Dispatcher, clk clock.Clock) *BookingService {
	if store == nil || clk == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{store: store, dispatch: dispatch, clock: clk}
}

// Reserve atomically decrements the event's available seats and
// creates a confirmed booking for tickets at the event's current
// price.  It fails with repository.ErrEventNotFound when the event is
// missing, ErrEventAlreadyStarted when the schedule is not strictly in
// the future and ErrInsufficientSeats when fewer than tickets seats
// remain.  On any failure nothing is written.
//
// Repeated submissions of the same intent are not deduplicated: each
// successful call creates a distinct ledger entry.  Callers retrying
// after an opaque infrastructure failure accept that boundary.
func (s *BookingService) Reserve(ctx context.Context, eventID, userID uint64, tickets uint32) (model.Booking, error) {
	if tickets < 1 {
		return model.Booking{}, ErrInvalidTicketCount
	}
	now := s.clock.Now()

	var (
		booking model.Booking
		event   model.Event
	)
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		ev, err := s.store.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if !ev.StartsAt.After(now) {
			return ErrEventAlreadyStarted
		}
		if ev.AvailableSeats < tickets {
			return ErrInsufficientSeats
		}
		remaining := ev.AvailableSeats - tickets
		// The row is locked, so this write cannot interleave with a
		// concurrent reservation; the subtraction above is the whole
		// invariant proof (remaining <= TotalSeats follows from
		// AvailableSeats <= TotalSeats).
		if err := s.store.SetSeatCounts(txCtx, ev.ID, ev.TotalSeats, remaining); err != nil {
			return err
		}
		b := model.Booking{
			Reference:        uuid.New().String(),
			UserID:           userID,
			EventID:          ev.ID,
			Tickets:          tickets,
			TotalAmountCents: uint64(ev.PriceCents) * uint64(tickets),
			Status:           model.BookingConfirmed,
		}
		if err := s.store.CreateBooking(txCtx, &b); err != nil {
			return err
		}
		booking = b
		event = ev
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}

	s.notifyConfirmed(booking, event)
	return booking, nil
}

// Cancel flips an owned, still-cancellable booking to CANCELLED and
// restores the event's available seats in the same atomic unit,
// returning the updated ledger entry.  It fails with
// repository.ErrBookingNotFound, repository.ErrForbidden when the
// booking belongs to another user, ErrAlreadyCancelled, or
// ErrTooLateToCancel once the event has started.
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID uint64) (model.Booking, error) {
	now := s.clock.Now()

	var (
		booking model.Booking
		event   model.Event
	)
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		b, err := s.store.GetBookingForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return repository.ErrForbidden
		}
		if b.Status == model.BookingCancelled {
			return ErrAlreadyCancelled
		}
		ev, err := s.store.GetEventForUpdate(txCtx, b.EventID)
		if err != nil {
			return err
		}
		if !ev.StartsAt.After(now) {
			return ErrTooLateToCancel
		}
		if err := s.store.MarkBookingCancelled(txCtx, b.ID); err != nil {
			return err
		}
		restored := ev.AvailableSeats + b.Tickets
		if restored > ev.TotalSeats {
			// Cannot happen while every counter write goes through this
			// transaction manager; clamp anyway so a bad row never
			// spreads.
			restored = ev.TotalSeats
		}
		if err := s.store.SetSeatCounts(txCtx, ev.ID, ev.TotalSeats, restored); err != nil {
			return err
		}
		b.Status = model.BookingCancelled
		booking = b
		event = ev
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}

	s.notifyCancelled(booking, event)
	return booking, nil
}

// notifyConfirmed dispatches the confirmation event from a detached
// goroutine.  The request context is deliberately not reused: the
// transaction has committed, and a client disconnect must not cancel
// the notification attempt.  Failures are logged and swallowed.
func (s *BookingService) notifyConfirmed(b model.Booking, ev model.Event) {
	if s.dispatch == nil {
		return
	}
	msg := queue.BookingConfirmedEvent{
		BookingID:        b.ID,
		Reference:        b.Reference,
		UserID:           b.UserID,
		EventID:          ev.ID,
		EventTitle:       ev.Title,
		EventStartsAt:    ev.StartsAt.UTC().Format(time.RFC3339),
		EventVenue:       ev.Venue,
		Tickets:          b.Tickets,
		TotalAmountCents: b.TotalAmountCents,
		ConfirmedAt:      s.clock.Now().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := s.dispatch.BookingConfirmed(ctx, msg); err != nil {
			log.Printf("booking: confirmation dispatch failed for booking %d: %v", b.ID, err)
		}
	}()
}

func (s *BookingService) notifyCancelled(b model.Booking, ev model.Event) {
	if s.dispatch == nil {
		return
	}
	msg := queue.BookingCancelledEvent{
		BookingID:     b.ID,
		Reference:     b.Reference,
		UserID:        b.UserID,
		EventID:       ev.ID,
		EventTitle:    ev.Title,
		EventStartsAt: ev.StartsAt.UTC().Format(time.RFC3339),
		Tickets:       b.Tickets,
		CancelledAt:   s.clock.Now().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := s.dispatch.BookingCancelled(ctx, msg); err != nil {
			log.Printf("booking: cancellation dispatch failed for booking %d: %v", b.ID, err)
		}
	}()
}
