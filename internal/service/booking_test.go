package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/event-ticket-booking/internal/clock"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/queue"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// fakeStore is an in-memory Store.  WithTx holds a mutex for the whole
// callback, mirroring the row-lock serialization the MySQL store gets
// from SELECT ... FOR UPDATE.
type fakeStore struct {
	mu       sync.Mutex
	events   map[uint64]model.Event
	bookings map[uint64]model.Booking
	nextID   uint64
	failTx   error // when set, WithTx fails before invoking fn
}

func newFakeStore(events ...model.Event) *fakeStore {
	s := &fakeStore{
		events:   make(map[uint64]model.Event),
		bookings: make(map[uint64]model.Booking),
		nextID:   1,
	}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.failTx != nil {
		return s.failTx
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Snapshot for rollback on error.
	events := make(map[uint64]model.Event, len(s.events))
	for k, v := range s.events {
		events[k] = v
	}
	bookings := make(map[uint64]model.Booking, len(s.bookings))
	for k, v := range s.bookings {
		bookings[k] = v
	}
	if err := fn(ctx); err != nil {
		s.events = events
		s.bookings = bookings
		return err
	}
	return nil
}

func (s *fakeStore) GetEventForUpdate(ctx context.Context, eventID uint64) (model.Event, error) {
	e, ok := s.events[eventID]
	if !ok {
		return model.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (s *fakeStore) SetSeatCounts(ctx context.Context, eventID uint64, totalSeats, availableSeats uint32) error {
	e, ok := s.events[eventID]
	if !ok {
		return repository.ErrEventNotFound
	}
	e.TotalSeats = totalSeats
	e.AvailableSeats = availableSeats
	s.events[eventID] = e
	return nil
}

func (s *fakeStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	b.ID = s.nextID
	s.nextID++
	s.bookings[b.ID] = *b
	return nil
}

func (s *fakeStore) GetBookingForUpdate(ctx context.Context, bookingID uint64) (model.Booking, error) {
	b, ok := s.bookings[bookingID]
	if !ok {
		return model.Booking{}, repository.ErrBookingNotFound
	}
	return b, nil
}

func (s *fakeStore) MarkBookingCancelled(ctx context.Context, bookingID uint64) error {
	b, ok := s.bookings[bookingID]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.Status = model.BookingCancelled
	s.bookings[bookingID] = b
	return nil
}

// event is a read helper for assertions outside a transaction.
func (s *fakeStore) event(id uint64) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

// recordingDispatcher captures dispatched notifications on channels so
// tests can wait for the detached goroutine.
type recordingDispatcher struct {
	confirmed chan queue.BookingConfirmedEvent
	cancelled chan queue.BookingCancelledEvent
	err       error
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{
		confirmed: make(chan queue.BookingConfirmedEvent, 4),
		cancelled: make(chan queue.BookingCancelledEvent, 4),
	}
}

func (d *recordingDispatcher) BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	d.confirmed <- ev
	return d.err
}

func (d *recordingDispatcher) BookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error {
	d.cancelled <- ev
	return d.err
}

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testEvent(id uint64, total, available uint32) model.Event {
	return model.Event{
		ID:             id,
		Title:          "Spring Jazz Night",
		StartsAt:       testNow.Add(48 * time.Hour),
		Venue:          "Harbor Hall",
		PriceCents:     1000,
		TotalSeats:     total,
		AvailableSeats: available,
	}
}

func TestBookingService_Reserve(t *testing.T) {
	t.Parallel()

	t.Run("creates confirmed booking and decrements seats", func(t *testing.T) {
		store := newFakeStore(testEvent(1, 50, 50))
		disp := newRecordingDispatcher()
		svc := NewBookingService(store, disp, clock.NewFixed(testNow))

		b, err := svc.Reserve(context.Background(), 1, 7, 4)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b.Status != model.BookingConfirmed {
			t.Fatalf("expected status %s, got %s", model.BookingConfirmed, b.Status)
		}
		if b.Reference == "" {
			t.Fatalf("expected a booking reference")
		}
		if b.TotalAmountCents != 4000 {
			t.Fatalf("expected total 4000 cents, got %d", b.TotalAmountCents)
		}
		if got := store.event(1).AvailableSeats; got != 46 {
			t.Fatalf("expected 46 seats left, got %d", got)
		}

		select {
		case ev := <-disp.confirmed:
			if ev.BookingID != b.ID || ev.Tickets != 4 || ev.EventTitle != "Spring Jazz Night" {
				t.Fatalf("unexpected confirmation payload: %+v", ev)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("expected a confirmation dispatch")
		}
	})

	t.Run("can book down to zero seats", func(t *testing.T) {
		store := newFakeStore(testEvent(1, 3, 3))
		svc := NewBookingService(store, nil, clock.NewFixed(testNow))

		if _, err := svc.Reserve(context.Background(), 1, 7, 3); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := store.event(1).AvailableSeats; got != 0 {
			t.Fatalf("expected 0 seats left, got %d", got)
		}
		if _, err := svc.Reserve(context.Background(), 1, 8, 1); !errors.Is(err, ErrInsufficientSeats) {
			t.Fatalf("expected ErrInsufficientSeats, got %v", err)
		}
	})

	t.Run("fails when not enough seats and writes nothing", func(t *testing.T) {
		store := newFakeStore(testEvent(1, 10, 2))
		svc := NewBookingService(store, nil, clock.NewFixed(testNow))

		_, err := svc.Reserve(context.Background(), 1, 7, 3)
		if !errors.Is(err, ErrInsufficientSeats) {
			t.Fatalf("expected ErrInsufficientSeats, got %v", err)
		}
		if got := store.event(1).AvailableSeats; got != 2 {
			t.Fatalf("expected seats untouched at 2, got %d", got)
		}
		if len(store.bookings) != 0 {
			t.Fatalf("expected no ledger entries, got %d", len(store.bookings))
		}
	})

	t.Run("fails for event that already started", func(t *testing.T) {
		ev := testEvent(1, 10, 10)
		ev.StartsAt = testNow.Add(-time.Minute)
		store := newFakeStore(ev)
		svc := NewBookingService(store, nil, clock.NewFixed(testNow))

		if _, err := svc.Reserve(context.Background(), 1, 7, 1); !errors.Is(err, ErrEventAlreadyStarted) {
			t.Fatalf("expected ErrEventAlreadyStarted, got %v", err)
		}
	})

	t.Run("fails for event starting exactly now", func(t *testing.T) {
		ev := testEvent(1, 10, 10)
		ev.StartsAt = testNow
		store := newFakeStore(ev)
		svc := NewBookingService(store, nil, clock.NewFixed(testNow))

		if _, err := svc.Reserve(context.Background(), 1, 7, 1); !errors.Is(err, ErrEventAlreadyStarted) {
			t.Fatalf("expected ErrEventAlreadyStarted, got %v", err)
		}
	})

	t.Run("rejects zero tickets", func(t *testing.T) {
		store := newFakeStore(testEvent(1, 10, 10))
		svc := NewBookingService(store, nil, clock.NewFixed(testNow))

		if _, err := svc.Reserve(context.Background(), 1, 7, 0); !errors.Is(err, ErrInvalidTicketCount) {
			t.Fatalf("expected ErrInvalidTicketCount, got %v", err)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		store := newFakeStore()
		svc := NewBookingService(store, nil, clock.NewFixed(testNow))

		if _, err := svc.Reserve(context.Background(), 99, 7, 1); !errors.Is(err, repository.ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})

	t.Run("dispatch failure does not fail the reservation", func(t *testing.T) {
		store := newFakeStore(testEvent(1, 10, 10))
		disp := newRecordingDispatcher()
		disp.err = errors.New("broker down")
		svc := NewBookingService(store, disp, clock.NewFixed(testNow))

		if _, err := svc.Reserve(context.Background(), 1, 7, 1); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		select {
		case <-disp.confirmed:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected a dispatch attempt")
		}
	})
}

func TestBookingService_Reserve_Concurrent(t *testing.T) {
	t.Parallel()

	// Three seats, two concurrent requests for two seats each: exactly
	// one must win, leaving one seat and one ledger entry.
	store := newFakeStore(testEvent(1, 3, 3))
	svc := NewBookingService(store, nil, clock.NewFixed(testNow))

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), 1, user, 2)
			errs <- err
		}(uint64(100 + i))
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientSeats):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("expected exactly one success and one ErrInsufficientSeats, got %d/%d", ok, insufficient)
	}
	if got := store.event(1).AvailableSeats; got != 1 {
		t.Fatalf("expected 1 seat left, got %d", got)
	}
	if len(store.bookings) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(store.bookings))
	}
}

func TestBookingService_Cancel(t *testing.T) {
	t.Parallel()

	reserve := func(t *testing.T, store *fakeStore, svc *BookingService, user uint64, tickets uint32) model.Booking {
		t.Helper()
		b, err := svc.Reserve(context.Background(), 1, user, tickets)
		if err != nil {
			t.Fatalf("reserve failed: %v", err)
		}
		return b
	}

	t.Run("restores seats and flips status", func(t *testing.T) {
		store := newFakeStore(testEvent(1, 10, 10))
		disp := newRecordingDispatcher()
		svc := NewBookingService(store, disp, clock.NewFixed(testNow))
		b := reserve(t, store, svc, 7, 4)

		cancelled, err := svc.Cancel(context.Background(), b.ID, 7)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cancelled.Status != model.BookingCancelled {
			t.Fatalf("expected status %s, got %s", model.BookingCancelled, cancelled.Status)
		}
		if got := store.event(1).AvailableSeats; got != 10 {
			t.Fatalf("expected all 10 seats back, got %d", got)
		}

		<-disp.confirmed
		select {
		case ev := <-disp.cancelled:
			if ev.BookingID != b.ID || ev.Tickets != 4 {
				t.Fatalf("unexpected cancellation payload: %+v", ev)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("expected a cancellation dispatch")
		}
	})

	t.Run("rejects a second cancel", func(t *testing.T) {
		store := newFakeStore(testEvent(1, 10, 10))
		svc := NewBookingService(store, nil, clock.NewFixed(testNow))
		b := reserve(t, store, svc, 7, 2)

		if _, err := svc.Cancel(context.Background(), b.ID, 7); err != nil {
			t.Fatalf("first cancel failed: %v", err)
		}
		if _, err := svc.Cancel(context.Background(), b.ID, 7); !errors.Is(err, ErrAlreadyCancelled) {
			t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
		}
		if got := store.event(1).AvailableSeats; got != 10 {
			t.Fatalf("expected seats restored once, got %d", got)
		}
	})

	t.Run("rejects another user's booking", func(t *testing.T) {
		store := newFakeStore(testEvent(1, 10, 10))
		svc := NewBookingService(store, nil, clock.NewFixed(testNow))
		b := reserve(t, store, svc, 7, 2)

		if _, err := svc.Cancel(context.Background(), b.ID, 8); !errors.Is(err, repository.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if got := store.event(1).AvailableSeats; got != 8 {
			t.Fatalf("expected seats still held, got %d", got)
		}
	})

	t.Run("rejects cancel after the event started", func(t *testing.T) {
		store := newFakeStore(testEvent(1, 10, 10))
		svc := NewBookingService(store, nil, clock.NewFixed(testNow))
		b := reserve(t, store, svc, 7, 2)

		late := NewBookingService(store, nil, clock.NewFixed(testNow.Add(72*time.Hour)))
		if _, err := late.Cancel(context.Background(), b.ID, 7); !errors.Is(err, ErrTooLateToCancel) {
			t.Fatalf("expected ErrTooLateToCancel, got %v", err)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		store := newFakeStore(testEvent(1, 10, 10))
		svc := NewBookingService(store, nil, clock.NewFixed(testNow))

		if _, err := svc.Cancel(context.Background(), 42, 7); !errors.Is(err, repository.ErrBookingNotFound) {
			t.Fatalf("expected ErrBookingNotFound, got %v", err)
		}
	})
}
