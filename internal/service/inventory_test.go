package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/event-ticket-booking/internal/clock"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

func TestBookingService_UpdateCapacity(t *testing.T) {
	t.Parallel()

	makeSvc := func(ev model.Event) (*BookingService, *fakeStore) {
		store := newFakeStore(ev)
		return NewBookingService(store, nil, clock.NewFixed(testNow)), store
	}

	t.Run("grows capacity and availability together", func(t *testing.T) {
		// 100 total, 80 booked, 20 available.
		svc, store := makeSvc(testEvent(1, 100, 20))

		ev, err := svc.UpdateCapacity(context.Background(), 1, 150)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ev.TotalSeats != 150 || ev.AvailableSeats != 70 {
			t.Fatalf("expected 150/70, got %d/%d", ev.TotalSeats, ev.AvailableSeats)
		}
		if got := store.event(1); got.TotalSeats != 150 || got.AvailableSeats != 70 {
			t.Fatalf("store not updated: %d/%d", got.TotalSeats, got.AvailableSeats)
		}
	})

	t.Run("shrinking below booked floors availability at zero", func(t *testing.T) {
		// 100 total, 80 booked.
		svc, _ := makeSvc(testEvent(1, 100, 20))

		ev, err := svc.UpdateCapacity(context.Background(), 1, 50)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ev.TotalSeats != 50 || ev.AvailableSeats != 0 {
			t.Fatalf("expected 50/0, got %d/%d", ev.TotalSeats, ev.AvailableSeats)
		}
	})

	t.Run("shrink that still covers booked seats", func(t *testing.T) {
		// 100 total, 80 booked: 90 keeps 10 available.
		svc, _ := makeSvc(testEvent(1, 100, 20))

		ev, err := svc.UpdateCapacity(context.Background(), 1, 90)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ev.AvailableSeats != 10 {
			t.Fatalf("expected 10 available, got %d", ev.AvailableSeats)
		}
	})

	t.Run("rejects zero capacity", func(t *testing.T) {
		svc, _ := makeSvc(testEvent(1, 10, 10))

		if _, err := svc.UpdateCapacity(context.Background(), 1, 0); !errors.Is(err, ErrInvalidCapacity) {
			t.Fatalf("expected ErrInvalidCapacity, got %v", err)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		svc, _ := makeSvc(testEvent(1, 10, 10))

		if _, err := svc.UpdateCapacity(context.Background(), 99, 10); !errors.Is(err, repository.ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})
}
