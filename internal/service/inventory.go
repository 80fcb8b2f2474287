package service

import (
	"context"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// UpdateCapacity changes an event's total seats and recomputes the
// available counter in the same atomic unit, so a concurrent Reserve
// never observes a half-updated pair.  Seats already committed to
// confirmed bookings are preserved: shrinking capacity below the
// booked count floors availability at zero rather than invalidating
// existing bookings.  Fails with repository.ErrEventNotFound or
// ErrInvalidCapacity (newTotalSeats < 1).
func (s *BookingService) UpdateCapacity(ctx context.Context, eventID uint64, newTotalSeats uint32) (model.Event, error) {
	if newTotalSeats < 1 {
		return model.Event{}, ErrInvalidCapacity
	}

	var updated model.Event
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		ev, err := s.store.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		booked := ev.BookedSeats()
		var available uint32
		if newTotalSeats > booked {
			available = newTotalSeats - booked
		}
		if err := s.store.SetSeatCounts(txCtx, ev.ID, newTotalSeats, available); err != nil {
			return err
		}
		ev.TotalSeats = newTotalSeats
		ev.AvailableSeats = available
		updated = ev
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}
	return updated, nil
}
