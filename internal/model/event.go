package model

import "time"

// Event represents a schedulable, bookable offering with a finite
// seat capacity.  Seat counters are the only capacity-tracking
// resource: AvailableSeats is mutated exclusively by the booking
// transaction manager and by the admin capacity guard, never
// directly by handlers.
//
// Invariant: 0 <= AvailableSeats <= TotalSeats at all times.
//
// Fields:
//  ID             – primary key identifier.
//  Title          – event name shown in listings.
//  Description    – free-form description text.
//  StartsAt       – when the event begins (UTC).
//  Venue          – where the event takes place.
//  Category       – classification used for browsing filters.
//  PriceCents     – ticket price in cents (non-negative).
//  TotalSeats     – total capacity (>= 1).
//  AvailableSeats – seats still open for booking.
//  ImageURL       – optional promotional image reference.
//  CreatedBy      – user ID of the admin who created the event.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Event struct {
	ID             uint64    // events.id
	Title          string    // events.title
	Description    string    // events.description
	StartsAt       time.Time // events.starts_at
	Venue          string    // events.venue
	Category       string    // events.category
	PriceCents     uint32    // events.price_cents
	TotalSeats     uint32    // events.total_seats
	AvailableSeats uint32    // events.available_seats
	ImageURL       *string   // events.image_url (nullable)
	CreatedBy      uint64    // events.created_by
	CreatedAt      time.Time // events.created_at
	UpdatedAt      time.Time // events.updated_at
}

// BookedSeats returns the number of seats currently committed to
// confirmed bookings, derived from the two counters.
func (e Event) BookedSeats() uint32 {
	if e.AvailableSeats > e.TotalSeats {
		return 0
	}
	return e.TotalSeats - e.AvailableSeats
}
