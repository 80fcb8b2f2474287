package model

import "time"

// Booking status values as stored in the bookings.status column.
const (
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingPending   = "PENDING"
)

// Booking is a ledger entry recording a user's reservation of N
// tickets at a point-in-time price.  TotalAmountCents is fixed at
// booking time (price × tickets) and never recomputed afterwards.
// Bookings are never deleted; cancellation only flips Status to
// CANCELLED.
//
// Fields:
//  ID               – primary key identifier.
//  Reference        – public UUID handed to clients.
//  UserID           – user who made the booking (ownership checked on cancel).
//  EventID          – event being booked.
//  Tickets          – number of tickets reserved (>= 1).
//  TotalAmountCents – amount charged, immutable after creation.
//  Status           – CONFIRMED, CANCELLED or PENDING.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Booking struct {
	ID               uint64    // bookings.id
	Reference        string    // bookings.reference
	UserID           uint64    // bookings.user_id
	EventID          uint64    // bookings.event_id
	Tickets          uint32    // bookings.tickets
	TotalAmountCents uint64    // bookings.total_amount_cents
	Status           string    // bookings.status
	CreatedAt        time.Time // bookings.created_at
	UpdatedAt        time.Time // bookings.updated_at
}
