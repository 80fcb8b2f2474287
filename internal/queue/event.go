// Package queue defines message payloads exchanged over the message
// broker, the publisher that emits them and the background consumer
// that delivers notifications.  Publishing is always best-effort: a
// broker failure is logged and never surfaces to the request that
// committed the booking.
package queue

// BookingConfirmedEvent is published after a reservation commits.  It
// carries enough information for downstream consumers to notify the
// customer and write audit lines without querying the events table.
// The user's email is resolved by the consumer.
type BookingConfirmedEvent struct {
	BookingID        uint64 `json:"booking_id"`
	Reference        string `json:"reference"`
	UserID           uint64 `json:"user_id"`
	EventID          uint64 `json:"event_id"`
	EventTitle       string `json:"event_title"`
	EventStartsAt    string `json:"event_starts_at"`
	EventVenue       string `json:"event_venue"`
	Tickets          uint32 `json:"tickets"`
	TotalAmountCents uint64 `json:"total_amount_cents"`
	ConfirmedAt      string `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a cancellation commits.
type BookingCancelledEvent struct {
	BookingID     uint64 `json:"booking_id"`
	Reference     string `json:"reference"`
	UserID        uint64 `json:"user_id"`
	EventID       uint64 `json:"event_id"`
	EventTitle    string `json:"event_title"`
	EventStartsAt string `json:"event_starts_at"`
	Tickets       uint32 `json:"tickets"`
	CancelledAt   string `json:"cancelled_at"`
}
