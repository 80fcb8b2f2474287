// Package service implements the booking transaction manager: the one
// place where seat counters and the booking ledger are mutated.  All
// mutations run inside a single storage transaction with the event row
// locked, so concurrent reservations against the same event serialize
// and never oversell.
package service

import "errors"

// ErrInvalidTicketCount is returned when a reservation asks for fewer
// than one ticket.
var ErrInvalidTicketCount = errors.New("ticket count must be at least 1")

// ErrInsufficientSeats is returned when an event does not have enough
// available seats for the requested reservation.
var ErrInsufficientSeats = errors.New("not enough seats available")

// ErrEventAlreadyStarted is returned when a reservation targets an
// event whose scheduled time is not strictly in the future.
var ErrEventAlreadyStarted = errors.New("event already started")

// ErrAlreadyCancelled is returned when cancelling a booking that is
// already cancelled.  The seat counter is never restored twice.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrTooLateToCancel is returned when the booking's event has already
// started.  The cutoff is exactly the event start time; there is no
// grace window.
var ErrTooLateToCancel = errors.New("too late to cancel")

// ErrInvalidCapacity is returned when an admin tries to set an event's
// total seats below 1.
var ErrInvalidCapacity = errors.New("total seats must be at least 1")
