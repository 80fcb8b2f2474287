// Package repository defines error values that are shared across
// repositories.  These sentinels let handlers and services distinguish
// failure scenarios without string matching.  ErrEventNotFound and
// ErrBookingNotFound replace raw sql.ErrNoRows at the package boundary;
// ErrForbidden indicates an ownership violation discovered while
// loading a row.
package repository

import "errors"

// ErrEventNotFound indicates that an event was not located in the DB.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict signals that an operation cannot proceed because of
// dependent records, such as deleting an event that still has
// confirmed bookings.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
