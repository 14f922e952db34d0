package session

import "errors"

// The original client degraded every out-of-precondition call to a silent
// no-op. Here each guard surfaces a typed error so callers can tell user
// mistakes from broken flows.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("operation requires admin role")
	ErrInvalidPhone     = errors.New("phone must not be empty")

	ErrOfferNotFound       = errors.New("offer not found")
	ErrActiveBookingExists = errors.New("an active booking already exists")
	ErrNoActiveBooking     = errors.New("no active booking")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrAlreadyRated        = errors.New("booking already rated")
	ErrInvalidRating       = errors.New("rating must be an integer between 1 and 5")

	ErrJobNotFound      = errors.New("job not found in pending queue")
	ErrJobAlreadyActive = errors.New("an active job already exists")
	ErrNoActiveJob      = errors.New("no active job")

	ErrInvalidTransition = errors.New("invalid status transition")
)
