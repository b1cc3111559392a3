package checkout

import "errors"

var (
	// ErrSessionNotFound means the session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed means the session has already started and cannot be booked.
	ErrSessionClosed = errors.New("session closed for booking")
	// ErrSessionFull means confirmed bookings plus active holds have reached capacity.
	ErrSessionFull = errors.New("session full")
	// ErrAlreadyBooked means the email already holds a confirmed booking on the session.
	ErrAlreadyBooked = errors.New("already booked")
	// ErrHoldNotFound means no hold exists for the checkout token.
	ErrHoldNotFound = errors.New("hold not found")
	// ErrHoldExpired means the hold expired or was released before confirmation.
	ErrHoldExpired = errors.New("hold expired")
	// ErrHoldConfirmed means the hold was already converted into a booking.
	ErrHoldConfirmed = errors.New("hold already confirmed")
)
