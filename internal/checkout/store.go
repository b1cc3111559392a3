package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/VenkaSri/booking-backend/internal/models"
)

// PlaceHoldParams are the inputs for placing a seat hold.
type PlaceHoldParams struct {
	SessionID     uuid.UUID
	Email         string
	FullName      string
	CheckoutToken string
	ExpiresAt     time.Time
	Now           time.Time
}

// Store is the persistence boundary for the checkout flow. The implementation
// must make each operation atomic: PlaceHold in particular performs the
// capacity check and the hold insert under the same session row lock.
type Store interface {
	// PlaceHold locks the session row, counts seats taken (confirmed bookings
	// plus pending holds with expires_at > now) and inserts a hold when a seat
	// remains. An active hold for the same email is refreshed and returned
	// instead of stacking a second one.
	// Errors: ErrSessionNotFound, ErrSessionClosed, ErrSessionFull, ErrAlreadyBooked.
	PlaceHold(ctx context.Context, p PlaceHoldParams) (*models.PendingRegistration, error)

	// ConfirmHold converts a pending hold into a booking. Returns the booking
	// and whether it already existed (idempotent repeat).
	// Errors: ErrHoldNotFound, ErrHoldExpired.
	ConfirmHold(ctx context.Context, checkoutToken, providerPaymentID string, now time.Time) (*models.Booking, bool, error)

	// ReleaseHold marks a pending hold released (payment failed or canceled).
	// Repeat releases are no-ops. Errors: ErrHoldNotFound, ErrHoldConfirmed.
	ReleaseHold(ctx context.Context, checkoutToken string, now time.Time) (*models.PendingRegistration, error)

	// GetHoldByToken returns the hold for a checkout token.
	GetHoldByToken(ctx context.Context, checkoutToken string) (*models.PendingRegistration, error)

	// ExpireStale marks pending holds with expires_at <= now as expired and
	// returns them so availability can be re-broadcast.
	ExpireStale(ctx context.Context, now time.Time) ([]models.PendingRegistration, error)

	// Availability returns the seat accounting for a session.
	// Errors: ErrSessionNotFound.
	Availability(ctx context.Context, sessionID uuid.UUID, now time.Time) (*models.SessionAvailability, error)
}
