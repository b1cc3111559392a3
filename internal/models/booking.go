package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking is a confirmed seat on a session, created when a pending
// registration's payment succeeds. At most one non-canceled booking exists
// per (session, email).
type Booking struct {
	ID                    uuid.UUID  `json:"id"`
	SessionID             uuid.UUID  `json:"session_id"`
	PendingRegistrationID uuid.UUID  `json:"pending_registration_id"`
	Email                 string     `json:"email"`
	FullName              string     `json:"full_name"`
	AmountCents           int        `json:"amount_cents"`
	Currency              string     `json:"currency"`
	ProviderPaymentID     string     `json:"provider_payment_id,omitempty"`
	CanceledAt            *time.Time `json:"canceled_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
