package models

import (
	"time"

	"github.com/google/uuid"
)

// HoldStatus for pending registrations.
const (
	HoldStatusPending   = "pending"
	HoldStatusConfirmed = "confirmed"
	HoldStatusExpired   = "expired"
	HoldStatusReleased  = "released"
)

// PendingRegistration is a time-limited seat hold created at checkout start.
// It counts against session capacity until it is confirmed, released, or its
// expires_at passes.
type PendingRegistration struct {
	ID            uuid.UUID  `json:"id"`
	SessionID     uuid.UUID  `json:"session_id"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	CheckoutToken string     `json:"checkout_token"`
	Status        string     `json:"status"`
	AmountCents   int        `json:"amount_cents"`
	Currency      string     `json:"currency"`
	ExpiresAt     time.Time  `json:"expires_at"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Active reports whether the hold still counts against capacity at the given time.
func (p *PendingRegistration) Active(now time.Time) bool {
	return p.Status == HoldStatusPending && now.Before(p.ExpiresAt)
}
