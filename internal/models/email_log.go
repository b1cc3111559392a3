package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType for notification emails.
const (
	EmailTypeBookingConfirmation = "booking_confirmation"
	EmailTypeBookingCanceled     = "booking_canceled"
	EmailTypeHoldExpired         = "hold_expired"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records notification emails and their delivery outcome.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      *uuid.UUID `json:"session_id,omitempty"`
	BookingID      *uuid.UUID `json:"booking_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
