package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a schedulable tutoring/exam slot with fixed capacity.
type Session struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	StartsAt      time.Time  `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	Capacity      int        `json:"capacity"`
	PriceCents    int        `json:"price_cents"`
	Currency      string     `json:"currency"`
	ProductID     *uuid.UUID `json:"product_id,omitempty"`
	CoverImageURL string     `json:"cover_image_url,omitempty"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SessionAvailability is a session's seat accounting at a point in time.
// Remaining = Capacity - Booked - ActiveHolds, floored at zero.
type SessionAvailability struct {
	SessionID   uuid.UUID `json:"session_id"`
	Capacity    int       `json:"capacity"`
	Booked      int       `json:"booked"`
	ActiveHolds int       `json:"active_holds"`
	Remaining   int       `json:"remaining"`
}
