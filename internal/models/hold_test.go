package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoldActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	pending := &PendingRegistration{Status: HoldStatusPending, ExpiresAt: now.Add(time.Minute)}
	assert.True(t, pending.Active(now))

	// A hold stops counting the instant expires_at passes, sweeper or not.
	lapsed := &PendingRegistration{Status: HoldStatusPending, ExpiresAt: now}
	assert.False(t, lapsed.Active(now))

	for _, status := range []string{HoldStatusConfirmed, HoldStatusExpired, HoldStatusReleased} {
		h := &PendingRegistration{Status: status, ExpiresAt: now.Add(time.Hour)}
		assert.False(t, h.Active(now), status)
	}
}
