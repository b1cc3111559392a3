package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	assert.Equal(t, 7, remaining(10, 2, 1))
	assert.Equal(t, 0, remaining(10, 10, 0))
	assert.Equal(t, 0, remaining(10, 8, 2))
	// Overbooked sessions (capacity lowered after sales) report zero, not negative.
	assert.Equal(t, 0, remaining(5, 6, 2))
}
