//go:build integration

package sessions

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/VenkaSri/booking-backend/internal/models"
	"github.com/VenkaSri/booking-backend/pkg/database"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/sessions

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func createTestUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	var userID uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (email, password_hash, full_name, role) VALUES ($1, 'x', 'Fixture Admin', 'admin') RETURNING id`,
		fmt.Sprintf("admin-%s@example.com", uuid.New())).Scan(&userID)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return userID
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestUpdatePreservesUntouchedFields(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	s := &models.Session{
		Title:       "Mock Exam",
		Description: "Covers papers one and two.",
		StartsAt:    time.Now().Add(time.Hour),
		Capacity:    10,
		PriceCents:  5000,
		Currency:    "usd",
		CreatedBy:   createTestUser(t, pool),
	}
	assert.NoError(t, repo.Create(ctx, s))

	// A capacity-only patch leaves title and description alone.
	assert.NoError(t, repo.Update(ctx, s.ID, "", nil, nil, nil, intPtr(25), nil))

	got, err := repo.GetByID(ctx, s.ID)
	assert.NoError(t, err)
	assert.Equal(t, 25, got.Capacity)
	assert.Equal(t, "Mock Exam", got.Title)
	assert.Equal(t, "Covers papers one and two.", got.Description)
	assert.Equal(t, 5000, got.PriceCents)

	// A present description replaces the stored one, including with "".
	assert.NoError(t, repo.Update(ctx, s.ID, "", strPtr("Rescheduled."), nil, nil, nil, nil))
	got, err = repo.GetByID(ctx, s.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Rescheduled.", got.Description)
	assert.Equal(t, 25, got.Capacity)

	assert.NoError(t, repo.Update(ctx, s.ID, "", strPtr(""), nil, nil, nil, nil))
	got, err = repo.GetByID(ctx, s.ID)
	assert.NoError(t, err)
	assert.Equal(t, "", got.Description)
}

func TestUpdateUnknownSession(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)

	err := repo.Update(context.Background(), uuid.New(), "New Title", nil, nil, nil, nil, nil)
	assert.True(t, IsNotFound(err))
}
