package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VenkaSri/booking-backend/internal/models"
)

// Repository handles session persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a sessions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const sessionColumns = `id, title, description, starts_at, ends_at, capacity, price_cents, currency, product_id, COALESCE(cover_image_url, ''), created_by, created_at, updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.StartsAt, &s.EndsAt, &s.Capacity,
		&s.PriceCents, &s.Currency, &s.ProductID, &s.CoverImageURL, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new session.
func (r *Repository) Create(ctx context.Context, s *models.Session) error {
	const q = `INSERT INTO sessions (title, description, starts_at, ends_at, capacity, price_cents, currency, product_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.Title, s.Description, s.StartsAt, s.EndsAt, s.Capacity,
		s.PriceCents, s.Currency, s.ProductID, s.CreatedBy).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns a session by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

// SessionWithAvailability pairs a session with its current seat accounting.
type SessionWithAvailability struct {
	models.Session
	Booked      int `json:"booked"`
	ActiveHolds int `json:"active_holds"`
	Remaining   int `json:"remaining"`
}

// ListUpcoming returns sessions starting after now with remaining-seat counts,
// soonest first.
func (r *Repository) ListUpcoming(ctx context.Context, now time.Time) ([]SessionWithAvailability, error) {
	const q = `SELECT ` + sessionColumns + `,
		(SELECT COUNT(*) FROM bookings b WHERE b.session_id = sessions.id AND b.canceled_at IS NULL) AS booked,
		(SELECT COUNT(*) FROM pending_registrations p WHERE p.session_id = sessions.id AND p.status = 'pending' AND p.expires_at > $1) AS active_holds
		FROM sessions WHERE starts_at > $1 ORDER BY starts_at`
	rows, err := r.pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []SessionWithAvailability
	for rows.Next() {
		var s SessionWithAvailability
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.StartsAt, &s.EndsAt, &s.Capacity,
			&s.PriceCents, &s.Currency, &s.ProductID, &s.CoverImageURL, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
			&s.Booked, &s.ActiveHolds); err != nil {
			return nil, err
		}
		s.Remaining = s.Capacity - s.Booked - s.ActiveHolds
		if s.Remaining < 0 {
			s.Remaining = 0
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Update updates session fields. Nil pointers keep existing values.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title string, description *string, startsAt, endsAt *time.Time, capacity, priceCents *int) error {
	const q = `UPDATE sessions SET
		title = COALESCE(NULLIF($1, ''), title),
		description = COALESCE($2, description),
		starts_at = COALESCE($3, starts_at),
		ends_at = COALESCE($4, ends_at),
		capacity = COALESCE($5, capacity),
		price_cents = COALESCE($6, price_cents),
		updated_at = NOW()
		WHERE id = $7`
	tag, err := r.pool.Exec(ctx, q, title, description, startsAt, endsAt, capacity, priceCents, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetCoverImage stores the cover image URL for a session.
func (r *Repository) SetCoverImage(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sessions SET cover_image_url = $2, updated_at = NOW() WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a session by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// IsNotFound reports whether err is the no-rows sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
