package bookings

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VenkaSri/booking-backend/internal/models"
)

// Repository handles confirmed booking persistence. Bookings are created by
// the checkout store; this repository covers reads and cancellation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a bookings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bookingColumns = `id, session_id, pending_registration_id, email, full_name, amount_cents, currency, COALESCE(provider_payment_id, ''), canceled_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.SessionID, &b.PendingRegistrationID, &b.Email, &b.FullName,
		&b.AmountCents, &b.Currency, &b.ProviderPaymentID, &b.CanceledAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByID returns a booking by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

// ListBySession returns all bookings for a session, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE session_id = $1 ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

// CountBySession returns total and canceled booking counts for a session.
func (r *Repository) CountBySession(ctx context.Context, sessionID uuid.UUID) (total, canceled int, err error) {
	const q = `SELECT COUNT(*), COUNT(canceled_at) FROM bookings WHERE session_id = $1`
	err = r.pool.QueryRow(ctx, q, sessionID).Scan(&total, &canceled)
	return total, canceled, err
}

// Cancel sets canceled_at for a booking, freeing the seat. No-op if already canceled.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx,
		`UPDATE bookings SET canceled_at = COALESCE(canceled_at, NOW()), updated_at = NOW()
		 WHERE id = $1 RETURNING `+bookingColumns, id))
	if err != nil {
		return nil, err
	}
	return b, nil
}
