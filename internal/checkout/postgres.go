package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VenkaSri/booking-backend/internal/models"
)

// PostgresStore implements Store on a pgx pool. Capacity arbitration relies on
// a per-session row lock: concurrent checkouts for the same session serialize
// on SELECT ... FOR UPDATE, so the seats-taken count and the hold insert are
// atomic with respect to each other.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a checkout store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const holdColumns = `id, session_id, email, full_name, checkout_token, status, amount_cents, currency, expires_at, confirmed_at, created_at, updated_at`

func scanHold(row pgx.Row) (*models.PendingRegistration, error) {
	var h models.PendingRegistration
	err := row.Scan(&h.ID, &h.SessionID, &h.Email, &h.FullName, &h.CheckoutToken, &h.Status,
		&h.AmountCents, &h.Currency, &h.ExpiresAt, &h.ConfirmedAt, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// PlaceHold implements Store.
func (s *PostgresStore) PlaceHold(ctx context.Context, p PlaceHoldParams) (*models.PendingRegistration, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize concurrent checkouts per session.
	var capacity, priceCents int
	var currency string
	var startsAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT capacity, price_cents, currency, starts_at FROM sessions WHERE id = $1 FOR UPDATE`,
		p.SessionID).Scan(&capacity, &priceCents, &currency, &startsAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lock session: %w", err)
	}
	if !p.Now.Before(startsAt) {
		return nil, ErrSessionClosed
	}

	var booked int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE session_id = $1 AND email = $2 AND canceled_at IS NULL`,
		p.SessionID, p.Email).Scan(&booked)
	if err != nil {
		return nil, fmt.Errorf("check booking: %w", err)
	}
	if booked > 0 {
		return nil, ErrAlreadyBooked
	}

	// An active hold for the same email is refreshed, not duplicated.
	existing, err := scanHold(tx.QueryRow(ctx,
		`UPDATE pending_registrations SET expires_at = $3, full_name = $4, updated_at = NOW()
		 WHERE session_id = $1 AND email = $2 AND status = 'pending' AND expires_at > $5
		 RETURNING `+holdColumns,
		p.SessionID, p.Email, p.ExpiresAt, p.FullName, p.Now))
	if err == nil {
		if cErr := tx.Commit(ctx); cErr != nil {
			return nil, fmt.Errorf("commit: %w", cErr)
		}
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("refresh hold: %w", err)
	}

	var taken int
	err = tx.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM bookings WHERE session_id = $1 AND canceled_at IS NULL)
		      + (SELECT COUNT(*) FROM pending_registrations WHERE session_id = $1 AND status = 'pending' AND expires_at > $2)`,
		p.SessionID, p.Now).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("count seats: %w", err)
	}
	if taken >= capacity {
		return nil, ErrSessionFull
	}

	hold, err := scanHold(tx.QueryRow(ctx,
		`INSERT INTO pending_registrations (session_id, email, full_name, checkout_token, status, amount_cents, currency, expires_at)
		 VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7)
		 RETURNING `+holdColumns,
		p.SessionID, p.Email, p.FullName, p.CheckoutToken, priceCents, currency, p.ExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("insert hold: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return hold, nil
}

const bookingColumns = `id, session_id, pending_registration_id, email, full_name, amount_cents, currency, provider_payment_id, canceled_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	var paymentID *string
	err := row.Scan(&b.ID, &b.SessionID, &b.PendingRegistrationID, &b.Email, &b.FullName,
		&b.AmountCents, &b.Currency, &paymentID, &b.CanceledAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if paymentID != nil {
		b.ProviderPaymentID = *paymentID
	}
	return &b, nil
}

// ConfirmHold implements Store.
func (s *PostgresStore) ConfirmHold(ctx context.Context, checkoutToken, providerPaymentID string, now time.Time) (*models.Booking, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	hold, err := scanHold(tx.QueryRow(ctx,
		`SELECT `+holdColumns+` FROM pending_registrations WHERE checkout_token = $1 FOR UPDATE`,
		checkoutToken))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrHoldNotFound
		}
		return nil, false, fmt.Errorf("lock hold: %w", err)
	}

	switch hold.Status {
	case models.HoldStatusConfirmed:
		booking, err := scanBooking(tx.QueryRow(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE pending_registration_id = $1`, hold.ID))
		if err != nil {
			return nil, false, fmt.Errorf("load booking: %w", err)
		}
		if cErr := tx.Commit(ctx); cErr != nil {
			return nil, false, fmt.Errorf("commit: %w", cErr)
		}
		return booking, true, nil
	case models.HoldStatusExpired, models.HoldStatusReleased:
		return nil, false, ErrHoldExpired
	}
	// A hold past its expiry no longer counts against capacity, so it cannot
	// be confirmed even before the sweeper has marked it.
	if !now.Before(hold.ExpiresAt) {
		return nil, false, ErrHoldExpired
	}

	booking, err := scanBooking(tx.QueryRow(ctx,
		`INSERT INTO bookings (session_id, pending_registration_id, email, full_name, amount_cents, currency, provider_payment_id)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		 RETURNING `+bookingColumns,
		hold.SessionID, hold.ID, hold.Email, hold.FullName, hold.AmountCents, hold.Currency, providerPaymentID))
	if err != nil {
		return nil, false, fmt.Errorf("insert booking: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE pending_registrations SET status = 'confirmed', confirmed_at = $2, updated_at = NOW() WHERE id = $1`,
		hold.ID, now)
	if err != nil {
		return nil, false, fmt.Errorf("confirm hold: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	return booking, false, nil
}

// ReleaseHold implements Store.
func (s *PostgresStore) ReleaseHold(ctx context.Context, checkoutToken string, now time.Time) (*models.PendingRegistration, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	hold, err := scanHold(tx.QueryRow(ctx,
		`SELECT `+holdColumns+` FROM pending_registrations WHERE checkout_token = $1 FOR UPDATE`,
		checkoutToken))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("lock hold: %w", err)
	}

	switch hold.Status {
	case models.HoldStatusConfirmed:
		return nil, ErrHoldConfirmed
	case models.HoldStatusReleased, models.HoldStatusExpired:
		if cErr := tx.Commit(ctx); cErr != nil {
			return nil, fmt.Errorf("commit: %w", cErr)
		}
		return hold, nil
	}

	hold, err = scanHold(tx.QueryRow(ctx,
		`UPDATE pending_registrations SET status = 'released', updated_at = NOW() WHERE id = $1 RETURNING `+holdColumns,
		hold.ID))
	if err != nil {
		return nil, fmt.Errorf("release hold: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return hold, nil
}

// GetHoldByToken implements Store.
func (s *PostgresStore) GetHoldByToken(ctx context.Context, checkoutToken string) (*models.PendingRegistration, error) {
	hold, err := scanHold(s.pool.QueryRow(ctx,
		`SELECT `+holdColumns+` FROM pending_registrations WHERE checkout_token = $1`, checkoutToken))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	return hold, nil
}

// ExpireStale implements Store.
func (s *PostgresStore) ExpireStale(ctx context.Context, now time.Time) ([]models.PendingRegistration, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE pending_registrations SET status = 'expired', updated_at = NOW()
		 WHERE status = 'pending' AND expires_at <= $1
		 RETURNING `+holdColumns, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.PendingRegistration
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *h)
	}
	return list, rows.Err()
}

// Availability implements Store.
func (s *PostgresStore) Availability(ctx context.Context, sessionID uuid.UUID, now time.Time) (*models.SessionAvailability, error) {
	const q = `SELECT s.capacity,
		(SELECT COUNT(*) FROM bookings b WHERE b.session_id = s.id AND b.canceled_at IS NULL),
		(SELECT COUNT(*) FROM pending_registrations p WHERE p.session_id = s.id AND p.status = 'pending' AND p.expires_at > $2)
		FROM sessions s WHERE s.id = $1`
	av := models.SessionAvailability{SessionID: sessionID}
	err := s.pool.QueryRow(ctx, q, sessionID, now).Scan(&av.Capacity, &av.Booked, &av.ActiveHolds)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	av.Remaining = remaining(av.Capacity, av.Booked, av.ActiveHolds)
	return &av, nil
}

// remaining floors seat arithmetic at zero.
func remaining(capacity, booked, activeHolds int) int {
	r := capacity - booked - activeHolds
	if r < 0 {
		return 0
	}
	return r
}
