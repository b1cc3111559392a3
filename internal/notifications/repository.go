package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VenkaSri/booking-backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an email log in pending state.
func (r *Repository) Create(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (session_id, booking_id, email_type, recipient_email, subject, status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), 'pending')
		RETURNING id, status, created_at`
	return r.pool.QueryRow(ctx, q, el.SessionID, el.BookingID, el.EmailType, el.RecipientEmail, el.Subject).
		Scan(&el.ID, &el.Status, &el.CreatedAt)
}

// GetByID returns an email log by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error) {
	const q = `SELECT id, session_id, booking_id, email_type, recipient_email, COALESCE(subject, ''), status, sent_at, COALESCE(error_message, ''), created_at
		FROM email_logs WHERE id = $1`
	var el models.EmailLog
	err := r.pool.QueryRow(ctx, q, id).Scan(&el.ID, &el.SessionID, &el.BookingID, &el.EmailType,
		&el.RecipientEmail, &el.Subject, &el.Status, &el.SentAt, &el.ErrorMessage, &el.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &el, nil
}

// ListBySession returns email logs for a session, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.EmailLog, error) {
	const q = `SELECT id, session_id, booking_id, email_type, recipient_email, COALESCE(subject, ''), status, sent_at, COALESCE(error_message, ''), created_at
		FROM email_logs WHERE session_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		if err := rows.Scan(&el.ID, &el.SessionID, &el.BookingID, &el.EmailType,
			&el.RecipientEmail, &el.Subject, &el.Status, &el.SentAt, &el.ErrorMessage, &el.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, el)
	}
	return list, rows.Err()
}

// MarkSent sets status sent and sent_at for an email log.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_logs SET status = 'sent', sent_at = NOW(), error_message = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkFailed sets status failed with the delivery error.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	const q = `UPDATE email_logs SET status = 'failed', error_message = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, errMsg)
	return err
}

// MarkPending resets a log to pending (for resend).
func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_logs SET status = 'pending', error_message = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}
