package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VenkaSri/booking-backend/internal/models"
	"github.com/VenkaSri/booking-backend/pkg/queue"
)

// SessionGetter loads session details for email subjects.
type SessionGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
}

// Enqueuer queues email jobs for the mailer worker.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// Notifier records and queues booking notification emails. Implements
// checkout.Notifier.
type Notifier struct {
	repo     *Repository
	sessions SessionGetter
	queue    Enqueuer
	logger   *zap.Logger
}

// NewNotifier creates a notifier.
func NewNotifier(repo *Repository, sessions SessionGetter, q Enqueuer, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{repo: repo, sessions: sessions, queue: q, logger: logger}
}

// BookingConfirmed logs and queues the confirmation email for a new booking.
func (n *Notifier) BookingConfirmed(ctx context.Context, booking *models.Booking) error {
	session, err := n.sessions.GetByID(ctx, booking.SessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	subject := fmt.Sprintf("Booking confirmed: %s", session.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour seat for %q on %s is confirmed.\nBooking reference: %s\n",
		booking.FullName, session.Title, session.StartsAt.Format(time.RFC1123), booking.ID,
	)

	el := &models.EmailLog{
		SessionID:      &booking.SessionID,
		BookingID:      &booking.ID,
		EmailType:      models.EmailTypeBookingConfirmation,
		RecipientEmail: booking.Email,
		Subject:        subject,
	}
	if err := n.repo.Create(ctx, el); err != nil {
		return fmt.Errorf("create email log: %w", err)
	}

	err = n.queue.EnqueueEmail(ctx, queue.EmailPayload{
		EmailType:      el.EmailType,
		SessionID:      booking.SessionID,
		BookingID:      booking.ID,
		EmailLogID:     el.ID,
		RecipientEmail: booking.Email,
		Subject:        subject,
		Body:           body,
	})
	if err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	n.logger.Debug("confirmation email queued", zap.String("booking_id", booking.ID.String()))
	return nil
}
