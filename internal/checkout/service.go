package checkout

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VenkaSri/booking-backend/internal/models"
)

// Broadcaster pushes availability changes to connected clients.
type Broadcaster interface {
	BroadcastAvailability(av models.SessionAvailability)
}

// Notifier queues outbound notifications for completed checkouts.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *models.Booking) error
}

// Service implements the checkout flow: hold placement, confirmation on
// payment success, release on failure, and stale-hold expiry.
type Service struct {
	store       Store
	broadcaster Broadcaster
	notifier    Notifier
	holdTTL     time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a checkout service. broadcaster and notifier may be nil.
func NewService(store Store, broadcaster Broadcaster, notifier Notifier, holdTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if holdTTL <= 0 {
		holdTTL = 15 * time.Minute
	}
	return &Service{
		store:       store,
		broadcaster: broadcaster,
		notifier:    notifier,
		holdTTL:     holdTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// Start places a seat hold for the session and returns it with its checkout token.
func (s *Service) Start(ctx context.Context, sessionID uuid.UUID, email, fullName string) (*models.PendingRegistration, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	hold, err := s.store.PlaceHold(ctx, PlaceHoldParams{
		SessionID:     sessionID,
		Email:         email,
		FullName:      fullName,
		CheckoutToken: token,
		ExpiresAt:     now.Add(s.holdTTL),
		Now:           now,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("hold placed",
		zap.String("session_id", sessionID.String()),
		zap.String("hold_id", hold.ID.String()),
		zap.Time("expires_at", hold.ExpiresAt))
	s.broadcast(ctx, sessionID)
	return hold, nil
}

// Confirm converts a hold into a booking (idempotent per checkout token).
func (s *Service) Confirm(ctx context.Context, checkoutToken, providerPaymentID string) (*models.Booking, error) {
	booking, existed, err := s.store.ConfirmHold(ctx, checkoutToken, providerPaymentID, s.now())
	if err != nil {
		return nil, err
	}
	if existed {
		return booking, nil
	}
	s.logger.Info("booking confirmed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("session_id", booking.SessionID.String()))
	if s.notifier != nil {
		if err := s.notifier.BookingConfirmed(ctx, booking); err != nil {
			s.logger.Error("queue confirmation email failed", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		}
	}
	s.broadcast(ctx, booking.SessionID)
	return booking, nil
}

// Release frees a pending hold (payment failed or canceled). Idempotent.
func (s *Service) Release(ctx context.Context, checkoutToken string) error {
	hold, err := s.store.ReleaseHold(ctx, checkoutToken, s.now())
	if err != nil {
		return err
	}
	s.logger.Info("hold released", zap.String("hold_id", hold.ID.String()))
	s.broadcast(ctx, hold.SessionID)
	return nil
}

// Status returns the hold for a checkout token. A pending hold whose
// expires_at has passed is reported as expired even before the sweeper runs.
func (s *Service) Status(ctx context.Context, checkoutToken string) (*models.PendingRegistration, error) {
	hold, err := s.store.GetHoldByToken(ctx, checkoutToken)
	if err != nil {
		return nil, err
	}
	if hold.Status == models.HoldStatusPending && !s.now().Before(hold.ExpiresAt) {
		hold.Status = models.HoldStatusExpired
	}
	return hold, nil
}

// ExpireStale sweeps stale holds and re-broadcasts availability for the
// affected sessions. Returns the number of holds expired.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	expired, err := s.store.ExpireStale(ctx, s.now())
	if err != nil {
		return 0, err
	}
	seen := make(map[uuid.UUID]struct{})
	for _, h := range expired {
		if _, ok := seen[h.SessionID]; ok {
			continue
		}
		seen[h.SessionID] = struct{}{}
		s.broadcast(ctx, h.SessionID)
	}
	return len(expired), nil
}

// Availability returns the seat accounting for a session.
func (s *Service) Availability(ctx context.Context, sessionID uuid.UUID) (*models.SessionAvailability, error) {
	return s.store.Availability(ctx, sessionID, s.now())
}

func (s *Service) broadcast(ctx context.Context, sessionID uuid.UUID) {
	if s.broadcaster == nil {
		return
	}
	av, err := s.store.Availability(ctx, sessionID, s.now())
	if err != nil {
		s.logger.Warn("availability lookup failed", zap.Error(err), zap.String("session_id", sessionID.String()))
		return
	}
	s.broadcaster.BroadcastAvailability(*av)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b)[:43], nil
}
