package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/VenkaSri/booking-backend/internal/checkout"
	"github.com/VenkaSri/booking-backend/internal/models"
	"github.com/VenkaSri/booking-backend/pkg/response"
)

// Payment event types the provider delivers.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
	EventPaymentCanceled  = "payment.canceled"
)

const maxBodySize = 64 * 1024

// PaymentEvent is the provider's webhook payload.
type PaymentEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		CheckoutToken string `json:"checkout_token"`
		PaymentID     string `json:"payment_id"`
		Reason        string `json:"reason,omitempty"`
	} `json:"data"`
}

// CheckoutService is the checkout surface the webhook drives.
type CheckoutService interface {
	Confirm(ctx context.Context, checkoutToken, providerPaymentID string) (*models.Booking, error)
	Release(ctx context.Context, checkoutToken string) error
}

// Deduper suppresses duplicate webhook deliveries by event ID.
type Deduper interface {
	// Seen records the event ID and reports whether it was already recorded.
	Seen(ctx context.Context, eventID string) (bool, error)
	// Forget removes a recorded event ID so the provider's retry is processed
	// again after a transient failure.
	Forget(ctx context.Context, eventID string) error
}

// RedisDeduper implements Deduper with SETNX and a TTL.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a Redis-backed event deduper.
func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: 24 * time.Hour}
}

// Seen implements Deduper.
func (d *RedisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, "webhook:event:"+eventID, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Forget implements Deduper.
func (d *RedisDeduper) Forget(ctx context.Context, eventID string) error {
	return d.client.Del(ctx, "webhook:event:"+eventID).Err()
}

// PaymentHandler handles POST /webhooks/payment.
type PaymentHandler struct {
	secret  string
	service CheckoutService
	deduper Deduper
	logger  *zap.Logger
}

// NewPaymentHandler creates the payment webhook handler. deduper may be nil
// (duplicates then rely on checkout idempotency alone).
func NewPaymentHandler(secret string, service CheckoutService, deduper Deduper, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{secret: secret, service: service, deduper: deduper, logger: logger}
}

// Handle verifies the signature over the raw body, deduplicates by event ID,
// and dispatches by event type. Unknown types are acknowledged and ignored.
func (h *PaymentHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}

	if !VerifySignature(h.secret, body, c.GetHeader(SignatureHeader)) {
		h.logger.Warn("webhook signature rejected", zap.String("client_ip", c.ClientIP()))
		response.Unauthorized(c, "invalid signature")
		return
	}

	var event PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil || event.ID == "" || event.Type == "" {
		response.BadRequest(c, "invalid event payload")
		return
	}

	if h.deduper != nil {
		seen, err := h.deduper.Seen(c.Request.Context(), event.ID)
		if err != nil {
			h.logger.Warn("webhook dedupe failed, processing anyway", zap.Error(err))
		} else if seen {
			h.logger.Debug("duplicate webhook event ignored", zap.String("event_id", event.ID))
			response.OK(c, gin.H{"status": "duplicate"})
			return
		}
	}

	var retriable bool
	switch event.Type {
	case EventPaymentSucceeded:
		retriable = h.handleSucceeded(c, event)
	case EventPaymentFailed, EventPaymentCanceled:
		retriable = h.handleFailed(c, event)
	default:
		h.logger.Debug("unhandled webhook event type", zap.String("type", event.Type))
		response.OK(c, gin.H{"status": "ignored"})
	}

	// A transient failure was answered 5xx; drop the dedupe record so the
	// provider's retry is processed instead of being acked as a duplicate.
	if retriable && h.deduper != nil {
		if err := h.deduper.Forget(c.Request.Context(), event.ID); err != nil {
			h.logger.Error("webhook dedupe forget failed", zap.Error(err), zap.String("event_id", event.ID))
		}
	}
}

// handleSucceeded reports true when it answered 5xx and the event should be
// retried by the provider.
func (h *PaymentHandler) handleSucceeded(c *gin.Context, event PaymentEvent) bool {
	if event.Data.CheckoutToken == "" {
		response.BadRequest(c, "checkout_token required")
		return false
	}
	booking, err := h.service.Confirm(c.Request.Context(), event.Data.CheckoutToken, event.Data.PaymentID)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrHoldNotFound):
			response.NotFound(c, "unknown checkout token")
		case errors.Is(err, checkout.ErrHoldExpired):
			// Payment landed after the hold lapsed; the seat may be gone.
			// Acknowledge so the provider stops retrying.
			// TODO: issue a refund through the provider API for this case.
			h.logger.Error("payment succeeded for expired hold",
				zap.String("event_id", event.ID),
				zap.String("payment_id", event.Data.PaymentID))
			response.OK(c, gin.H{"status": "hold_expired"})
		default:
			h.logger.Error("confirm failed", zap.Error(err), zap.String("event_id", event.ID))
			response.Internal(c, "failed to confirm booking")
			return true
		}
		return false
	}
	response.OK(c, gin.H{"status": "confirmed", "booking_id": booking.ID})
	return false
}

// handleFailed reports true when it answered 5xx and the event should be
// retried by the provider.
func (h *PaymentHandler) handleFailed(c *gin.Context, event PaymentEvent) bool {
	if event.Data.CheckoutToken == "" {
		response.BadRequest(c, "checkout_token required")
		return false
	}
	err := h.service.Release(c.Request.Context(), event.Data.CheckoutToken)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrHoldNotFound):
			response.NotFound(c, "unknown checkout token")
		case errors.Is(err, checkout.ErrHoldConfirmed):
			// Failure event arrived after a success event; the booking stands.
			h.logger.Warn("release ignored for confirmed hold", zap.String("event_id", event.ID))
			response.OK(c, gin.H{"status": "already_confirmed"})
		default:
			h.logger.Error("release failed", zap.Error(err), zap.String("event_id", event.ID))
			response.Internal(c, "failed to release hold")
			return true
		}
		return false
	}
	response.OK(c, gin.H{"status": "released"})
	return false
}
