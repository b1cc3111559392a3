package checkout

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VenkaSri/booking-backend/internal/models"
	"github.com/VenkaSri/booking-backend/pkg/response"
)

// StartRequest is the body for POST /checkout.
type StartRequest struct {
	SessionID uuid.UUID `json:"session_id" binding:"required"`
	Email     string    `json:"email" binding:"required,email"`
	FullName  string    `json:"full_name" binding:"required"`
}

// Handler handles checkout HTTP endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a checkout handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Start handles POST /checkout. Places a hold and returns the checkout token
// the payment side must reference in its webhook.
func (h *Handler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	hold, err := h.service.Start(c.Request.Context(), req.SessionID, req.Email, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			response.NotFound(c, "session not found")
		case errors.Is(err, ErrSessionClosed):
			response.Conflict(c, "session closed for booking")
		case errors.Is(err, ErrSessionFull):
			response.Conflict(c, "session full")
		case errors.Is(err, ErrAlreadyBooked):
			response.Conflict(c, "email already booked on this session")
		default:
			h.logger.Error("checkout start failed", zap.Error(err), zap.String("session_id", req.SessionID.String()))
			response.Internal(c, "failed to start checkout")
		}
		return
	}

	response.Created(c, gin.H{
		"checkout_token": hold.CheckoutToken,
		"hold":           hold,
		"expires_at":     hold.ExpiresAt,
	})
}

// Status handles GET /checkout/:token. Lets the client poll the hold state
// while payment is in flight.
func (h *Handler) Status(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "token required")
		return
	}
	hold, err := h.service.Status(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, ErrHoldNotFound) {
			response.NotFound(c, "checkout not found")
			return
		}
		h.logger.Error("checkout status failed", zap.Error(err))
		response.Internal(c, "failed to load checkout")
		return
	}
	switch hold.Status {
	case models.HoldStatusExpired:
		response.Gone(c, "checkout expired")
	case models.HoldStatusReleased:
		response.Gone(c, "checkout released")
	default:
		response.OK(c, hold)
	}
}
