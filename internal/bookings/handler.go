package bookings

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/VenkaSri/booking-backend/pkg/response"
)

// Handler handles booking admin endpoints.
type Handler struct {
	repo         *Repository
	availability func(c *gin.Context, sessionID uuid.UUID)
	logger       *zap.Logger
}

// NewHandler creates a bookings handler. onCanceled is called after a
// successful cancel so availability can be re-broadcast; it may be nil.
func NewHandler(repo *Repository, onCanceled func(c *gin.Context, sessionID uuid.UUID), logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, availability: onCanceled, logger: logger}
}

// ListBySession handles GET /sessions/:id/bookings (admin/staff).
func (h *Handler) ListBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	list, err := h.repo.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("list bookings failed", zap.Error(err), zap.String("session_id", sessionID.String()))
		response.Internal(c, "failed to list bookings")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /bookings/:id (admin/staff).
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	b, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "booking not found")
		return
	}
	response.OK(c, b)
}

// Cancel handles POST /bookings/:id/cancel (admin/staff). Frees the seat.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	b, err := h.repo.Cancel(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "booking not found")
			return
		}
		h.logger.Error("cancel booking failed", zap.Error(err), zap.String("booking_id", id.String()))
		response.Internal(c, "failed to cancel booking")
		return
	}
	if h.availability != nil {
		h.availability(c, b.SessionID)
	}
	response.OK(c, b)
}
