package sessions

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VenkaSri/booking-backend/internal/middleware"
	"github.com/VenkaSri/booking-backend/internal/models"
	"github.com/VenkaSri/booking-backend/pkg/response"
	"github.com/VenkaSri/booking-backend/pkg/storage"
)

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CreateRequest is the body for POST /sessions.
type CreateRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	StartsAt    string  `json:"starts_at" binding:"required"`
	EndsAt      *string `json:"ends_at"`
	Capacity    int     `json:"capacity" binding:"required,gt=0"`
	PriceCents  int     `json:"price_cents" binding:"gte=0"`
	Currency    string  `json:"currency"`
	ProductID   *string `json:"product_id"`
}

// UpdateRequest is the body for PATCH /sessions/:id. Absent fields keep their
// current values.
type UpdateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	StartsAt    *string `json:"starts_at"`
	EndsAt      *string `json:"ends_at"`
	Capacity    *int    `json:"capacity"`
	PriceCents  *int    `json:"price_cents"`
}

// Handler handles session HTTP endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a sessions handler. s3 may be nil (cover uploads disabled).
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// List handles GET /sessions. Public: upcoming sessions with remaining seats.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListUpcoming(c.Request.Context(), time.Now())
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		response.Internal(c, "failed to list sessions")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /sessions/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	s, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	response.OK(c, s)
}

// Create handles POST /sessions (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	startsAt, err := parseTime(req.StartsAt)
	if err != nil {
		response.BadRequest(c, "invalid starts_at")
		return
	}
	var endsAt *time.Time
	if req.EndsAt != nil {
		t, err := parseTime(*req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		endsAt = &t
	}
	var productID *uuid.UUID
	if req.ProductID != nil {
		pid, err := uuid.Parse(*req.ProductID)
		if err != nil {
			response.BadRequest(c, "invalid product_id")
			return
		}
		productID = &pid
	}
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	s := &models.Session{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Capacity:    req.Capacity,
		PriceCents:  req.PriceCents,
		Currency:    currency,
		ProductID:   productID,
		CreatedBy:   userID,
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}
	response.Created(c, s)
}

// Update handles PATCH /sessions/:id (admin/staff).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var startsAt, endsAt *time.Time
	if req.StartsAt != nil {
		t, err := parseTime(*req.StartsAt)
		if err != nil {
			response.BadRequest(c, "invalid starts_at")
			return
		}
		startsAt = &t
	}
	if req.EndsAt != nil {
		t, err := parseTime(*req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		endsAt = &t
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		response.BadRequest(c, "capacity must be positive")
		return
	}

	if err := h.repo.Update(c.Request.Context(), id, req.Title, req.Description, startsAt, endsAt, req.Capacity, req.PriceCents); err != nil {
		if IsNotFound(err) {
			response.NotFound(c, "session not found")
			return
		}
		h.logger.Error("update session failed", zap.Error(err), zap.String("session_id", id.String()))
		response.Internal(c, "failed to update session")
		return
	}
	s, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load session")
		return
	}
	response.OK(c, s)
}

// Delete handles DELETE /sessions/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete session failed", zap.Error(err), zap.String("session_id", id.String()))
		response.Internal(c, "failed to delete session")
		return
	}
	response.NoContent(c)
}
