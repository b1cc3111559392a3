package products

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/VenkaSri/booking-backend/internal/models"
	"github.com/VenkaSri/booking-backend/pkg/response"
)

// CreateRequest is the body for POST /products.
type CreateRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PriceCents  int    `json:"price_cents" binding:"gte=0"`
	Currency    string `json:"currency"`
	Active      *bool  `json:"active"`
}

// UpdateRequest is the body for PATCH /products/:id. Absent fields keep their
// current values.
type UpdateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int    `json:"price_cents"`
	Active      *bool   `json:"active"`
}

// Handler handles product HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a products handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /products. Public: active products only.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		response.Internal(c, "failed to list products")
		return
	}
	response.OK(c, list)
}

// GetBySlug handles GET /products/:slug.
func (h *Handler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	p, err := h.repo.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		response.NotFound(c, "product not found")
		return
	}
	response.OK(c, p)
}

// Create handles POST /products (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p := &models.Product{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    currency,
		Active:      active,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		h.logger.Error("create product failed", zap.Error(err))
		response.Internal(c, "failed to create product")
		return
	}
	response.Created(c, p)
}

// Update handles PATCH /products/:id (admin only).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid product id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.Update(c.Request.Context(), id, req.Name, req.Description, req.PriceCents, req.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "product not found")
			return
		}
		h.logger.Error("update product failed", zap.Error(err), zap.String("product_id", id.String()))
		response.Internal(c, "failed to update product")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load product")
		return
	}
	response.OK(c, p)
}
