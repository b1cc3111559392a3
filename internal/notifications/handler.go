package notifications

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VenkaSri/booking-backend/internal/models"
	"github.com/VenkaSri/booking-backend/pkg/queue"
	"github.com/VenkaSri/booking-backend/pkg/response"
)

// Handler handles email log admin endpoints.
type Handler struct {
	repo   *Repository
	queue  Enqueuer
	logger *zap.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(repo *Repository, q Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, queue: q, logger: logger}
}

// ListBySession handles GET /sessions/:id/emails (admin/staff).
func (h *Handler) ListBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	list, err := h.repo.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err), zap.String("session_id", sessionID.String()))
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, list)
}

// ResendRequest is the body for POST /emails/:id/resend.
type ResendRequest struct {
	Body string `json:"body"` // optional replacement body
}

// Resend handles POST /emails/:id/resend (admin/staff). Re-queues delivery of
// a logged email.
func (h *Handler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid email log id")
		return
	}
	var req ResendRequest
	_ = c.ShouldBindJSON(&req)

	el, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "email log not found")
		return
	}

	body := req.Body
	if body == "" {
		body = "This is a re-delivery of a previous notification. Subject: " + el.Subject
	}
	payload := queue.EmailPayload{
		EmailType:      el.EmailType,
		EmailLogID:     el.ID,
		RecipientEmail: el.RecipientEmail,
		Subject:        el.Subject,
		Body:           body,
	}
	if el.SessionID != nil {
		payload.SessionID = *el.SessionID
	}
	if el.BookingID != nil {
		payload.BookingID = *el.BookingID
	}

	if err := h.repo.MarkPending(c.Request.Context(), el.ID); err != nil {
		response.Internal(c, "failed to reset email log")
		return
	}
	if err := h.queue.EnqueueEmail(c.Request.Context(), payload); err != nil {
		h.logger.Error("resend enqueue failed", zap.Error(err), zap.String("email_log_id", el.ID.String()))
		response.Internal(c, "failed to enqueue email")
		return
	}
	response.OK(c, gin.H{"status": models.EmailLogStatusPending, "email_log_id": el.ID})
}
