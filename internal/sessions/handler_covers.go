package sessions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VenkaSri/booking-backend/pkg/response"
	"github.com/VenkaSri/booking-backend/pkg/storage"
)

// GenerateCoverUploadURLRequest is the body for POST /sessions/:id/cover/generate-upload-url.
type GenerateCoverUploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size" binding:"required,gt=0"`
}

// UploadCover handles POST /sessions/:id/cover (admin only). Streams the
// multipart file to S3 and stores the resulting URL on the session.
func (h *Handler) UploadCover(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file required")
		return
	}
	if fileHeader.Size > storage.MaxCoverFileSize {
		response.BadRequest(c, "file size exceeds 5MB limit")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateCoverFileType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "invalid file type: only jpg, png, webp allowed")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(fileHeader.Filename)
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer file.Close()

	key := storage.CoverKey(id.String(), fileHeader.Filename)
	url, err := h.s3.Upload(c.Request.Context(), key, contentType, file, fileHeader.Size, true)
	if err != nil {
		h.logger.Error("cover upload failed", zap.Error(err), zap.String("session_id", id.String()))
		response.Internal(c, "failed to upload cover")
		return
	}

	if err := h.repo.SetCoverImage(c.Request.Context(), id, url); err != nil {
		response.Internal(c, "failed to save cover url")
		return
	}

	// Clean up the replaced object. The new cover is already live, so a failed
	// delete only leaks an orphan in the bucket.
	if oldKey := storage.CoverKeyFromURL(existing.CoverImageURL); oldKey != "" && oldKey != key {
		if err := h.s3.DeleteCover(c.Request.Context(), oldKey); err != nil {
			h.logger.Warn("old cover delete failed", zap.Error(err), zap.String("key", oldKey))
		}
	}
	response.OK(c, gin.H{"cover_image_url": url, "s3_key": key})
}

// GenerateCoverUploadURL handles POST /sessions/:id/cover/generate-upload-url
// (admin only). Returns a presigned PUT URL for direct browser upload.
func (h *Handler) GenerateCoverUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		response.NotFound(c, "session not found")
		return
	}

	var req GenerateCoverUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.FileSize > storage.MaxCoverFileSize {
		response.BadRequest(c, "file size exceeds 5MB limit")
		return
	}
	if !storage.ValidateCoverFileType(req.ContentType, req.Filename) {
		response.BadRequest(c, "invalid file type: only jpg, png, webp allowed")
		return
	}

	contentType := storage.ContentTypeForFilename(req.Filename)
	key := storage.CoverKey(id.String(), req.Filename)
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, contentType, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign cover upload failed", zap.Error(err), zap.String("session_id", id.String()))
		response.Internal(c, "failed to generate upload url")
		return
	}
	response.OK(c, gin.H{
		"upload_url":   url,
		"s3_key":       key,
		"content_type": contentType,
		"public_url":   h.s3.PublicObjectURL(key),
	})
}

// SetCover handles PUT /sessions/:id/cover (admin only). Records the public
// URL after the client uploaded via the presigned URL.
func (h *Handler) SetCover(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req struct {
		URL string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.SetCoverImage(c.Request.Context(), id, req.URL); err != nil {
		if IsNotFound(err) {
			response.NotFound(c, "session not found")
			return
		}
		response.Internal(c, "failed to save cover url")
		return
	}
	response.OK(c, gin.H{"cover_image_url": req.URL})
}
