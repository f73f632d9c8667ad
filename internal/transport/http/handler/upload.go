package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bookhive/library-backend/internal/upload"
	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	store  *upload.Store
	logger *slog.Logger
}

func NewUploadHandler(store *upload.Store, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		store:  store,
		logger: logger.With("component", "upload_handler"),
	}
}

// POST /upload
// Accepts a multipart "image" field up to 10 MB and returns the served path.
func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoFile})
		return
	}

	name, err := h.store.Save(fh)
	if err != nil {
		if errors.Is(err, upload.ErrTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFileTooLarge})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "save upload", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":     "/uploads/" + name,
		"message": "File uploaded successfully",
	})
}
