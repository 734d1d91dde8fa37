package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/formlab/form-service/internal/storage"
	"github.com/formlab/form-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UploadHandler struct {
	BaseHandler
	provider      storage.StorageProvider
	maxUploadSize int64
}

func NewUploadHandler(provider storage.StorageProvider, maxUploadSize int64, logger utils.Logger) *UploadHandler {
	return &UploadHandler{
		BaseHandler:   NewBaseHandler(logger),
		provider:      provider,
		maxUploadSize: maxUploadSize,
	}
}

// UploadImage accepts a single multipart image and returns its URL handle.
// The returned URL is opaque to callers; forms and questions store it as-is.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing image file",
			Details: err.Error(),
		})
		return
	}

	if fileHeader.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: fmt.Sprintf("File exceeds the %d byte limit", h.maxUploadSize),
		})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if err := storage.ValidateImageContentType(contentType); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Only image uploads are allowed"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Failed to read upload"})
		return
	}
	defer file.Close()

	filename := uuid.NewString() + filepath.Ext(fileHeader.Filename)
	url, err := h.provider.Upload(c.Request.Context(), filename, file, fileHeader.Size, contentType)
	if err != nil {
		h.LogError(c, err, "Failed to store uploaded file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Failed to store upload"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}
