package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/logger"
)

const maxImageSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// UploadHandler stores profile images on local disk; they are served under /uploads.
type UploadHandler struct {
	dir       string
	publicURL string
	errs      *ErrorResponder
	logger    *zap.Logger
	now       func() time.Time
}

func NewUploadHandler(dir, publicURL string, errs *ErrorResponder, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		dir:       dir,
		publicURL: strings.TrimRight(publicURL, "/"),
		errs:      errs,
		logger:    logger,
		now:       time.Now,
	}
}

// UploadImage handles POST /api/auth/upload-image (multipart field "image").
func (h *UploadHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		h.errs.Respond(c, apperr.Validation("No file uploaded"))
		return
	}
	if !allowedImageTypes[file.Header.Get("Content-Type")] {
		h.errs.Respond(c, apperr.Validation("Invalid file type. Only JPEG, PNG, and jpg are allowed."))
		return
	}
	if file.Size > maxImageSize {
		h.errs.Respond(c, apperr.Validation("File is too large"))
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		h.errs.Respond(c, apperr.Internal(fmt.Errorf("create upload dir: %w", err)))
		return
	}

	name := fmt.Sprintf("%d-%s", h.now().UnixMilli(), filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, name)); err != nil {
		h.errs.Respond(c, apperr.Internal(fmt.Errorf("save upload: %w", err)))
		return
	}

	base := h.publicURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}

	logger.WithTrace(c.Request.Context(), h.logger).Info("Image uploaded",
		zap.String("file", name),
		zap.Int64("size", file.Size),
	)
	c.JSON(http.StatusOK, gin.H{"imageUrl": base + "/uploads/" + name})
}
