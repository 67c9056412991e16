package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"

	"accmarket/pkg/errors"
	"accmarket/pkg/logger"
	"accmarket/pkg/response"
)

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, file io.Reader, folder string) (string, error)
}

var uploadFolders = map[string]bool{
	"accs":    true,
	"avatars": true,
	"covers":  true,
}

type UploadHandler struct {
	uploader    ImageUploader
	maxFileSize int64
}

func NewUploadHandler(uploader ImageUploader, maxFileSize int64) *UploadHandler {
	return &UploadHandler{
		uploader:    uploader,
		maxFileSize: maxFileSize,
	}
}

// UploadImage takes a multipart "file" and an optional "folder". Images are
// stored under the caller's uid so one seller cannot overwrite another's.
func (h *UploadHandler) UploadImage(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.Validation("file", "file is required"))
	}
	if file.Size > h.maxFileSize {
		return response.Error(c, errors.Validation("file", fmt.Sprintf("file must be at most %d MB", h.maxFileSize>>20)))
	}

	folder := c.FormValue("folder")
	if folder == "" {
		folder = "accs"
	}
	if !uploadFolders[folder] {
		return response.Error(c, errors.Validation("folder", "folder must be one of: accs, avatars, covers"))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read upload", err))
	}
	defer src.Close()

	url, err := h.uploader.Upload(c.Request().Context(), src, folder+"/"+currentUID(c))
	if err != nil {
		return response.Error(c, err)
	}
	logger.Debug("Stored %s (%d bytes) for %s", url, file.Size, currentUID(c))
	return response.Created(c, map[string]string{"url": url})
}
