package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/attachment-api/internal/infrastructure/storage"
	"jan-server/services/attachment-api/internal/interfaces/httpserver/responses"
	"jan-server/services/attachment-api/internal/utils/platformerrors"
)

// FileStore opens committed artifacts by relative path.
type FileStore interface {
	Open(ctx context.Context, rel string) (*storage.Object, error)
}

// FileHandler serves stored artifacts.
type FileHandler struct {
	store FileStore
	log   zerolog.Logger
}

func NewFileHandler(store FileStore, log zerolog.Logger) *FileHandler {
	return &FileHandler{
		store: store,
		log:   log.With().Str("component", "file-handler").Logger(),
	}
}

// Serve godoc
// @Summary      Download a stored file
// @Description  Streams an uploaded image, thumbnail or document by its stored path.
// @Tags         files
// @Produce      octet-stream
// @Param        path  path  string  true  "Stored relative path"
// @Success      200
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/files/{path} [get]
func (h *FileHandler) Serve(c *gin.Context) {
	obj, err := h.store.Open(c.Request.Context(), c.Param("path"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidPath):
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid file path", "file_invalid_path")
		case errors.Is(err, storage.ErrNotFound):
			responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "file not found", "file_not_found")
		default:
			h.log.Error().Err(err).Str("path", c.Param("path")).Msg("failed to open stored file")
			responses.HandleNewError(c, platformerrors.ErrorTypeStorage, "failed to read file", "file_read_failed")
		}
		return
	}
	defer obj.Close()

	c.Header("Content-Type", obj.ContentType)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Cache-Control", "public, max-age=86400")
	if !inlineSafe(obj.ContentType) {
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": obj.Name}))
	}
	http.ServeContent(c.Writer, c.Request, obj.Name, obj.ModTime, obj)
}

// inlineSafe reports whether a browser may render the content type in place.
// SVG is excluded since it can carry scripts.
func inlineSafe(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/") && mediaType != "image/svg+xml"
}
