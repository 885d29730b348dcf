package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/attachment-api/internal/config"
	"jan-server/services/attachment-api/internal/domain/attachment"
	"jan-server/services/attachment-api/internal/domain/photo"
	"jan-server/services/attachment-api/internal/interfaces/httpserver/requests"
	"jan-server/services/attachment-api/internal/interfaces/httpserver/responses"
	"jan-server/services/attachment-api/internal/utils/platformerrors"
)

const multipartMemory = 8 << 20

// PhotoService is the photo use-case surface the handler needs.
type PhotoService interface {
	Create(ctx context.Context, in photo.CreateInput) (*photo.Photo, error)
	Update(ctx context.Context, id string, in photo.UpdateInput) (*photo.Photo, error)
	Delete(ctx context.Context, id string) (*photo.Photo, error)
	Get(ctx context.Context, id string) (*photo.Photo, error)
	List(ctx context.Context, limit, offset int) (*photo.ListResult, error)
}

// PhotoHandler exposes photo endpoints.
type PhotoHandler struct {
	cfg     *config.Config
	service PhotoService
	urls    responses.URLBuilder
	log     zerolog.Logger
}

func NewPhotoHandler(cfg *config.Config, service PhotoService, log zerolog.Logger) *PhotoHandler {
	return &PhotoHandler{
		cfg:     cfg,
		service: service,
		urls:    responses.URLBuilder{BaseURL: cfg.PublicBaseURL, Thumbnails: cfg.ThumbEnabled},
		log:     log.With().Str("component", "photo-handler").Logger(),
	}
}

// Create godoc
// @Summary      Create a photo
// @Description  Accepts a multipart form with image and document files, or JSON with an inline data URI image.
// @Tags         photos
// @Accept       multipart/form-data,json
// @Produce      json
// @Param        title       formData  string  true   "Photo title"
// @Param        image_name  formData  string  false  "Display name of the image"
// @Param        image       formData  file    false  "Image file"
// @Param        document    formData  file    false  "Attached document"
// @Success      201  {object}  responses.PhotoResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      413  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v1/photos [post]
func (h *PhotoHandler) Create(c *gin.Context) {
	defer releaseForm(c)
	req, uploads, ok := h.bind(c)
	if !ok {
		return
	}
	p, err := h.service.Create(c.Request.Context(), photo.CreateInput{
		Title:     value(req.Title),
		ImageName: value(req.ImageName),
		Image:     value(req.Image),
		Uploads:   uploads,
	})
	if err != nil {
		h.fail(c, err, "failed to create photo")
		return
	}
	c.JSON(http.StatusCreated, responses.NewPhotoResponse(p, h.urls))
}

// Update godoc
// @Summary      Update a photo
// @Description  Fields that are not sent are kept. A photo without a new image keeps its stored file.
// @Tags         photos
// @Accept       multipart/form-data,json
// @Produce      json
// @Param        id          path      string  true   "Photo ID"
// @Param        title       formData  string  false  "Photo title"
// @Param        image_name  formData  string  false  "Display name of the image"
// @Param        image       formData  file    false  "Replacement image"
// @Param        document    formData  file    false  "Replacement document"
// @Success      200  {object}  responses.PhotoResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v1/photos/{id} [put]
func (h *PhotoHandler) Update(c *gin.Context) {
	defer releaseForm(c)
	req, uploads, ok := h.bind(c)
	if !ok {
		return
	}
	p, err := h.service.Update(c.Request.Context(), c.Param("id"), photo.UpdateInput{
		Title:     req.Title,
		ImageName: req.ImageName,
		Image:     req.Image,
		Uploads:   uploads,
	})
	if err != nil {
		h.fail(c, err, "failed to update photo")
		return
	}
	c.JSON(http.StatusOK, responses.NewPhotoResponse(p, h.urls))
}

// Get godoc
// @Summary      Get a photo
// @Tags         photos
// @Produce      json
// @Param        id   path      string  true  "Photo ID"
// @Success      200  {object}  responses.PhotoResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/photos/{id} [get]
func (h *PhotoHandler) Get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to get photo")
		return
	}
	c.JSON(http.StatusOK, responses.NewPhotoResponse(p, h.urls))
}

// List godoc
// @Summary      List photos
// @Tags         photos
// @Produce      json
// @Param        limit   query     int  false  "Page size (max 100)"
// @Param        offset  query     int  false  "Offset"
// @Success      200  {object}  responses.PhotoListResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Router       /v1/photos [get]
func (h *PhotoHandler) List(c *gin.Context) {
	var q requests.ListPhotosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid paging parameters", "photo_list_query")
		return
	}
	res, err := h.service.List(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		h.fail(c, err, "failed to list photos")
		return
	}
	c.JSON(http.StatusOK, responses.NewPhotoListResponse(res, h.urls))
}

// Delete godoc
// @Summary      Delete a photo
// @Description  Removes the photo and its stored files. File cleanup failures are reported as warnings.
// @Tags         photos
// @Produce      json
// @Param        id   path      string  true  "Photo ID"
// @Success      200  {object}  responses.PhotoResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/photos/{id} [delete]
func (h *PhotoHandler) Delete(c *gin.Context) {
	p, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to delete photo")
		return
	}
	c.JSON(http.StatusOK, responses.NewPhotoResponse(p, h.urls))
}

// bind reads either a multipart form or a JSON body, capped at the upload limit.
func (h *PhotoHandler) bind(c *gin.Context) (requests.PhotoRequest, attachment.UploadSource, bool) {
	var req requests.PhotoRequest
	if h.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
			h.rejectBody(c, err)
			return req, nil, false
		}
		form := c.Request.MultipartForm
		return requests.FromMultipart(form), requests.UploadsFromMultipart(form, photo.FieldImage, photo.FieldDocument), true
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.rejectBody(c, err)
		return req, nil, false
	}
	return req, nil, true
}

func (h *PhotoHandler) rejectBody(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, responses.ErrorResponse{
			Code:    "request_too_large",
			Error:   "request body exceeds the upload limit",
			Message: "request body exceeds the upload limit",
		})
		return
	}
	responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "photo_invalid_body")
}

func (h *PhotoHandler) fail(c *gin.Context, err error, message string) {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		if platformErr.Type != platformerrors.ErrorTypeNotFound && platformErr.Type != platformerrors.ErrorTypeValidation {
			platformerrors.LogError(h.log, platformErr)
		}
	} else {
		h.log.Error().Err(err).Msg(message)
	}
	responses.HandleError(c, err, message)
}

// releaseForm removes multipart spill files; the normalizer has its own staged copies.
func releaseForm(c *gin.Context) {
	if form := c.Request.MultipartForm; form != nil {
		_ = form.RemoveAll()
	}
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
