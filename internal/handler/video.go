package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/genstudio/api/internal/middleware"
	"github.com/genstudio/api/internal/model"
	"github.com/genstudio/api/internal/service"
	"github.com/genstudio/api/internal/store"
	"github.com/genstudio/api/pkg/response"
)

type VideoHandler struct {
	service   *service.VideoService
	validator *validator.Validate
}

func NewVideoHandler(svc *service.VideoService, v *validator.Validate) *VideoHandler {
	return &VideoHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /api/videos/generate
// @Summary      Start video generation
// @Description  Create a pending media item and start asynchronous video generation
// @Tags         Videos
// @Accept       json
// @Produce      json
// @Param        request body model.GenerateVideoRequest true "Video generation request"
// @Success      202 {object} model.MediaItem
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/videos/generate [post]
func (h *VideoHandler) Generate(c *fiber.Ctx) error {
	var req model.GenerateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	user := middleware.GetUser(c)
	item, err := h.service.StartGeneration(c.Context(), &req, user)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, item)
}

// GenerateBatch handles POST /api/videos/generate-batch
// @Summary      Start a batch of video generations
// @Description  Submit several generation requests at once; items succeed or fail independently
// @Tags         Videos
// @Accept       json
// @Produce      json
// @Param        request body model.GenerateVideoBatchRequest true "Batch generation request"
// @Success      202 {object} model.GenerateVideoBatchResponse
// @Success      207 {object} model.GenerateVideoBatchResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/videos/generate-batch [post]
func (h *VideoHandler) GenerateBatch(c *fiber.Ctx) error {
	var req model.GenerateVideoBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	user := middleware.GetUser(c)
	result := h.service.StartGenerationBatch(c.Context(), req.Requests, user)

	// Partial failure is not a rollback: accepted items stay accepted, the
	// failures list attributes each error to its request.
	if len(result.Failures) > 0 {
		return c.Status(fiber.StatusMultiStatus).JSON(result)
	}
	return response.Accepted(c, result)
}

// Get handles GET /api/videos/:mediaId
// @Summary      Poll a media item
// @Description  Return the current status and, once completed, signed result URLs
// @Tags         Videos
// @Produce      json
// @Param        mediaId path string true "Media item ID"
// @Success      200 {object} model.MediaItemResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/videos/{mediaId} [get]
func (h *VideoHandler) Get(c *fiber.Ctx) error {
	mediaID := c.Params("mediaId")
	if mediaID == "" {
		return response.ValidationError(c, "Media item ID is required", nil)
	}

	item, err := h.service.GetMediaItem(c.Context(), mediaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Media item not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, item)
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
