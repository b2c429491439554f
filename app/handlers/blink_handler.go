package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/xmailer/xmailer/app/dto"
	businessflow "github.com/xmailer/xmailer/business_flow"
)

// BlinkHandlerInterface defines the contract for blink management handlers
type BlinkHandlerInterface interface {
	Create(c fiber.Ctx) error
	ByUniqueBlinkID(c fiber.Ctx) error
}

// BlinkHandler handles blink registration and lookup requests
type BlinkHandler struct {
	flow          businessflow.BlinkFlow
	validator     *validator.Validate
	logger        zerolog.Logger
	verboseErrors bool
}

// NewBlinkHandler creates a new blink handler
func NewBlinkHandler(flow businessflow.BlinkFlow, logger zerolog.Logger, verboseErrors bool) BlinkHandlerInterface {
	return &BlinkHandler{
		flow:          flow,
		validator:     newValidator(),
		logger:        logger,
		verboseErrors: verboseErrors,
	}
}

// Create registers a new blink
// @Summary Create Blink
// @Tags Blinks
// @Accept json
// @Produce json
// @Param request body dto.CreateBlinkRequest true "Blink data"
// @Success 201 {object} dto.APIResponse{data=dto.CreateBlinkResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /api/blinks [post]
func (h *BlinkHandler) Create(c fiber.Ctx) error {
	var req dto.CreateBlinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.flow.Create(createRequestContext(c, "/api/blinks"), &req, metadata)
	if err != nil {
		h.logger.Error().Err(err).Msg("blink creation failed")
		return mapFlowError(c, err, h.verboseErrors)
	}

	return successResponse(c, fiber.StatusCreated, "Blink created", result)
}

// ByUniqueBlinkID returns the raw blink record
// @Summary Get Blink
// @Tags Blinks
// @Produce json
// @Param uniqueBlinkId path string true "Blink slug"
// @Success 200 {object} dto.APIResponse{data=dto.BlinkDTO}
// @Failure 404 {object} dto.APIResponse
// @Router /api/blinks/{uniqueBlinkId} [get]
func (h *BlinkHandler) ByUniqueBlinkID(c fiber.Ctx) error {
	uniqueBlinkID := c.Params("uniqueBlinkId")
	if uniqueBlinkID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Blink slug is required", "VALIDATION_ERROR", nil)
	}

	result, err := h.flow.ByUniqueBlinkID(createRequestContext(c, "/api/blinks/"+uniqueBlinkID), uniqueBlinkID)
	if err != nil {
		h.logger.Error().Err(err).Str("unique_blink_id", uniqueBlinkID).Msg("blink lookup failed")
		return mapFlowError(c, err, h.verboseErrors)
	}

	return successResponse(c, fiber.StatusOK, "Blink found", result)
}
