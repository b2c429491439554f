package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/xmailer/xmailer/app/dto"
	"github.com/xmailer/xmailer/app/middleware"
	businessflow "github.com/xmailer/xmailer/business_flow"
)

// ActionHandlerInterface defines the contract for the action handshake endpoints
type ActionHandlerInterface interface {
	Describe(c fiber.Ctx) error
	BuildTransaction(c fiber.Ctx) error
	Finalize(c fiber.Ctx) error
}

// ActionHandler handles the three-step action handshake
type ActionHandler struct {
	flow          businessflow.ActionFlow
	validator     *validator.Validate
	logger        zerolog.Logger
	verboseErrors bool
}

// NewActionHandler creates a new action handler. verboseErrors surfaces
// underlying causes on 5xx responses and stays off in production.
func NewActionHandler(flow businessflow.ActionFlow, logger zerolog.Logger, verboseErrors bool) ActionHandlerInterface {
	return &ActionHandler{
		flow:          flow,
		validator:     newValidator(),
		logger:        logger,
		verboseErrors: verboseErrors,
	}
}

// Describe serves the metadata document wallets render
// @Summary Action Metadata
// @Tags Actions
// @Produce json
// @Param uniqueBlinkId path string true "Blink slug"
// @Success 200 {object} dto.ActionMetadata
// @Failure 404 {object} dto.APIResponse
// @Router /api/actions/blink/{uniqueBlinkId} [get]
func (h *ActionHandler) Describe(c fiber.Ctx) error {
	uniqueBlinkID := c.Params("uniqueBlinkId")
	if uniqueBlinkID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Blink slug is required", "VALIDATION_ERROR", nil)
	}

	metadata, err := h.flow.Describe(createRequestContext(c, "/api/actions/blink/"+uniqueBlinkID), uniqueBlinkID)
	if err != nil {
		h.logger.Error().Err(err).Str("unique_blink_id", uniqueBlinkID).Msg("describe failed")
		return mapFlowError(c, err, h.verboseErrors)
	}

	// Wallets expect the bare metadata document, not the response envelope
	return c.Status(fiber.StatusOK).JSON(metadata)
}

// BuildTransaction returns the unsigned transaction envelope
// @Summary Build Action Transaction
// @Tags Actions
// @Accept json
// @Produce json
// @Param uniqueBlinkId path string true "Blink slug"
// @Param request body dto.BuildTransactionRequest true "Visitor account"
// @Success 200 {object} dto.PostTransactionResponse
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 502 {object} dto.APIResponse
// @Router /api/actions/blink/{uniqueBlinkId} [post]
func (h *ActionHandler) BuildTransaction(c fiber.Ctx) error {
	uniqueBlinkID := c.Params("uniqueBlinkId")
	if uniqueBlinkID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Blink slug is required", "VALIDATION_ERROR", nil)
	}

	var req dto.BuildTransactionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	params := actionParamsFromQuery(c)
	result, err := h.flow.BuildTransaction(createRequestContext(c, "/api/actions/blink/"+uniqueBlinkID), uniqueBlinkID, &req, params)
	if err != nil {
		h.logger.Error().Err(err).Str("unique_blink_id", uniqueBlinkID).Msg("build transaction failed")
		return mapFlowError(c, err, h.verboseErrors)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// Finalize runs the post-payment side effects
// @Summary Finalize Action
// @Tags Actions
// @Produce json
// @Param uniqueBlinkId path string true "Blink slug"
// @Success 200 {object} dto.APIResponse{data=dto.FinalizeResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /api/actions/blink/{uniqueBlinkId}/finalize [post]
func (h *ActionHandler) Finalize(c fiber.Ctx) error {
	uniqueBlinkID := c.Params("uniqueBlinkId")
	if uniqueBlinkID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Blink slug is required", "VALIDATION_ERROR", nil)
	}

	params := actionParamsFromQuery(c)
	result, err := h.flow.Finalize(createRequestContext(c, "/api/actions/blink/"+uniqueBlinkID+"/finalize"), uniqueBlinkID, params)
	middleware.CountFinalize(err == nil)
	if err != nil {
		h.logger.Error().Err(err).Str("unique_blink_id", uniqueBlinkID).Msg("finalize failed")
		return mapFlowError(c, err, h.verboseErrors)
	}

	return successResponse(c, fiber.StatusOK, result.Message, result)
}

// actionParamsFromQuery pulls the three visitor fields off the query
// string. Fiber already URL-decodes them, so multi-line descriptions
// survive the round trip through the wallet.
func actionParamsFromQuery(c fiber.Ctx) businessflow.ActionParams {
	return businessflow.ActionParams{
		Codename:    c.Query("codename"),
		Email:       c.Query("email"),
		Description: c.Query("description"),
	}
}
