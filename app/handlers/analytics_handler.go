package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	businessflow "github.com/xmailer/xmailer/business_flow"
)

// AnalyticsHandlerInterface defines the contract for analytics handlers
type AnalyticsHandlerInterface interface {
	Refresh(c fiber.Ctx) error
	RecordVisit(c fiber.Ctx) error
}

// AnalyticsHandler serves the per-blink aggregate snapshot. GET refreshes
// without counting, POST counts a dashboard visit.
type AnalyticsHandler struct {
	flow          businessflow.AnalyticsFlow
	logger        zerolog.Logger
	verboseErrors bool
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(flow businessflow.AnalyticsFlow, logger zerolog.Logger, verboseErrors bool) AnalyticsHandlerInterface {
	return &AnalyticsHandler{
		flow:          flow,
		logger:        logger,
		verboseErrors: verboseErrors,
	}
}

// Refresh returns the snapshot without counting a visit
// @Summary Analytics Snapshot
// @Tags Analytics
// @Produce json
// @Param analyticsId path string true "Analytics ID"
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsSnapshotDTO}
// @Failure 404 {object} dto.APIResponse
// @Router /api/analytics/{analyticsId} [get]
func (h *AnalyticsHandler) Refresh(c fiber.Ctx) error {
	analyticsID := c.Params("analyticsId")
	if analyticsID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Analytics ID is required", "VALIDATION_ERROR", nil)
	}

	result, err := h.flow.Refresh(createRequestContext(c, "/api/analytics/"+analyticsID), analyticsID)
	if err != nil {
		h.logger.Error().Err(err).Str("analytics_id", analyticsID).Msg("analytics refresh failed")
		return mapFlowError(c, err, h.verboseErrors)
	}

	return successResponse(c, fiber.StatusOK, "Analytics snapshot", result)
}

// RecordVisit counts a dashboard visit and returns the snapshot
// @Summary Record Analytics Visit
// @Tags Analytics
// @Produce json
// @Param analyticsId path string true "Analytics ID"
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsSnapshotDTO}
// @Failure 404 {object} dto.APIResponse
// @Router /api/analytics/{analyticsId} [post]
func (h *AnalyticsHandler) RecordVisit(c fiber.Ctx) error {
	analyticsID := c.Params("analyticsId")
	if analyticsID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Analytics ID is required", "VALIDATION_ERROR", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))
	if country := c.Get("CF-IPCountry"); country != "" {
		metadata.SetCountry(country)
	} else if country := c.Get("X-Vercel-IP-Country"); country != "" {
		metadata.SetCountry(country)
	}

	result, err := h.flow.RecordVisit(createRequestContext(c, "/api/analytics/"+analyticsID), analyticsID, metadata)
	if err != nil {
		h.logger.Error().Err(err).Str("analytics_id", analyticsID).Msg("analytics visit failed")
		return mapFlowError(c, err, h.verboseErrors)
	}

	return successResponse(c, fiber.StatusOK, "Analytics snapshot", result)
}
