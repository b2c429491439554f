// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/xmailer/xmailer/app/dto"
	"github.com/xmailer/xmailer/app/services"
	businessflow "github.com/xmailer/xmailer/business_flow"
	"github.com/xmailer/xmailer/utils"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "url":
		return err.Field() + " must be a valid URL"
	case "solana_address":
		return err.Field() + " must be a valid base58 Solana address"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// newValidator builds the request validator with the custom rules handlers
// rely on.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("solana_address", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if len(value) < 32 || len(value) > 44 {
			return false
		}
		return services.IsValidSolanaAddress(value)
	})
	return v
}

func validationDetails(err error) []string {
	var validationErrors []string
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fieldErr := range fieldErrors {
			validationErrors = append(validationErrors, getValidationErrorMessage(fieldErr))
		}
	} else {
		validationErrors = append(validationErrors, err.Error())
	}
	return validationErrors
}

func errorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.Fail(message, errorCode, details))
}

func successResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.OK(message, data))
}

// failureDetails exposes the underlying cause on 5xx responses outside
// production. Production responses stay opaque.
func failureDetails(err error, verbose bool) any {
	if !verbose {
		return nil
	}
	return err.Error()
}

// mapFlowError translates a business flow error to the HTTP response
// families: validation 400, missing 404, duplicate 409, upstream 502,
// store timeout 504, everything else a generic 500.
func mapFlowError(c fiber.Ctx, err error, verbose bool) error {
	switch {
	case businessflow.IsValidationError(err):
		return errorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
	case businessflow.IsBlinkNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Blink not found", "BLINK_NOT_FOUND", nil)
	case businessflow.IsAnalyticsNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Analytics not found", "ANALYTICS_NOT_FOUND", nil)
	case businessflow.IsBlinkAlreadyExists(err):
		return errorResponse(c, fiber.StatusConflict, "Blink already exists", "BLINK_EXISTS", nil)
	case businessflow.IsLedgerUnavailable(err):
		return errorResponse(c, fiber.StatusBadGateway, "Ledger unavailable", "LEDGER_UNAVAILABLE", failureDetails(err, verbose))
	case errors.Is(err, context.DeadlineExceeded):
		return errorResponse(c, fiber.StatusGatewayTimeout, "Request timed out", "STORE_TIMEOUT", failureDetails(err, verbose))
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR", failureDetails(err, verbose))
	}
}

func createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, utils.RequestTimeout)
}

func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
