// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/xmailer/xmailer/app/dto"
	"github.com/xmailer/xmailer/app/handlers"
	"github.com/xmailer/xmailer/app/middleware"
	"github.com/xmailer/xmailer/utils"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app              *fiber.App
	actionHandler    handlers.ActionHandlerInterface
	blinkHandler     handlers.BlinkHandlerInterface
	analyticsHandler handlers.AnalyticsHandlerInterface
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	actionHandler handlers.ActionHandlerInterface,
	blinkHandler handlers.BlinkHandlerInterface,
	analyticsHandler handlers.AnalyticsHandlerInterface,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "xmailer API",
		ServerHeader: "xmailer",
		ErrorHandler: errorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:              app,
		actionHandler:    actionHandler,
		blinkHandler:     blinkHandler,
		analyticsHandler: analyticsHandler,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Action rule mapping for blink clients
	r.app.Get("/actions.json", r.actionsJSON)

	// Health check route (no rate limiting)
	r.app.Get("/api/v1/health", r.healthCheck)

	// API documentation route (development only)
	if os.Getenv("APP_ENV") == "development" || os.Getenv("APP_ENV") == "local" {
		r.app.Get("/api/v1/docs", r.getAPIDocumentation)
		log.Println("API documentation enabled for development")
	}

	api := r.app.Group("/api")

	// General rate limiting for all API routes
	api.Use(limiter.New(limiter.Config{
		Max:        1000,            // Maximum 1000 requests
		Expiration: 1 * time.Minute, // Per minute
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.Fail(
				"Too many requests. Please try again later.", "RATE_LIMIT_EXCEEDED", nil))
		},
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for health checks
			return c.Path() == "/api/v1/health"
		},
	}))

	// Action handshake endpoints. Wallets preflight every call, so
	// OPTIONS must answer 200 on each of them.
	actions := api.Group("/actions/blink")
	actions.Get("/:uniqueBlinkId", r.actionHandler.Describe)
	actions.Post("/:uniqueBlinkId", r.actionHandler.BuildTransaction)
	actions.Options("/:uniqueBlinkId", r.preflightOK)
	actions.Post("/:uniqueBlinkId/finalize", r.actionHandler.Finalize)
	actions.Options("/:uniqueBlinkId/finalize", r.preflightOK)

	// Analytics endpoints: GET is a read-only refresh, POST counts a visit
	api.Get("/analytics/:analyticsId", r.analyticsHandler.Refresh)
	api.Post("/analytics/:analyticsId", r.analyticsHandler.RecordVisit)
	api.Options("/analytics/:analyticsId", r.preflightOK)

	// Blink management endpoints
	api.Post("/blinks", r.blinkHandler.Create)
	api.Get("/blinks/:uniqueBlinkId", r.blinkHandler.ByUniqueBlinkID)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware. Framing and CSP stay relaxed because
	// action metadata is embedded by third-party wallet UIs.
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XDNSPrefetchControl:   "off",
		XDownloadOptions:      "noopen",
		XPermittedCrossDomain: "none",
	}))

	// The action protocol requires fully permissive CORS: any wallet or
	// client origin may fetch metadata and post transactions.
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			"GET", "POST", "PUT", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Accept-Encoding",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Content-Encoding",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
		},
		MaxAge: utils.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			contentType := c.Get("Content-Type")
			return strings.Contains(contentType, "image/")
		},
	}))

	// JSON access log
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health checks in production
			return c.Path() == "/api/v1/health"
		},
	}))

	// Prometheus metrics
	r.app.Use(middleware.Metrics())

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// preflightOK answers bare OPTIONS requests that bypass the CORS
// middleware's preflight handling
func (r *FiberRouter) preflightOK(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

// actionsJSON serves the rule mapping that lets blink clients resolve
// share links to the action API
func (r *FiberRouter) actionsJSON(c fiber.Ctx) error {
	return c.JSON(dto.ActionRuleSet{
		Rules: []dto.ActionRule{
			{
				PathPattern: "/blink/**",
				APIPath:     "/api/actions/blink/**",
			},
		},
	})
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.OK("Service is healthy", fiber.Map{
		"status":    "ok",
		"timestamp": utils.UTCNow().Unix(),
		"version":   "1.0.0",
		"service":   "xmailer-api",
	}))
}

// API documentation endpoint
func (r *FiberRouter) getAPIDocumentation(c fiber.Ctx) error {
	docs := GetRouteDocumentation()
	return c.JSON(dto.OK("API documentation retrieved successfully", fiber.Map{
		"title":       "xmailer API Documentation",
		"version":     "1.0.0",
		"description": "Paid mail actions and analytics API",
		"endpoints":   docs,
	}))
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.Fail(
		"The requested resource was not found", "NOT_FOUND", fiber.Map{
			"path":       c.Path(),
			"method":     c.Method(),
			"request_id": requestID,
		}))
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	// Default error code
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Log the error
	log.Printf("Error %d: %v", code, err)

	// Get RequestID for tracing
	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.Fail(
		"An internal server error occurred", "INTERNAL_ERROR", fiber.Map{
			"timestamp":  utils.UTCNow().Unix(),
			"request_id": requestID,
		}))
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GetRouteDocumentation returns API documentation
func GetRouteDocumentation() []map[string]any {
	return []map[string]any{
		{
			"method":      "GET",
			"path":        "/api/actions/blink/:uniqueBlinkId",
			"description": "Action metadata discovery",
			"parameters": map[string]any{
				"uniqueBlinkId": "string (required) - Blink slug in URL path",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/actions/blink/:uniqueBlinkId",
			"description": "Build unsigned transfer transaction",
			"parameters": map[string]any{
				"uniqueBlinkId": "string (required) - Blink slug in URL path",
				"account":       "string (required) - Visitor base58 account in JSON body",
				"codename":      "string (required) - Sender codename query parameter",
				"email":         "string (required) - Sender email query parameter",
				"description":   "string (required) - Message body query parameter",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/actions/blink/:uniqueBlinkId/finalize",
			"description": "Persist mail and dispatch notifications after payment",
			"parameters": map[string]any{
				"uniqueBlinkId": "string (required) - Blink slug in URL path",
				"codename":      "string (required) - Sender codename query parameter",
				"email":         "string (required) - Sender email query parameter",
				"description":   "string (required) - Message body query parameter",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/analytics/:analyticsId",
			"description": "Analytics snapshot without counting a visit",
			"parameters": map[string]any{
				"analyticsId": "string (required) - Analytics ID in URL path",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/analytics/:analyticsId",
			"description": "Analytics snapshot counting a dashboard visit",
			"parameters": map[string]any{
				"analyticsId": "string (required) - Analytics ID in URL path",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/blinks",
			"description": "Register a new blink",
			"parameters": map[string]any{
				"codename":    "string (required) - Creator codename",
				"email":       "string (required) - Creator email",
				"solana_key":  "string (required) - Base58 payout address",
				"asking_fee":  "number (required) - Fee in SOL, zero for free",
				"description": "string (optional) - Card description, max 500 chars",
				"image_url":   "string (optional) - Card image URL",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/blinks/:uniqueBlinkId",
			"description": "Fetch a raw blink record",
			"parameters": map[string]any{
				"uniqueBlinkId": "string (required) - Blink slug in URL path",
			},
		},
		{
			"method":      "GET",
			"path":        "/actions.json",
			"description": "Action rule mapping for blink clients",
			"parameters":  map[string]any{},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/health",
			"description": "Health check endpoint",
			"parameters":  map[string]any{},
		},
	}
}
