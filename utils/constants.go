package utils

import (
	"time"
)

// ContextKey is the type for values attached to request contexts
type ContextKey string

// Request context keys
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// Request handling constants
const (
	// RequestTimeout bounds the flow execution of a single HTTP request
	RequestTimeout = 10 * time.Second

	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Blink field constants
const (
	// DescriptionMaxLength bounds the stored blink description
	DescriptionMaxLength = 500
)
