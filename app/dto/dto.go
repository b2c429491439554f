package dto

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail represents error details in API responses
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}

// OK wraps data in a successful response envelope.
func OK(message string, data any) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// Fail wraps an error code and details in a failed response envelope.
func Fail(message, code string, details any) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
		Error: ErrorDetail{
			Code:    code,
			Details: details,
		},
	}
}
