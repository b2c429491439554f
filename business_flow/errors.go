// Package businessflow contains the core business logic and use cases for blink workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Blink-related errors
	ErrBlinkNotFound           = errors.New("blink not found")
	ErrBlinkCodenameRequired   = errors.New("codename is required")
	ErrBlinkEmailRequired      = errors.New("email is required")
	ErrBlinkEmailInvalid       = errors.New("email is invalid")
	ErrBlinkSolanaKeyRequired  = errors.New("solana key is required")
	ErrBlinkSolanaKeyInvalid   = errors.New("solana key is invalid")
	ErrBlinkFeeNegative        = errors.New("asking fee cannot be negative")
	ErrBlinkDescriptionTooLong = errors.New("description is too long")
	ErrBlinkAlreadyExists      = errors.New("blink already exists")

	// Mail-related errors
	ErrSenderEmailRequired = errors.New("sender email is required")
	ErrSenderEmailInvalid  = errors.New("sender email is invalid")
	ErrSenderNameRequired  = errors.New("sender name is required")
	ErrMessageBodyRequired = errors.New("message body is required")

	// Transaction-related errors
	ErrPayerAccountRequired = errors.New("payer account is required")
	ErrPayerAccountInvalid  = errors.New("payer account is invalid")
	ErrLedgerUnavailable    = errors.New("ledger unavailable")

	// Analytics-related errors
	ErrAnalyticsNotFound = errors.New("analytics not found")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsBlinkNotFound(err error) bool {
	return errors.Is(err, ErrBlinkNotFound)
}

func IsBlinkAlreadyExists(err error) bool {
	return errors.Is(err, ErrBlinkAlreadyExists)
}

func IsAnalyticsNotFound(err error) bool {
	return errors.Is(err, ErrAnalyticsNotFound)
}

func IsLedgerUnavailable(err error) bool {
	return errors.Is(err, ErrLedgerUnavailable)
}

// IsValidationError reports whether err is one of the request validation
// sentinels, which callers map to a 400 response.
func IsValidationError(err error) bool {
	for _, sentinel := range []error{
		ErrBlinkCodenameRequired,
		ErrBlinkEmailRequired,
		ErrBlinkEmailInvalid,
		ErrBlinkSolanaKeyRequired,
		ErrBlinkSolanaKeyInvalid,
		ErrBlinkFeeNegative,
		ErrBlinkDescriptionTooLong,
		ErrSenderEmailRequired,
		ErrSenderEmailInvalid,
		ErrSenderNameRequired,
		ErrMessageBodyRequired,
		ErrPayerAccountRequired,
		ErrPayerAccountInvalid,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
