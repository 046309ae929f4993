// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// CodeInternal labels errors that carry no core code.
const CodeInternal = "INTERNAL_ERROR"

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInternal.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Input errors
	ErrInvalidSeries    = &Error{Code: "INVALID_SERIES", Message: "price series is malformed"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for analysis"}
	ErrInvalidHorizon   = &Error{Code: "INVALID_HORIZON", Message: "forecast horizon out of range"}

	// Provider errors
	ErrInvalidSymbol   = &Error{Code: "INVALID_SYMBOL", Message: "symbol is invalid or unknown"}
	ErrNetwork         = &Error{Code: "NETWORK_ERROR", Message: "provider could not be reached"}
	ErrRateLimited     = &Error{Code: "RATE_LIMITED", Message: "provider rate limit exceeded"}
	ErrNoData          = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrCollectorFailed = &Error{Code: "COLLECTOR_FAILED", Message: "collector failed"}
	ErrNewsFailed      = &Error{Code: "NEWS_FAILED", Message: "news provider failed"}

	// Model errors
	ErrModelNotFound = &Error{Code: "MODEL_NOT_FOUND", Message: "no sequence model available"}
	ErrModelFailed   = &Error{Code: "MODEL_FAILED", Message: "sequence model inference failed"}

	// Sentiment errors
	ErrScoringFailed = &Error{Code: "SCORING_FAILED", Message: "text scoring failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Access errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}
	ErrNotFound     = &Error{Code: "NOT_FOUND", Message: "resource not found"}

	// LLM errors
	ErrLLMFailed  = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
	ErrLLMTimeout = &Error{Code: "LLM_TIMEOUT", Message: "LLM request timeout"}
)
