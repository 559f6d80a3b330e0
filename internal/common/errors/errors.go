// Package errors provides standardized error handling for the search-chat pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidSession      ErrorCode = "INVALID_SESSION"
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeSearchFailed        ErrorCode = "SEARCH_FAILED"
	ErrCodeFetchTimeout        ErrorCode = "FETCH_TIMEOUT"
	ErrCodeNetwork             ErrorCode = "NETWORK_ERROR"
	ErrCodeConfiguration       ErrorCode = "CONFIGURATION_ERROR"
	ErrCodePersistence         ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   UserMessage(ErrCodeValidation),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidSessionError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSession,
		Message:   UserMessage(ErrCodeInvalidSession),
		Details:   fmt.Sprintf("responseId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamUnavailableError is used when the completion provider yields no readable answer.
func NewUpstreamUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   UserMessage(ErrCodeUpstreamUnavailable),
		Details:   detailsOf(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   UserMessage(ErrCodeSearchFailed),
		Details:   detailsOf(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewFetchTimeoutError(url string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFetchTimeout,
		Message:   fmt.Sprintf("Fetching '%s' timed out", url),
		Details:   detailsOf(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewNetworkError(url string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   fmt.Sprintf("Fetching '%s' failed", url),
		Details:   detailsOf(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewConfigurationError marks an unrecoverable setup problem such as a missing credential.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Service is misconfigured",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewPersistenceError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistence,
		Message:   UserMessage(ErrCodePersistence),
		Details:   fmt.Sprintf("%s: %s", op, detailsOf(err)),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   UserMessage(ErrCodeInternal),
		Details:   detailsOf(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 3. Envelope Mapping
// ==========================

var userMessages = map[ErrorCode]string{
	ErrCodeValidation:          "A search query is required to process your request.",
	ErrCodeInvalidSession:      "Invalid conversation reference. Please provide a valid response ID.",
	ErrCodeUpstreamUnavailable: "Unable to retrieve AI response data. Please try again later.",
	ErrCodeSearchFailed:        "Unable to search the web right now. Please try again later.",
	ErrCodePersistence:         "Unable to save the conversation. Please try again later.",
	ErrCodeInternal:            "The assistant encountered an error. Please try again later.",
}

// UserMessage returns the fixed user-facing message for a code.
func UserMessage(code ErrorCode) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return userMessages[ErrCodeInternal]
}

// HTTPStatus returns the status carried in the response envelope for a code.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidation, ErrCodeInvalidSession:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// AsStandard extracts a StandardError from err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsFatal reports whether err must abort the request without an envelope.
func IsFatal(err error) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == ErrCodeConfiguration
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeUpstreamUnavailable, ErrCodeSearchFailed, ErrCodeFetchTimeout, ErrCodeNetwork, ErrCodePersistence:
		return true
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "FETCH") || strings.Contains(codeStr, "NETWORK"):
		return "SOURCE"
	case strings.Contains(codeStr, "UPSTREAM"):
		return "AI"
	case strings.Contains(codeStr, "PERSISTENCE"):
		return "STORAGE"
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	default:
		return "OTHER"
	}
}
