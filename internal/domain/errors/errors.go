package errors

import (
	"net/http"

	"authlinker/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// ErrInvalidAction is returned when the requested action is not on the allow-list.
	ErrInvalidAction = NewBaseError(
		http.StatusBadRequest,
		"INVALID_ACTION",
		"the requested action is not allowed",
		"",
	)

	// ErrCooldownActive is returned when the subject/action pair is still rate-limited.
	ErrCooldownActive = NewBaseError(
		http.StatusTooManyRequests,
		"COOLDOWN_ACTIVE",
		"link was requested too recently, please wait before retrying",
		"",
	)

	// ErrKeysNotLoaded is returned when the asymmetric codec is configured but no
	// keypair has been generated yet. Admin-actionable, not retryable by the caller.
	ErrKeysNotLoaded = NewBaseError(
		http.StatusServiceUnavailable,
		"KEYS_NOT_LOADED",
		"encryption keypair is not loaded, run key generation first",
		"",
	)

	// ErrStorageFailure is returned when the record store rejects a write or read.
	// The detailed cause is logged, never surfaced.
	ErrStorageFailure = NewBaseError(
		http.StatusInternalServerError,
		"STORAGE_FAILURE",
		"failed to store the auth link",
		"",
	)

	// ErrCryptoFailure is returned when a digest or cipher operation fails.
	// Fatal to the single issuance attempt only.
	ErrCryptoFailure = NewBaseError(
		http.StatusInternalServerError,
		"CRYPTO_FAILURE",
		"failed to encode the auth link",
		"",
	)

	// ErrInvalidLink is the single externally visible verification failure.
	// Bad hash, expired, already used, superseded and malformed payloads all
	// collapse into it so the caller cannot tell which check failed.
	ErrInvalidLink = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_LINK",
		"invalid or expired link",
		"",
	)

	// ErrKeyGenerationFailed is returned when the admin keygen operation fails.
	ErrKeyGenerationFailed = NewBaseError(
		http.StatusInternalServerError,
		"KEY_GENERATION_FAILED",
		"failed to generate encryption keypair",
		"",
	)
)
