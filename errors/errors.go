package errors

import (
	"fmt"
	"strings"
)

// AppError is an error that knows how to present itself to an HTTP client.
// Cause is for logs only and never reaches the response body.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause attaches the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds one entry to Details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New builds an AppError with an explicit status. Retryable follows the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

func newCode(code ErrorCode, message string) *AppError {
	return New(code, message, StatusFor(code))
}

func ServiceUnavailable(service string) *AppError {
	return newCode(ErrCodeServiceUnavailable, "The "+service+" is temporarily unavailable. Please try again.").
		WithDetail("service", service)
}

func Timeout(operation string) *AppError {
	return newCode(ErrCodeTimeout, "The request took too long. Please try again.").
		WithDetail("operation", operation)
}

func RateLimited() *AppError {
	return newCode(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.")
}

// NotFound reads "Task not found" for resource "task". An empty id is left
// out of the details.
func NotFound(resource, id string) *AppError {
	e := newCode(ErrCodeNotFound, capitalize(resource)+" not found").WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

func InvalidInput(field, reason string) *AppError {
	e := newCode(ErrCodeInvalidInput, "Invalid input: "+reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

func Validation(message string) *AppError {
	return newCode(ErrCodeInvalidInput, message)
}

// MissingField uses message as the client text, or a generic one when empty.
func MissingField(field, message string) *AppError {
	if message == "" {
		message = "Missing required field: " + field
	}
	return newCode(ErrCodeMissingField, message).WithDetail("field", field)
}

func EntityTooLarge(limit string) *AppError {
	return newCode(ErrCodeEntityTooBig, "Request body exceeds "+limit).WithDetail("limit", limit)
}

func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return newCode(ErrCodeUnauthorized, reason)
}

func TokenExpired() *AppError {
	return newCode(ErrCodeTokenExpired, "Token has expired.")
}

// InvalidToken covers both bad bearer tokens and unknown API keys.
func InvalidToken() *AppError {
	return newCode(ErrCodeInvalidToken, "Invalid authentication credentials.")
}

func Internal(cause error) *AppError {
	return newCode(ErrCodeInternal, "An unexpected error occurred.").WithCause(cause)
}

// StorageError wraps a failure of the upload or result store.
func StorageError(cause error) *AppError {
	return newCode(ErrCodeStorage, "A storage error occurred. Please try again.").WithCause(cause)
}

// TranscriptionFailed is the synchronous endpoint's answer when the
// provider fails.
func TranscriptionFailed(cause error) *AppError {
	return newCode(ErrCodeTranscriptionFailed, "Failed to transcribe audio").WithCause(cause)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
