package errors

import "net/http"

// ErrorCode is the machine-readable half of an error response.
type ErrorCode string

const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"

	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField  ErrorCode = "MISSING_FIELD"
	ErrCodeEntityTooBig  ErrorCode = "ENTITY_TOO_LARGE"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"

	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
	ErrCodeStorage             ErrorCode = "STORAGE_ERROR"
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
)

// codeInfo is the default HTTP status of a code and whether clients may
// retry. The service itself never retries; the flag is advice.
var codeInfo = map[ErrorCode]struct {
	status    int
	retryable bool
}{
	ErrCodeServiceUnavailable:  {http.StatusServiceUnavailable, true},
	ErrCodeTimeout:             {http.StatusGatewayTimeout, true},
	ErrCodeRateLimited:         {http.StatusTooManyRequests, true},
	ErrCodeNotFound:            {http.StatusNotFound, false},
	ErrCodeInvalidInput:        {http.StatusBadRequest, false},
	ErrCodeMissingField:        {http.StatusBadRequest, false},
	ErrCodeEntityTooBig:        {http.StatusRequestEntityTooLarge, false},
	ErrCodeInvalidFormat:       {http.StatusBadRequest, false},
	ErrCodeUnauthorized:        {http.StatusUnauthorized, false},
	ErrCodeTokenExpired:        {http.StatusUnauthorized, false},
	ErrCodeInvalidToken:        {http.StatusUnauthorized, false},
	ErrCodeInternal:            {http.StatusInternalServerError, false},
	ErrCodeStorage:             {http.StatusInternalServerError, true},
	ErrCodeTranscriptionFailed: {http.StatusInternalServerError, false},
}

// IsRetryableCode reports whether clients may retry a request that failed
// with code.
func IsRetryableCode(code ErrorCode) bool {
	return codeInfo[code].retryable
}

// StatusFor returns the default HTTP status of code, 500 for unknown codes.
func StatusFor(code ErrorCode) int {
	if info, ok := codeInfo[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
