package errors

import stderrors "errors"

// ErrorResponse is the JSON error body. Error carries the client-facing
// message, for example {"error": "Task not found", "code": "NOT_FOUND"}.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      ErrorCode      `json:"code"`
	Retryable bool           `json:"retryable,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Code: e.Code, Retryable: e.Retryable, Details: e.Details}
}

// AsAppError finds an AppError anywhere in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var target *AppError
	ok := stderrors.As(err, &target)
	return target, ok
}

// From never returns nil for a non-nil err: anything that is not already
// an AppError becomes Internal, which hides its text from clients.
func From(err error) *AppError {
	if target, ok := AsAppError(err); ok {
		return target
	}
	return Internal(err)
}
