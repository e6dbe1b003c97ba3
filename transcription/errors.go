package transcription

import (
	"context"
	"errors"
)

// IsBackendFailure reports whether err says something about the backend's
// health. Rejected audio and caller cancellation do not.
func IsBackendFailure(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrRejectedAudio) && !errors.Is(err, context.Canceled)
}
