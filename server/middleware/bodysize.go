package middleware

import (
	"net/http"

	apperrors "github.com/kbukum/whisper-srt/errors"
	"github.com/kbukum/whisper-srt/util"
)

const defaultMaxBodySize = 100 * 1024 * 1024 // 100MB

// BodySizeLimit restricts the request body to the given size string (e.g.
// "100MB", "512KB"). Reads past the limit fail with *http.MaxBytesError.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				w.Header().Set("Connection", "close")
				writeError(w, tooLarge(maxSize))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

func tooLarge(limit string) *apperrors.AppError {
	return apperrors.EntityTooLarge(limit)
}
