package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/kbukum/whisper-srt/errors"
)

// APIKeyHeader carries a static API key.
const APIKeyHeader = "X-API-Key"

// AuthConfig configures the authentication middleware. At least one of the
// validators should be set.
type AuthConfig struct {
	// TokenValidator validates a bearer token and returns its subject.
	TokenValidator func(token string) (subject string, err error)
	// KeyValidator validates an API key and returns the key name.
	KeyValidator func(key string) (name string, ok bool)
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
}

type principalKey struct{}

// Principal returns the authenticated subject stored by Auth.
func Principal(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(string)
	return p
}

// Auth requires either "Authorization: Bearer <token>" or an X-API-Key
// header on every request outside SkipPaths.
func Auth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || skipped(r.URL.Path, cfg.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			if key := r.Header.Get(APIKeyHeader); key != "" && cfg.KeyValidator != nil {
				name, ok := cfg.KeyValidator(key)
				if !ok {
					writeError(w, apperrors.InvalidToken())
					return
				}
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, name)))
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" || cfg.TokenValidator == nil {
				writeError(w, apperrors.Unauthorized(""))
				return
			}
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, apperrors.Unauthorized("Invalid authorization header format."))
				return
			}

			subject, err := cfg.TokenValidator(token)
			if err != nil {
				var appErr *apperrors.AppError
				if !errors.As(err, &appErr) {
					appErr = apperrors.InvalidToken()
				}
				writeError(w, appErr)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, subject)))
		})
	}
}

func skipped(path string, prefixes []string) bool {
	if quietPaths[path] {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
