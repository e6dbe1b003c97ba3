package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Compress gzips responses of at least minSize bytes for clients that
// accept it. level 0 keeps the library default.
func Compress(level, minSize int) (Middleware, error) {
	var (
		wrap func(http.Handler) http.HandlerFunc
		err  error
	)
	if level == 0 {
		wrap, err = gzhttp.NewWrapper(gzhttp.MinSize(minSize))
	} else {
		wrap, err = gzhttp.NewWrapper(gzhttp.MinSize(minSize), gzhttp.CompressionLevel(level))
	}
	if err != nil {
		return nil, err
	}
	return func(next http.Handler) http.Handler {
		return wrap(next)
	}, nil
}
