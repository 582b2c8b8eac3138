package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/CAFxX/httpcompression"
)

// Compression negotiates gzip, brotli or zstd with the client. Event streams
// are left alone so datastar patches reach the browser as they are flushed.
func Compression() (Middleware, error) {
	adapter, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, fmt.Errorf("create compression adapter: %w", err)
	}

	return func(next http.Handler) http.Handler {
		compressed := adapter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isEventStream(r) {
				next.ServeHTTP(w, r)
				return
			}
			compressed.ServeHTTP(w, r)
		})
	}, nil
}

func isEventStream(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/sse/") ||
		strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}
