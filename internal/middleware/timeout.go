package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds buffered JSON endpoints such as /session. Do not use it on
// the proxy or the WebSocket route: http.TimeoutHandler buffers the body and
// cannot be hijacked.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 75 * time.Second
	}

	message := `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
