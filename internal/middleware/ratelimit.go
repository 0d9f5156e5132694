package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"edu-task-portal/internal/model"
)

type clientLimiter struct {
	general  *rate.Limiter
	session  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps two token buckets per client IP: a general one
// and a stricter one for credential-bearing session actions.
type RateLimitMiddleware struct {
	generalRPM int
	sessionRPM int
	mu         sync.Mutex
	clients    map[string]*clientLimiter
}

// NewRateLimitMiddleware treats generalRPM <= 0 as unlimited. sessionRPM <= 0
// falls back to 20 per minute.
func NewRateLimitMiddleware(generalRPM int, sessionRPM int) *RateLimitMiddleware {
	if sessionRPM <= 0 {
		sessionRPM = 20
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		sessionRPM: sessionRPM,
		clients:    map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.ToLower(r.URL.Path)
		if path == "/health" || path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		limiter := m.getLimiter(extractClientIP(r))

		target := limiter.general
		if isSessionAction(r.Method, path) {
			target = limiter.session
		}

		if target != nil && !target.Allow() {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, model.APIResponse{
				Success: false,
				Error: &model.APIError{
					Code:    "RATE_LIMITED",
					Message: "Too many requests",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isSessionAction reports whether the request submits credentials.
func isSessionAction(method string, path string) bool {
	if method != http.MethodPost {
		return false
	}
	return path == "/session/login" || strings.HasPrefix(path, "/session/register/")
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = time.Now()
		m.gcLocked()
		return limiter
	}

	created := &clientLimiter{
		session:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.sessionRPM)), m.sessionRPM),
		lastSeen: time.Now(),
	}
	if m.generalRPM > 0 {
		created.general = rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.generalRPM)), m.generalRPM)
	}
	m.clients[clientIP] = created
	m.gcLocked()

	return created
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

func extractClientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
