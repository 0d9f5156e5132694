package mockbackend

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const claimsContextKey contextKey = "mock_claims"

func claimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(Claims)
	return c, ok
}

// accessControl mirrors the platform's login interceptor: everything outside
// /login and /register needs a valid bearer token (401 NOT_LOGIN), and each
// role may only reach its own URL prefixes (403 FORBIDDEN).
func (s *Server) accessControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, apiPrefix)

		if strings.HasPrefix(path, "/login") || strings.HasPrefix(path, "/register") {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			reject(w, http.StatusUnauthorized, "NOT_LOGIN")
			return
		}

		claims, err := s.tokens.parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			slog.Debug("mock backend rejected token", "path", r.URL.Path, "error", err)
			reject(w, http.StatusUnauthorized, "NOT_LOGIN")
			return
		}

		if !allowed(claims.Role, r.Method, path) {
			reject(w, http.StatusForbidden, "FORBIDDEN")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims)))
	})
}

var teacherPrefixes = []string{
	"/teacher", "/task", "/group", "/member-weekly-goal", "/task-assignment",
	"/student", "/admin/students", "/admin/groups", "/upload", "/file",
}

var studentPrefixes = []string{
	"/student", "/task-assignment", "/meeting", "/upload", "/file", "/agent",
}

func allowed(role string, method string, path string) bool {
	// The current-user endpoint serves every signed-in role.
	if path == "/user/current" {
		return true
	}

	switch role {
	case "ADMIN":
		return true
	case "TEACHER":
		return hasAnyPrefix(path, teacherPrefixes)
	case "STUDENT":
		if method == http.MethodGet && path == "/groups" {
			return true
		}
		return hasAnyPrefix(path, studentPrefixes)
	default:
		return false
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
