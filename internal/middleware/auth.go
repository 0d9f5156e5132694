package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"edu-task-portal/internal/guard"
	"edu-task-portal/internal/model"
	"edu-task-portal/internal/session"
)

type sessionReader interface {
	Snapshot() session.Snapshot
}

type contextKey string

const (
	snapshotContextKey contextKey = "session_snapshot"
	routeContextKey    contextKey = "guard_route"
)

// NavigationMiddleware runs the route guard before every page is served.
type NavigationMiddleware struct {
	sessions sessionReader
}

func NewNavigationMiddleware(sessions sessionReader) *NavigationMiddleware {
	return &NavigationMiddleware{sessions: sessions}
}

// Guard admits the request to route or redirects it. Browser navigations get
// a 302; JSON clients get a 401/403 envelope carrying the redirect target.
func (m *NavigationMiddleware) Guard(route guard.Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := m.sessions.Snapshot()
			decision := guard.Decide(snap, route.Requirement)

			if !decision.Allow {
				slog.Info("navigation redirected",
					"route", route.Name,
					"path", r.URL.Path,
					"redirect", decision.Redirect,
					"reason", decision.Reason,
					"role", snap.Role,
				)

				if wantsJSON(r) {
					writeRedirect(w, decision)
					return
				}
				http.Redirect(w, r, decision.Redirect, http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), snapshotContextKey, snap)
			ctx = context.WithValue(ctx, routeContextKey, route)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SnapshotFromContext returns the session snapshot the guard decided on.
func SnapshotFromContext(ctx context.Context) (session.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotContextKey).(session.Snapshot)
	return snap, ok
}

func RouteFromContext(ctx context.Context) (guard.Route, bool) {
	route, ok := ctx.Value(routeContextKey).(guard.Route)
	return route, ok
}

func wantsJSON(r *http.Request) bool {
	accept := strings.ToLower(r.Header.Get("Accept"))
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func writeRedirect(w http.ResponseWriter, decision guard.Decision) {
	status := http.StatusUnauthorized
	code := "UNAUTHORIZED"
	message := "authentication required"

	switch decision.Reason {
	case guard.ReasonRoleMismatch:
		status = http.StatusForbidden
		code = "FORBIDDEN"
		message = "insufficient permissions"
	case guard.ReasonGuestOnly:
		status = http.StatusSeeOther
		code = "ALREADY_AUTHENTICATED"
		message = "already signed in"
	}

	w.Header().Set("Location", decision.Redirect)
	writeJSON(w, status, model.APIResponse{
		Success:  false,
		Redirect: decision.Redirect,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
