package handler

import (
	"net/http"

	"edu-task-portal/internal/guard"
	"edu-task-portal/internal/middleware"
	"edu-task-portal/internal/session"
)

// PageHandler serves the views behind the route table. The navigation guard
// has already admitted the request when Serve runs.
type PageHandler struct {
	routes *guard.Table
}

func NewPageHandler(routes *guard.Table) *PageHandler {
	return &PageHandler{routes: routes}
}

type pageResponse struct {
	Route   guard.Route  `json:"route"`
	Session session.View `json:"session"`
}

func (h *PageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	route, ok := middleware.RouteFromContext(r.Context())
	if !ok {
		route, ok = h.routes.Lookup(r.URL.Path)
	}
	if !ok {
		writeError(w, badRequest("no view for path", r.URL.Path))
		return
	}

	snap, _ := middleware.SnapshotFromContext(r.Context())
	writeSuccess(w, http.StatusOK, pageResponse{Route: route, Session: snap.View()})
}

// Routes lists the route table with its access requirements.
func (h *PageHandler) Routes(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, h.routes.Routes())
}

// Navigate answers where a navigation to ?path= would end up for the current
// session, without performing it.
type NavigateHandler struct {
	routes   *guard.Table
	sessions interface{ Snapshot() session.Snapshot }
}

func NewNavigateHandler(routes *guard.Table, sessions interface{ Snapshot() session.Snapshot }) *NavigateHandler {
	return &NavigateHandler{routes: routes, sessions: sessions}
}

func (h *NavigateHandler) Check(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, badRequest("path is required", "path"))
		return
	}

	route, decision, err := h.routes.Navigate(h.sessions.Snapshot(), path)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"route": route, "decision": decision})
}
