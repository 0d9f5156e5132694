package guard

import (
	"fmt"
	"strings"

	"edu-task-portal/internal/model"
)

type Route struct {
	Path        string      `json:"path"`
	Name        string      `json:"name"`
	View        string      `json:"view"`
	Requirement Requirement `json:"meta"`
}

// DefaultRoutes is the page table of the portal.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Name: "Auth", View: "AuthPage", Requirement: Requirement{RequiresGuest: true}},
		{Path: "/admin", Name: "AdminDashboard", View: "AdminDashboard", Requirement: Requirement{RequiresAuth: true, Role: model.RoleAdmin}},
		{Path: "/student", Name: "StudentDashboard", View: "StudentDashboard", Requirement: Requirement{RequiresAuth: true, Role: model.RoleStudent}},
		{Path: "/teacher", Name: "TeacherDashboard", View: "TeacherDashboard", Requirement: Requirement{RequiresAuth: true, Role: model.RoleTeacher}},
		{Path: "/api-test", Name: "ApiTest", View: "ApiTest"},
	}
}

// Table is an immutable route table keyed by exact path.
type Table struct {
	routes []Route
	byPath map[string]Route
}

func NewTable(routes []Route) (*Table, error) {
	t := &Table{byPath: make(map[string]Route, len(routes))}

	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: path %q must start with /", model.ErrInvalidRoute, r.Path)
		}
		if _, dup := t.byPath[r.Path]; dup {
			return nil, fmt.Errorf("%w: duplicate path %q", model.ErrInvalidRoute, r.Path)
		}
		if r.Requirement.Role != "" && !r.Requirement.Role.Valid() {
			return nil, fmt.Errorf("%w: route %q: %w", model.ErrInvalidRoute, r.Path, model.ErrInvalidRole)
		}
		if r.Requirement.RequiresGuest && (r.Requirement.RequiresAuth || r.Requirement.Role != "") {
			return nil, fmt.Errorf("%w: route %q cannot be both guest-only and authenticated", model.ErrInvalidRoute, r.Path)
		}

		t.byPath[r.Path] = r
		t.routes = append(t.routes, r)
	}

	return t, nil
}

// MustDefaultTable panics only if the built-in table is malformed.
func MustDefaultTable() *Table {
	t, err := NewTable(DefaultRoutes())
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Lookup(path string) (Route, bool) {
	r, ok := t.byPath[normalize(path)]
	return r, ok
}

func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Navigate resolves path and applies the guard to it.
func (t *Table) Navigate(id Identity, path string) (Route, Decision, error) {
	r, ok := t.Lookup(path)
	if !ok {
		return Route{}, Decision{}, fmt.Errorf("%w: %s", model.ErrRouteNotFound, path)
	}
	return r, Decide(id, r.Requirement), nil
}

func normalize(path string) string {
	if path == "" {
		return EntryPath
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
