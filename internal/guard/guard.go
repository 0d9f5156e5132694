// Package guard decides whether a navigation may proceed given the current
// session. It has no side effects and never consults the backend.
package guard

import "edu-task-portal/internal/model"

// EntryPath is the authentication page every rejected navigation lands on.
const EntryPath = "/"

// Identity is the read-only view of a session the guard needs.
type Identity interface {
	IsAuthenticated() bool
	HasRole(role model.Role) bool
}

// Requirement is the access metadata attached to a route. The zero value
// places no restriction. Role, when set, implies RequiresAuth.
type Requirement struct {
	RequiresAuth  bool       `json:"requiresAuth,omitempty"`
	RequiresGuest bool       `json:"requiresGuest,omitempty"`
	Role          model.Role `json:"requiresRole,omitempty"`
}

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonRoleMismatch    Reason = "role_mismatch"
	ReasonGuestOnly       Reason = "guest_only"
)

type Decision struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
	Reason   Reason `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirect(to string, reason Reason) Decision {
	return Decision{Redirect: to, Reason: reason}
}

// Decide applies the rules in order: authentication, role, guest-only. A role
// mismatch redirects to the entry page, exactly like an anonymous visit.
func Decide(id Identity, req Requirement) Decision {
	authenticated := id != nil && id.IsAuthenticated()

	if (req.RequiresAuth || req.Role != "") && !authenticated {
		return redirect(EntryPath, ReasonUnauthenticated)
	}

	if req.Role != "" && !id.HasRole(req.Role) {
		return redirect(EntryPath, ReasonRoleMismatch)
	}

	if req.RequiresGuest && authenticated {
		return redirect(LandingPath(roleOf(id)), ReasonGuestOnly)
	}

	return allow()
}

// LandingPath is the dashboard for role, or the entry page for anything else.
func LandingPath(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return "/admin"
	case model.RoleStudent:
		return "/student"
	case model.RoleTeacher:
		return "/teacher"
	default:
		return EntryPath
	}
}

func roleOf(id Identity) model.Role {
	for _, role := range model.Roles {
		if id.HasRole(role) {
			return role
		}
	}
	return ""
}
