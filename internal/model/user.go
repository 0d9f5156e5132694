package model

import (
	"fmt"
	"strings"
)

// Role is one of the closed set of platform roles. Session state keeps the
// lowercase form; the backend wire format is upper case.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Roles lists every valid role in landing-page precedence order.
var Roles = []Role{RoleAdmin, RoleStudent, RoleTeacher}

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}

	return role, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// Wire returns the representation the backend expects in login payloads.
func (r Role) Wire() string {
	return strings.ToUpper(string(r))
}

type User struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      Role   `json:"role,omitempty"`
	Status    string `json:"status,omitempty"`
	StudentNo string `json:"studentNo,omitempty"`
}

func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	if u.Username != "" {
		return u.Username
	}

	return "User"
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StudentRegistration struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	StudentNo string `json:"studentNo,omitempty"`
}

type TeacherRegistration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type Group struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	TeacherID   int64   `json:"teacherId,omitempty"`
	Members     []int64 `json:"members,omitempty"`
}
