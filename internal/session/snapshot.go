package session

import "edu-task-portal/internal/model"

type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Snapshot is an immutable copy of the session taken under the manager's
// read lock. Readers such as the navigation guard only ever see snapshots.
type Snapshot struct {
	Token   string      `json:"-"`
	Role    model.Role  `json:"role,omitempty"`
	User    *model.User `json:"user,omitempty"`
	Loading bool        `json:"loading"`
}

// IsAuthenticated is true exactly when a token is present.
func (s Snapshot) IsAuthenticated() bool {
	return s.Token != ""
}

func (s Snapshot) State() State {
	switch {
	case s.IsAuthenticated():
		return Authenticated
	case s.Loading:
		return Authenticating
	default:
		return Anonymous
	}
}

func (s Snapshot) HasRole(role model.Role) bool {
	return s.IsAuthenticated() && s.Role == role
}

func (s Snapshot) IsAdmin() bool   { return s.HasRole(model.RoleAdmin) }
func (s Snapshot) IsTeacher() bool { return s.HasRole(model.RoleTeacher) }
func (s Snapshot) IsStudent() bool { return s.HasRole(model.RoleStudent) }

func (s Snapshot) UserID() int64 {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}

func (s Snapshot) DisplayName() string {
	return s.User.DisplayName()
}

// View is the JSON shape exposed to portal callers; it never includes the token.
type View struct {
	State           string      `json:"state"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	Role            model.Role  `json:"role,omitempty"`
	User            *model.User `json:"user,omitempty"`
	DisplayName     string      `json:"displayName,omitempty"`
	Loading         bool        `json:"loading"`
}

func (s Snapshot) View() View {
	return View{
		State:           s.State().String(),
		IsAuthenticated: s.IsAuthenticated(),
		Role:            s.Role,
		User:            s.User,
		DisplayName:     s.DisplayName(),
		Loading:         s.Loading,
	}
}
