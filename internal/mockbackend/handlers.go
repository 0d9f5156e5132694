package mockbackend

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"edu-task-portal/internal/model"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.BackendLoginRequest
	if !decodeBody(r, &req) {
		failure(w, "Invalid request body")
		return
	}

	user, err := s.dir.authenticate(req.Username, req.Password, req.Role)
	if err != nil {
		slog.Info("mock login refused", "username", req.Username, "role", req.Role)
		failure(w, "Invalid username or password, or account not activated")
		return
	}

	token, err := s.tokens.issue(user.ID, string(user.Role))
	if err != nil {
		failure(w, "Failed to issue token")
		return
	}

	success(w, map[string]any{
		"token":  token,
		"userId": user.ID,
		"user":   user,
	})
}

func (s *Server) registerStudent(w http.ResponseWriter, r *http.Request) {
	var req model.StudentRegistration
	if !decodeBody(r, &req) {
		failure(w, "Invalid request body")
		return
	}

	_, err := s.dir.create(model.User{
		Username:  req.Username,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		StudentNo: req.StudentNo,
		Role:      "STUDENT",
		Status:    StatusActive,
	}, req.Password)
	if err != nil {
		failure(w, registrationMessage(err))
		return
	}

	success(w, "Registration successful")
}

func (s *Server) registerTeacher(w http.ResponseWriter, r *http.Request) {
	var req model.TeacherRegistration
	if !decodeBody(r, &req) {
		failure(w, "Invalid request body")
		return
	}

	_, err := s.dir.create(model.User{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     "TEACHER",
		Status:   StatusPending,
	}, req.Password)
	if err != nil {
		failure(w, registrationMessage(err))
		return
	}

	success(w, "Registration successful, pending admin approval")
}

func registrationMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrUserAlreadyExists):
		return "Username already exists"
	case errors.Is(err, model.ErrInvalidInput):
		return "Username and password are required"
	default:
		return "Registration failed"
	}
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	user, ok := s.dir.get(claims.UserID)
	if !ok {
		failure(w, "User not found")
		return
	}
	if user.Status != StatusActive {
		failure(w, "Account is not active")
		return
	}

	success(w, user)
}

func (s *Server) pendingTeachers(w http.ResponseWriter, _ *http.Request) {
	success(w, s.dir.list("TEACHER", StatusPending, ""))
}

func (s *Server) approveTeacher(w http.ResponseWriter, r *http.Request) {
	s.setTeacherStatus(w, r, StatusActive, "Teacher approved")
}

func (s *Server) rejectTeacher(w http.ResponseWriter, r *http.Request) {
	s.setTeacherStatus(w, r, StatusRejected, "Teacher registration rejected")
}

func (s *Server) setTeacherStatus(w http.ResponseWriter, r *http.Request, status string, message string) {
	id, ok := pathID(r, "id")
	if !ok {
		failure(w, "Invalid teacher id")
		return
	}

	existing, found := s.dir.get(id)
	if !found || existing.Role != "TEACHER" {
		failure(w, "Teacher not found")
		return
	}

	s.dir.update(id, func(u *model.User) { u.Status = status })
	success(w, message)
}

func (s *Server) deleteTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		failure(w, "Invalid teacher id")
		return
	}

	existing, found := s.dir.get(id)
	if !found || existing.Role != "TEACHER" || !s.dir.remove(id) {
		failure(w, "Teacher not found")
		return
	}

	success(w, "Teacher deleted")
}

func (s *Server) adminTeachers(w http.ResponseWriter, r *http.Request) {
	p := listParams(r)
	success(w, paginate(s.dir.list("TEACHER", "", p.Name), p.Page, p.PageSize))
}

func (s *Server) adminStudents(w http.ResponseWriter, r *http.Request) {
	p := listParams(r)
	success(w, paginate(s.dir.list("STUDENT", "", p.Name), p.Page, p.PageSize))
}

func (s *Server) adminGroups(w http.ResponseWriter, r *http.Request) {
	p := listParams(r)
	success(w, paginate(s.dir.groupsWhere(nameContains(p.Name)), p.Page, p.PageSize))
}

func (s *Server) registrationTrend(w http.ResponseWriter, _ *http.Request) {
	success(w, s.dir.registrationsByDay())
}

func (s *Server) recentActivities(w http.ResponseWriter, r *http.Request) {
	p := listParams(r)
	if p.PageSize <= 0 {
		p.PageSize = 10
	}
	success(w, s.dir.recent(p.PageSize))
}

func (s *Server) studentInfo(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	user, ok := s.dir.get(claims.UserID)
	if !ok {
		failure(w, "Student not found")
		return
	}
	success(w, user)
}

func (s *Server) updateStudentInfo(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var patch model.User
	if !decodeBody(r, &patch) {
		failure(w, "Invalid request body")
		return
	}

	_, ok := s.dir.update(claims.UserID, func(u *model.User) {
		if patch.Name != "" {
			u.Name = patch.Name
		}
		if patch.Email != "" {
			u.Email = patch.Email
		}
		if patch.Phone != "" {
			u.Phone = patch.Phone
		}
	})
	if !ok {
		failure(w, "Student not found")
		return
	}

	success(w, nil)
}

func (s *Server) studentGroups(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	success(w, s.dir.groupsWhere(func(g model.Group) bool {
		return containsID(g.Members, claims.UserID)
	}))
}

func (s *Server) joinGroup(w http.ResponseWriter, r *http.Request) {
	s.membership(w, r, true, "Joined group")
}

func (s *Server) leaveGroup(w http.ResponseWriter, r *http.Request) {
	s.membership(w, r, false, "Left group")
}

func (s *Server) membership(w http.ResponseWriter, r *http.Request, member bool, message string) {
	claims, _ := claimsFrom(r.Context())

	id, ok := pathID(r, "id")
	if !ok || !s.dir.setMembership(id, claims.UserID, member) {
		failure(w, "Group not found")
		return
	}
	success(w, message)
}

func (s *Server) groupMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		failure(w, "Group not found")
		return
	}

	members, found := s.dir.members(id)
	if !found {
		failure(w, "Group not found")
		return
	}
	success(w, members)
}

func (s *Server) teacherStats(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	owned := s.dir.groupsWhere(ownedBy(claims.UserID))

	students := map[int64]struct{}{}
	for _, g := range owned {
		for _, id := range g.Members {
			students[id] = struct{}{}
		}
	}

	success(w, model.TeacherStats{
		TotalStudents: int64(len(students)),
		TotalGroups:   int64(len(owned)),
	})
}

func (s *Server) teacherStudents(w http.ResponseWriter, r *http.Request) {
	p := listParams(r)
	success(w, paginate(s.dir.list("STUDENT", StatusActive, p.Name), p.Page, p.PageSize))
}

func (s *Server) teacherGroups(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	p := listParams(r)

	owned := ownedBy(claims.UserID)
	named := nameContains(p.Name)
	groups := s.dir.groupsWhere(func(g model.Group) bool { return owned(g) && named(g) })

	success(w, paginate(groups, p.Page, p.PageSize))
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var g model.Group
	if !decodeBody(r, &g) {
		failure(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(g.Name) == "" {
		failure(w, "Failed to create group: name is required")
		return
	}

	g.TeacherID = claims.UserID
	success(w, s.dir.createGroup(g))
}

func (s *Server) searchStudent(w http.ResponseWriter, r *http.Request) {
	success(w, s.dir.list("STUDENT", StatusActive, r.URL.Query().Get("name")))
}

func nameContains(name string) func(model.Group) bool {
	needle := strings.ToLower(strings.TrimSpace(name))
	return func(g model.Group) bool {
		return needle == "" || strings.Contains(strings.ToLower(g.Name), needle)
	}
}

func ownedBy(teacherID int64) func(model.Group) bool {
	return func(g model.Group) bool { return g.TeacherID == teacherID }
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
