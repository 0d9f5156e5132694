// Package mockbackend is an in-memory stand-in for the platform backend. It
// speaks the same {code,msg,data} envelope, issues JWTs, enforces the same
// role URL rules and is used for local development and end-to-end tests.
package mockbackend

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"edu-task-portal/internal/model"
)

const apiPrefix = "/api"

type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost; tests use bcrypt.MinCost.
	BcryptCost int
	// AdminPassword seeds the "admin" account; empty means "admin123".
	AdminPassword string
}

type Server struct {
	dir    *directory
	tokens *tokenIssuer
}

func New(cfg Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("mock backend: JWT secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "admin123"
	}

	s := &Server{
		dir:    newDirectory(cfg.BcryptCost),
		tokens: &tokenIssuer{secret: []byte(cfg.JWTSecret), ttl: cfg.TokenTTL, now: time.Now},
	}

	admin := model.User{Username: "admin", Name: "Administrator", Role: "ADMIN", Status: StatusActive}
	if _, err := s.dir.create(admin, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	return s, nil
}

// Seed adds an account directly, bypassing registration rules. The role may
// be in either case; an empty status means ACTIVE.
func (s *Server) Seed(u model.User, password string) (model.User, error) {
	if u.Status == "" {
		u.Status = StatusActive
	}
	u.Role = model.Role(u.Role.Wire())
	return s.dir.create(u, password)
}

// SeedGroup adds a group directly.
func (s *Server) SeedGroup(g model.Group) model.Group {
	return s.dir.createGroup(g)
}

// IssueToken signs a token for an existing or imaginary user.
func (s *Server) IssueToken(userID int64, role model.Role) (string, error) {
	return s.tokens.issue(userID, role.Wire())
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route(apiPrefix, func(api chi.Router) {
		api.Use(s.accessControl)

		api.Post("/login", s.login)
		api.Post("/register/student", s.registerStudent)
		api.Post("/register/teacher", s.registerTeacher)
		api.Get("/user/current", s.currentUser)

		api.Route("/admin", func(admin chi.Router) {
			admin.Get("/teachers/pending", s.pendingTeachers)
			admin.Post("/teachers/{id}/approve", s.approveTeacher)
			admin.Post("/teachers/{id}/reject", s.rejectTeacher)
			admin.Delete("/teachers/{id}", s.deleteTeacher)
			admin.Get("/teachers", s.adminTeachers)
			admin.Get("/students", s.adminStudents)
			admin.Get("/groups", s.adminGroups)
			admin.Get("/registration-trend", s.registrationTrend)
			admin.Get("/recent-activities", s.recentActivities)
			admin.Post("/students/batch-import", s.importStudents)
			admin.Post("/teachers/batch-import", s.importTeachers)
		})

		api.Route("/student", func(student chi.Router) {
			student.Get("/info", s.studentInfo)
			student.Put("/info", s.updateStudentInfo)
			student.Get("/groups", s.studentGroups)
			student.Post("/groups/{id}/join", s.joinGroup)
			student.Post("/groups/{id}/leave", s.leaveGroup)
			student.Get("/groups/{id}/members", s.groupMembers)
		})

		api.Route("/teacher", func(teacher chi.Router) {
			teacher.Get("/dashboard/stats", s.teacherStats)
			teacher.Get("/students", s.teacherStudents)
			teacher.Get("/groups", s.teacherGroups)
			teacher.Post("/groups", s.createGroup)
			teacher.Get("/searchStudent", s.searchStudent)
			teacher.Post("/students/batch-import", s.importStudents)
			teacher.Post("/groups/batch-import", s.importGroups)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	slog.Debug("mock backend routes mounted", "prefix", apiPrefix)
	return r
}
