package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"edu-task-portal/internal/guard"
	"edu-task-portal/internal/model"
	"edu-task-portal/internal/session"
	"edu-task-portal/internal/tokenstore"
)

type sessionService interface {
	Snapshot() session.Snapshot
	Login(ctx context.Context, role model.Role, creds model.Credentials) (*model.User, error)
	StudentRegister(ctx context.Context, reg model.StudentRegistration) (string, error)
	TeacherRegister(ctx context.Context, reg model.TeacherRegistration) (string, error)
	Logout(ctx context.Context) error
	RefreshUser(ctx context.Context) error
}

type rememberStore interface {
	Remember(ctx context.Context, r tokenstore.Remembered) error
	Remembered(ctx context.Context) (tokenstore.Remembered, error)
}

type SessionHandler struct {
	sessions sessionService
	remember rememberStore
}

func NewSessionHandler(sessions sessionService, remember rememberStore) *SessionHandler {
	return &SessionHandler{sessions: sessions, remember: remember}
}

type loginResponse struct {
	User     *model.User  `json:"user"`
	Redirect string       `json:"redirect"`
	Session  session.View `json:"session"`
}

type sessionResponse struct {
	session.View
	Remembered *tokenstore.Remembered `json:"remembered,omitempty"`
}

func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{View: h.sessions.Snapshot().View()}

	if !resp.IsAuthenticated && h.remember != nil {
		remembered, err := h.remember.Remembered(r.Context())
		if err != nil {
			slog.Warn("reading remembered login failed", "error", err)
		} else if remembered.Remember {
			resp.Remembered = &remembered
		}
	}

	writeSuccess(w, http.StatusOK, resp)
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, badRequest("invalid JSON body", ""))
		return
	}

	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" {
		writeError(w, badRequest("username and password are required", "username,password"))
		return
	}

	role, err := model.ParseRole(payload.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.sessions.Login(r.Context(), role, model.Credentials{
		Username: payload.Username,
		Password: payload.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// The remember-me slots are a convenience; failing to write them must not
	// fail a login that already succeeded.
	if payload.Remember && h.remember != nil {
		err := h.remember.Remember(r.Context(), tokenstore.Remembered{
			Role:     string(role),
			Username: payload.Username,
			Remember: true,
		})
		if err != nil {
			slog.Warn("storing remembered login failed", "error", err)
		}
	}

	writeSuccess(w, http.StatusOK, loginResponse{
		User:     user,
		Redirect: guard.LandingPath(role),
		Session:  h.sessions.Snapshot().View(),
	})
}

func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	role, err := model.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, err)
		return
	}

	var message string
	switch role {
	case model.RoleStudent:
		var reg model.StudentRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			writeError(w, badRequest("invalid JSON body", ""))
			return
		}
		if strings.TrimSpace(reg.Username) == "" || reg.Password == "" {
			writeError(w, badRequest("username and password are required", "username,password"))
			return
		}
		message, err = h.sessions.StudentRegister(r.Context(), reg)
	case model.RoleTeacher:
		var reg model.TeacherRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			writeError(w, badRequest("invalid JSON body", ""))
			return
		}
		if strings.TrimSpace(reg.Username) == "" || reg.Password == "" {
			writeError(w, badRequest("username and password are required", "username,password"))
			return
		}
		message, err = h.sessions.TeacherRegister(r.Context(), reg)
	default:
		writeError(w, badRequest("only students and teachers can register", "role"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"message": message, "role": role})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"loggedOut": true, "redirect": guard.EntryPath})
}

func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Snapshot().IsAuthenticated() {
		writeError(w, model.ErrNotAuthenticated)
		return
	}

	if err := h.sessions.RefreshUser(r.Context()); err != nil {
		writeResponse(w, http.StatusUnauthorized, model.APIResponse{
			Success:  false,
			Redirect: guard.EntryPath,
			Error: &model.APIError{
				Code:    "SESSION_CLEARED",
				Message: err.Error(),
			},
		})
		return
	}

	writeSuccess(w, http.StatusOK, h.sessions.Snapshot().View())
}
