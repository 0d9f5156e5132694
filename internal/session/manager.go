// Package session owns the process-wide authentication session: login and
// registration against the backend, persistence through the token store,
// restoration at startup and teardown on logout or a 401.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"edu-task-portal/internal/apiclient"
	"edu-task-portal/internal/event"
	"edu-task-portal/internal/model"
	"edu-task-portal/internal/tokenstore"
	"edu-task-portal/pkg/apierror"
)

const (
	LoginPath           = "/api/login"
	StudentRegisterPath = "/api/register/student"
	TeacherRegisterPath = "/api/register/teacher"
	CurrentUserPath     = "/api/user/current"

	// EntryPath is where every unauthenticated or torn-down navigation lands.
	EntryPath = "/"
)

const (
	ReasonLogout       = "logout"
	ReasonUnauthorized = "unauthorized"
	ReasonRefreshFail  = "refresh_failed"
)

type Transport interface {
	Do(ctx context.Context, method string, path string, body any, opts ...apiclient.RequestOption) (apiclient.Result, error)
	OnUnauthorized(fn apiclient.UnauthorizedFunc)
	SetTokenSource(ts apiclient.TokenSource)
}

type RecordStore interface {
	Write(ctx context.Context, rec tokenstore.Record) error
	Read(ctx context.Context) (tokenstore.Record, error)
	Clear(ctx context.Context) error
}

type Manager struct {
	transport Transport
	store     RecordStore
	bus       event.Bus
	now       func() time.Time

	mu       sync.RWMutex
	token    string
	role     model.Role
	user     *model.User
	inflight int
}

// NewManager wires the manager into the transport as its token source and
// as the observer of unauthorized responses. bus may be nil.
func NewManager(transport Transport, store RecordStore, bus event.Bus) *Manager {
	m := &Manager{
		transport: transport,
		store:     store,
		bus:       bus,
		now:       time.Now,
	}

	transport.SetTokenSource(m)
	transport.OnUnauthorized(m.handleUnauthorized)

	return m
}

// Token implements apiclient.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Token:   m.token,
		Role:    m.role,
		Loading: m.inflight > 0,
	}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}

func (m *Manager) AdminLogin(ctx context.Context, creds model.Credentials) (*model.User, error) {
	return m.Login(ctx, model.RoleAdmin, creds)
}

func (m *Manager) StudentLogin(ctx context.Context, creds model.Credentials) (*model.User, error) {
	return m.Login(ctx, model.RoleStudent, creds)
}

func (m *Manager) TeacherLogin(ctx context.Context, creds model.Credentials) (*model.User, error) {
	return m.Login(ctx, model.RoleTeacher, creds)
}

// Login authenticates against the backend. Nothing is committed unless the
// body reports success and carries a token; on any failure the previous
// session, if any, is left exactly as it was.
func (m *Manager) Login(ctx context.Context, role model.Role, creds model.Credentials) (*model.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("login: %w: %q", model.ErrInvalidRole, role)
	}

	m.begin()
	defer m.end()

	res, err := m.transport.Do(ctx, http.MethodPost, LoginPath, model.BackendLoginRequest{
		Username: creds.Username,
		Password: creds.Password,
		Role:     role.Wire(),
	})
	if err != nil {
		slog.Warn("login request failed", "role", role, "username", creds.Username, "error", err)
		return nil, err
	}
	if err := res.Err("Login failed"); err != nil {
		slog.Info("login rejected", "role", role, "username", creds.Username, "message", res.Message)
		return nil, err
	}

	var payload model.LoginPayload
	if err := res.Decode(&payload); err != nil || payload.Token == "" {
		return nil, apierror.MissingToken()
	}

	user := payload.User
	if user == nil {
		user = &model.User{ID: payload.UserID, Username: creds.Username}
	}
	normalizeProfile(user, role)

	if err := m.establish(ctx, payload.Token, role, user); err != nil {
		return nil, err
	}

	slog.Info("session established", "role", role, "username", user.Username)
	out := *user
	return &out, nil
}

// StudentRegister creates a student account. It never authenticates; the
// caller logs in afterwards.
func (m *Manager) StudentRegister(ctx context.Context, reg model.StudentRegistration) (string, error) {
	return m.register(ctx, StudentRegisterPath, reg)
}

// TeacherRegister creates a teacher account, which the backend keeps pending
// until an administrator approves it.
func (m *Manager) TeacherRegister(ctx context.Context, reg model.TeacherRegistration) (string, error) {
	return m.register(ctx, TeacherRegisterPath, reg)
}

func (m *Manager) register(ctx context.Context, path string, body any) (string, error) {
	m.begin()
	defer m.end()

	res, err := m.transport.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		slog.Warn("registration request failed", "path", path, "error", err)
		return "", err
	}
	if err := res.Err("Registration failed"); err != nil {
		return "", err
	}

	message := "Registration successful"
	var serverMessage string
	if err := res.Decode(&serverMessage); err == nil && serverMessage != "" {
		message = serverMessage
	}

	return message, nil
}

// Logout clears the session locally. The backend is not contacted.
func (m *Manager) Logout(ctx context.Context) error {
	return m.teardown(ctx, ReasonLogout)
}

// Restore rebuilds the session from the persisted record without contacting
// the backend. It never fails: an unusable record is cleared and the session
// stays anonymous. It reports whether a session was restored.
func (m *Manager) Restore(ctx context.Context) bool {
	rec, err := m.store.Read(ctx)
	if err != nil {
		slog.Warn("persisted session unreadable; clearing", "error", err)
		m.discardRecord(ctx)
		return false
	}

	if !rec.Complete() {
		return false
	}

	role, err := model.ParseRole(rec.Role)
	if err != nil {
		slog.Warn("persisted session has unknown role; clearing", "role", rec.Role)
		m.discardRecord(ctx)
		return false
	}

	var user *model.User
	if err := json.Unmarshal([]byte(rec.UserData), &user); err != nil || user == nil {
		slog.Warn("persisted user profile is corrupt; clearing", "error", err)
		m.discardRecord(ctx)
		return false
	}

	if tokenExpired(rec.Token, m.now()) {
		slog.Info("persisted token expired; clearing")
		m.discardRecord(ctx)
		return false
	}

	m.mu.Lock()
	m.token = rec.Token
	m.role = role
	m.user = user
	m.mu.Unlock()

	m.publish(event.TypeSessionRestored, event.SessionPayload{Role: string(role), Username: user.Username})
	slog.Info("session restored", "role", role, "username", user.Username)
	return true
}

// RefreshUser reloads the profile of the current session. A failure tears
// the session down unless it was replaced while the request was in flight.
func (m *Manager) RefreshUser(ctx context.Context) error {
	m.mu.RLock()
	token, role := m.token, m.role
	m.mu.RUnlock()

	if token == "" {
		return nil
	}

	user, err := m.fetchCurrentUser(ctx)
	if err != nil {
		// A 401 has already cleared the session through the observer, and a
		// login made meanwhile must survive a failure of the old token.
		cleared, clearErr := m.teardownIf(ctx, ReasonRefreshFail, func(current string) bool {
			return current == token
		})
		if cleared {
			slog.Warn("refreshing user failed; session cleared", "error", err)
		}
		if clearErr != nil {
			return errors.Join(err, clearErr)
		}
		return err
	}
	normalizeProfile(user, role)

	m.mu.Lock()
	defer m.mu.Unlock()

	// A logout or another login may have replaced the session meanwhile.
	if m.token != token {
		return nil
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}
	if err := m.store.Write(ctx, tokenstore.Record{Token: token, Role: string(role), UserData: string(data)}); err != nil {
		return fmt.Errorf("persist refreshed profile: %w", err)
	}
	m.user = user

	m.publish(event.TypeSessionRefreshed, event.SessionPayload{Role: string(role), Username: user.Username})
	return nil
}

func (m *Manager) fetchCurrentUser(ctx context.Context) (*model.User, error) {
	res, err := m.transport.Do(ctx, http.MethodGet, CurrentUserPath, nil)
	if err != nil {
		return nil, err
	}
	if err := res.Err("Failed to load current user"); err != nil {
		return nil, err
	}

	var user *model.User
	if err := res.Decode(&user); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierror.Decode(errors.New("empty user payload"))
	}
	return user, nil
}

// normalizeProfile puts the profile role in session form. The backend sends
// it upper case, and older payloads omit it.
func normalizeProfile(user *model.User, role model.Role) {
	if parsed, err := model.ParseRole(string(user.Role)); err == nil {
		user.Role = parsed
		return
	}
	user.Role = role
}

// handleUnauthorized is the transport's 401 observer. A 401 for a token that
// is no longer current, e.g. a late reply to a request made before a fresh
// login, does not evict the new session.
func (m *Manager) handleUnauthorized(ctx context.Context, sig apiclient.UnauthorizedSignal) {
	cleared, err := m.teardownIf(ctx, ReasonUnauthorized, func(current string) bool {
		return current == "" || current == sig.Token
	})
	if err != nil {
		slog.Error("clearing session after 401 failed", "error", err)
	}
	if !cleared {
		slog.Debug("ignoring 401 for superseded token", "path", sig.Path)
	}
}

func (m *Manager) establish(ctx context.Context, token string, role model.Role, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}

	m.mu.Lock()
	if err := m.store.Write(ctx, tokenstore.Record{Token: token, Role: string(role), UserData: string(data)}); err != nil {
		m.mu.Unlock()
		// The record may be half written; make sure it cannot be restored.
		m.discardRecord(ctx)
		return fmt.Errorf("persist session: %w", err)
	}
	m.token = token
	m.role = role
	m.user = user
	m.mu.Unlock()

	m.publish(event.TypeSessionEstablished, event.SessionPayload{Role: string(role), Username: user.Username})
	return nil
}

func (m *Manager) teardown(ctx context.Context, reason string) error {
	_, err := m.teardownIf(ctx, reason, func(string) bool { return true })
	return err
}

// teardownIf clears the session when match accepts the current token. The
// check and the clear share one critical section so a login cannot commit
// in between.
func (m *Manager) teardownIf(ctx context.Context, reason string, match func(current string) bool) (bool, error) {
	m.mu.Lock()
	if !match(m.token) {
		m.mu.Unlock()
		return false, nil
	}
	m.token = ""
	m.role = ""
	m.user = nil
	err := m.store.Clear(ctx)
	m.mu.Unlock()

	m.publish(event.TypeSessionCleared, event.SessionPayload{Reason: reason, Redirect: EntryPath})
	slog.Info("session cleared", "reason", reason)

	if err != nil {
		return true, fmt.Errorf("clear persisted session: %w", err)
	}
	return true, nil
}

func (m *Manager) discardRecord(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		slog.Error("clearing persisted session failed", "error", err)
	}
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.inflight++
	m.mu.Unlock()
}

func (m *Manager) end() {
	m.mu.Lock()
	m.inflight--
	m.mu.Unlock()
}

func (m *Manager) publish(t event.Type, payload event.SessionPayload) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(event.New(t, payload))
}

// tokenExpired reports whether raw is a JWT whose exp claim has passed.
// Opaque tokens and JWTs without exp are never considered expired; the
// signature is not checked because the portal does not hold the key.
func tokenExpired(raw string, now time.Time) bool {
	if strings.Count(raw, ".") != 2 {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return !exp.After(now)
}
