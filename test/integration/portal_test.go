//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-task-portal/internal/api"
	"edu-task-portal/internal/config"
	"edu-task-portal/internal/event"
	"edu-task-portal/internal/model"
	"edu-task-portal/pkg/apierror"
)

func TestTeacherRegistrationApprovalFlow(t *testing.T) {
	t.Parallel()
	s := newStack(t, 0, nil)

	resp, out := s.postJSON(t, "/session/register/teacher", model.TeacherRegistration{Username: "tess", Password: "pw", Name: "Tess"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Registration successful, pending admin approval", out.Data.(map[string]any)["message"])

	resp, out = s.postJSON(t, "/session/login", model.LoginRequest{Username: "tess", Password: "pw", Role: "teacher"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, out.Error)
	assert.Equal(t, "Invalid username or password, or account not activated", out.Error.Message)

	s.login(t, "admin", "admin123", "admin")

	status, env := s.backendEnvelope(t, http.MethodGet, "/api/admin/teachers/pending")
	require.Equal(t, http.StatusOK, status)
	var pending []model.User
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending, 1)

	status, env = s.backendEnvelope(t, http.MethodPost, "/api/admin/teachers/"+strconv.FormatInt(pending[0].ID, 10)+"/approve")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.CodeSuccess, env.Code)

	resp, _ = s.postJSON(t, "/session/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	s.login(t, "tess", "pw", "teacher")

	page := s.get(t, "/teacher", "text/html")
	assert.Equal(t, http.StatusOK, page.StatusCode)

	page = s.get(t, "/admin", "text/html")
	assert.Equal(t, http.StatusFound, page.StatusCode)
	assert.Equal(t, "/", page.Header.Get("Location"))
}

func TestExpiredTokenTearsDownAndPushesEvent(t *testing.T) {
	t.Parallel()
	// Every token the backend issues is already expired.
	s := newStack(t, time.Nanosecond, nil)

	wsURL := "ws" + strings.TrimPrefix(s.portal.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	s.login(t, "admin", "admin123", "admin")
	require.True(t, s.core.Manager.Snapshot().IsAuthenticated())

	resp, err := s.client.Get(s.portal.URL + "/api/admin/teachers/pending")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var out model.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "/", out.Redirect)
	assert.False(t, s.core.Manager.Snapshot().IsAuthenticated())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var e struct {
			Type    event.Type           `json:"type"`
			Payload event.SessionPayload `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &e))
		if e.Type == event.TypeSessionCleared {
			assert.Equal(t, "unauthorized", e.Payload.Reason)
			assert.Equal(t, "/", e.Payload.Redirect)
			break
		}
	}

	page := s.get(t, "/admin", "text/html")
	assert.Equal(t, http.StatusFound, page.StatusCode)
	assert.Equal(t, "/", page.Header.Get("Location"))
}

func TestDashboardWidgetUnauthorizedKeepsSession(t *testing.T) {
	t.Parallel()
	s := newStack(t, time.Nanosecond, nil)
	s.login(t, "admin", "admin123", "admin")

	// Dashboard widget polls through the portal opt out of eviction.
	status, _ := s.backendEnvelope(t, http.MethodGet, "/api/admin/recent-activities")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.True(t, s.core.Manager.Snapshot().IsAuthenticated())

	_, err := api.NewAdmin(s.core.Client).RegistrationTrend(t.Context())
	require.ErrorIs(t, err, apierror.ErrUnauthorized)
	assert.True(t, s.core.Manager.Snapshot().IsAuthenticated())

	page := s.get(t, "/admin", "text/html")
	assert.Equal(t, http.StatusOK, page.StatusCode)
}

func TestSessionLoginRateLimited(t *testing.T) {
	t.Parallel()
	s := newStack(t, 0, func(cfg *config.Config) { cfg.SessionRateLimitRPM = 2 })

	creds := model.LoginRequest{Username: "admin", Password: "nope", Role: "admin"}
	for i := 0; i < 2; i++ {
		resp, _ := s.postJSON(t, "/session/login", creds)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	resp, out := s.postJSON(t, "/session/login", creds)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotNil(t, out.Error)
	assert.Equal(t, "RATE_LIMITED", out.Error.Code)
}

func TestSecurityHeadersOnResponses(t *testing.T) {
	t.Parallel()
	s := newStack(t, 0, nil)

	resp := s.get(t, "/session/", "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))
}
