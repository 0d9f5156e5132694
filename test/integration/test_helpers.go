//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"edu-task-portal/internal/app"
	"edu-task-portal/internal/config"
	"edu-task-portal/internal/guard"
	"edu-task-portal/internal/handler"
	"edu-task-portal/internal/middleware"
	"edu-task-portal/internal/mockbackend"
	"edu-task-portal/internal/model"
	"edu-task-portal/internal/router"
	"edu-task-portal/internal/websocket"
)

type stack struct {
	backend *mockbackend.Server
	core    *app.Core
	portal  *httptest.Server
	client  *http.Client
}

// newStack starts a fake backend and a portal in front of it. tokenTTL of
// zero keeps the backend default; tune adjusts the portal config.
func newStack(t *testing.T, tokenTTL time.Duration, tune func(cfg *config.Config)) *stack {
	t.Helper()

	backend, err := mockbackend.New(mockbackend.Config{JWTSecret: "integration", TokenTTL: tokenTTL, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	backendServer := httptest.NewServer(backend.Handler())
	t.Cleanup(backendServer.Close)

	cfg := &config.Config{
		APIBaseURL:          backendServer.URL,
		APITimeout:          5 * time.Second,
		RequestTimeout:      5 * time.Second,
		CORSOrigins:         []string{"*"},
		RateLimitRPM:        1000,
		SessionRateLimitRPM: 1000,
		TokenStore:          config.TokenStoreMemory,
	}
	if tune != nil {
		tune(cfg)
	}

	core, err := app.NewCore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(core.Close)

	hub := websocket.NewHub(core.Bus)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	routes := guard.MustDefaultTable()
	h := router.New(cfg, routes, middleware.NewNavigationMiddleware(core.Manager), router.Handlers{
		Session:  handler.NewSessionHandler(core.Manager, core.Store),
		Pages:    handler.NewPageHandler(routes),
		Navigate: handler.NewNavigateHandler(routes, core.Manager),
		Proxy:    handler.NewProxyHandler(core.Client),
		Docs:     handler.NewDocsHandler(nil),
	}, websocket.NewHandler(hub, cfg.CORSOrigins))

	portal := httptest.NewServer(h)
	t.Cleanup(portal.Close)

	client := portal.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &stack{backend: backend, core: core, portal: portal, client: client}
}

func (s *stack) postJSON(t *testing.T, path string, body any) (*http.Response, model.APIResponse) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, s.portal.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out model.APIResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (s *stack) get(t *testing.T, path string, accept string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.portal.URL+path, nil)
	require.NoError(t, err)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// backendEnvelope proxies path through the portal and decodes the backend body.
func (s *stack) backendEnvelope(t *testing.T, method string, path string) (int, model.Envelope) {
	t.Helper()

	req, err := http.NewRequest(method, s.portal.URL+path, nil)
	require.NoError(t, err)

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env model.Envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func (s *stack) login(t *testing.T, username string, password string, role string) {
	t.Helper()
	resp, out := s.postJSON(t, "/session/login", model.LoginRequest{Username: username, Password: password, Role: role})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login failed: %+v", out.Error)
}
