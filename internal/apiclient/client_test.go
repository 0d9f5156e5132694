package apiclient

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-task-portal/internal/event"
	"edu-task-portal/internal/model"
	"edu-task-portal/pkg/apierror"
)

func writeEnvelope(w http.ResponseWriter, status int, code int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg, "data": data})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL, opts...)
	require.NoError(t, err)
	return client
}

func TestBearerTokenInjection(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		writeEnvelope(w, http.StatusOK, model.CodeSuccess, "success", nil)
	})

	_, err := client.Do(context.Background(), http.MethodGet, "/api/student/info", nil)
	require.NoError(t, err)

	token := "t1"
	client.SetTokenSource(TokenFunc(func() string { return token }))
	_, err = client.Do(context.Background(), http.MethodGet, "/api/student/info", nil)
	require.NoError(t, err)

	token = "t2"
	_, err = client.Do(context.Background(), http.MethodGet, "/api/student/info", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer t1", "Bearer t2"}, seen)
}

func TestEnvelopeDecoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"username":"alice","password":"x","role":"STUDENT"}`, string(body))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			writeEnvelope(w, http.StatusOK, model.CodeSuccess, "success", map[string]any{"token": "t1", "userId": 7})
		case "/api/fail":
			writeEnvelope(w, http.StatusOK, model.CodeFailure, "bad password", nil)
		default:
			_, _ = w.Write([]byte("<html>"))
		}
	})
	ctx := context.Background()

	res, err := client.Do(ctx, http.MethodPost, "/api/login", model.BackendLoginRequest{Username: "alice", Password: "x", Role: "STUDENT"})
	require.NoError(t, err)
	require.True(t, res.OK())
	require.NoError(t, res.Err("Login failed"))

	var payload model.LoginPayload
	require.NoError(t, res.Decode(&payload))
	assert.Equal(t, "t1", payload.Token)
	assert.Equal(t, int64(7), payload.UserID)

	res, err = client.Do(ctx, http.MethodPost, "/api/fail", nil)
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.EqualError(t, res.Err("Login failed"), "bad password")

	_, err = client.Do(ctx, http.MethodGet, "/api/html", nil)
	assert.ErrorIs(t, err, apierror.ErrDecode)
}

func TestFailureFallbackMessage(t *testing.T) {
	res := Failure("", http.StatusOK)
	assert.EqualError(t, res.Err("Registration failed"), "Registration failed")
}

func TestUnauthorizedNotifiesObserversAndBus(t *testing.T) {
	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	t.Cleanup(unsubscribe)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, model.CodeFailure, "NOT_LOGIN", nil)
	}, WithBus(bus), WithTokenSource(TokenFunc(func() string { return "stale" })))

	var signals []UnauthorizedSignal
	client.OnUnauthorized(func(_ context.Context, sig UnauthorizedSignal) {
		signals = append(signals, sig)
	})

	_, err := client.Do(context.Background(), http.MethodGet, "/api/teacher/tasks", nil)
	require.ErrorIs(t, err, apierror.ErrUnauthorized)
	assert.Contains(t, err.Error(), "NOT_LOGIN")

	require.Len(t, signals, 1)
	assert.Equal(t, UnauthorizedSignal{Method: http.MethodGet, Path: "/api/teacher/tasks", Token: "stale"}, signals[0])

	e := <-events
	assert.Equal(t, event.TypeUnauthorized, e.Type)
	assert.Equal(t, event.UnauthorizedPayload{Method: http.MethodGet, Path: "/api/teacher/tasks", Evicted: true}, e.Payload)
}

func TestBackgroundRequestDoesNotEvict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	called := false
	client.OnUnauthorized(func(context.Context, UnauthorizedSignal) { called = true })

	_, err := client.Do(context.Background(), http.MethodGet, "/api/admin/recent-activities", nil, WithoutSessionEviction())
	require.ErrorIs(t, err, apierror.ErrUnauthorized)
	assert.False(t, called)
}

func TestOtherStatusesPassThrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/forbidden" {
			writeEnvelope(w, http.StatusForbidden, model.CodeFailure, "FORBIDDEN", nil)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	called := false
	client.OnUnauthorized(func(context.Context, UnauthorizedSignal) { called = true })

	_, err := client.Do(context.Background(), http.MethodGet, "/api/forbidden", nil)
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.HTTPStatus)
	assert.Equal(t, "FORBIDDEN", apiErr.Message)

	_, err = client.Do(context.Background(), http.MethodGet, "/api/boom", nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatus)
	assert.Equal(t, "Internal Server Error", apiErr.Message)

	assert.False(t, called)
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, err := New(server.URL, WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = client.Do(context.Background(), http.MethodGet, "/api/user/current", nil)
	assert.ErrorIs(t, err, apierror.ErrTransport)
}

func TestQueryAndBasePath(t *testing.T) {
	var gotURL *url.URL
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL
		writeEnvelope(w, http.StatusOK, model.CodeSuccess, "success", nil)
	}))
	t.Cleanup(server.Close)

	client, err := New(server.URL + "/backend/")
	require.NoError(t, err)

	_, err = client.Do(context.Background(), http.MethodGet, "/api/admin/students", nil,
		WithQuery(url.Values{"page": {"2"}, "name": {"ali"}}))
	require.NoError(t, err)

	assert.Equal(t, "/backend/api/admin/students", gotURL.Path)
	assert.Equal(t, "2", gotURL.Query().Get("page"))
	assert.Equal(t, "ali", gotURL.Query().Get("name"))
}

func TestUploadMultipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)

		assert.Equal(t, "students.csv", header.Filename)
		assert.Equal(t, "alice,x\n", string(content))
		writeEnvelope(w, http.StatusOK, model.CodeSuccess, "success", model.ImportReport{Total: 1, Success: 1})
	})

	res, err := client.Upload(context.Background(), "/api/admin/students/batch-import", "file", "students.csv", strings.NewReader("alice,x\n"))
	require.NoError(t, err)

	var report model.ImportReport
	require.NoError(t, res.Decode(&report))
	assert.Equal(t, 1, report.Success)
}

func TestForwardStripsCallerCredentials(t *testing.T) {
	var gotAuth, gotCookie, gotCustom string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCookie = r.Header.Get("Cookie")
		gotCustom = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusUnauthorized)
	}, WithTokenSource(TokenFunc(func() string { return "session-token" })))

	var signalled bool
	client.OnUnauthorized(func(context.Context, UnauthorizedSignal) { signalled = true })

	header := http.Header{}
	header.Set("Authorization", "Bearer forged")
	header.Set("Cookie", "a=b")
	header.Set("X-Request-ID", "req-1")

	resp, err := client.Forward(context.Background(), http.MethodGet, "/api/student/groups", "", header, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer session-token", gotAuth)
	assert.Empty(t, gotCookie)
	assert.Equal(t, "req-1", gotCustom)
	assert.True(t, signalled)
}

func TestForwardDecodesCompressedReplies(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			writeEnvelope(w, http.StatusOK, model.CodeSuccess, "success", []string{"plain"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_ = json.NewEncoder(gz).Encode(map[string]any{"code": model.CodeSuccess, "msg": "success", "data": []string{"gzipped"}})
		_ = gz.Close()
	})

	header := http.Header{}
	header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := client.Forward(context.Background(), http.MethodGet, "/api/student/groups", "", header, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, resp.Header.Get("Content-Encoding"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":1,"msg":"success","data":["gzipped"]}`, string(body))
}

func TestForwardWithoutSessionEviction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	var called bool
	client.OnUnauthorized(func(context.Context, UnauthorizedSignal) { called = true })

	resp, err := client.Forward(context.Background(), http.MethodGet, "/api/teacher/dashboard/stats", "", http.Header{}, nil, WithoutSessionEviction())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, called)
}

func TestRateLimitedClientHonoursContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, model.CodeSuccess, "success", nil)
	}, WithRateLimit(0.001, 1))

	_, err := client.Do(context.Background(), http.MethodGet, "/api/x", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Do(ctx, http.MethodGet, "/api/x", nil)
	assert.ErrorIs(t, err, apierror.ErrTransport)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New("localhost")
	assert.Error(t, err)
}
