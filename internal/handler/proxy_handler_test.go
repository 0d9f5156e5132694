package handler

import (
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-task-portal/internal/apiclient"
	"edu-task-portal/internal/model"
)

func gzipBackend(t *testing.T) *apiclient.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			_ = json.NewEncoder(gz).Encode(map[string]any{"code": model.CodeSuccess, "msg": "success", "data": []string{"algebra"}})
			_ = gz.Close()
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"code": model.CodeSuccess, "msg": "success", "data": []string{"algebra"}})
	}))
	t.Cleanup(server.Close)

	client, err := apiclient.New(server.URL)
	require.NoError(t, err)
	return client
}

func TestProxyRelaysCompressedReplyDecoded(t *testing.T) {
	h := NewProxyHandler(gzipBackend(t))

	req := httptest.NewRequest(http.MethodGet, "/api/student/groups", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	h.Forward(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env model.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, model.CodeSuccess, env.Code)
	assert.JSONEq(t, `["algebra"]`, string(env.Data))
}

func TestProxyRejectsSessionOnlyPaths(t *testing.T) {
	h := NewProxyHandler(gzipBackend(t))

	for _, path := range []string{"/api/login", "/api/register/student", "/api/register/teacher"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
			rec := httptest.NewRecorder()

			h.Forward(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Contains(t, rec.Body.String(), "USE_SESSION_ENDPOINT")
		})
	}
}
