package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"edu-task-portal/internal/api"
	"edu-task-portal/internal/apiclient"
	"edu-task-portal/internal/guard"
	"edu-task-portal/internal/model"
	"edu-task-portal/internal/session"
)

type forwarder interface {
	Forward(ctx context.Context, method string, path string, rawQuery string, header http.Header, body io.Reader, opts ...apiclient.RequestOption) (*http.Response, error)
}

// ProxyHandler relays /api/* to the backend with the session's bearer token.
// Sign-in and registration are not relayed: they go through /session so the
// token stays inside the portal.
type ProxyHandler struct {
	backend    forwarder
	background func(method string, path string) bool
}

func NewProxyHandler(backend forwarder) *ProxyHandler {
	return &ProxyHandler{backend: backend, background: api.IsBackground}
}

var copiedResponseHeaders = []string{
	"Content-Type",
	"Content-Disposition",
	"Cache-Control",
	"Last-Modified",
	"ETag",
}

func sessionOnlyPath(path string) bool {
	return path == session.LoginPath || strings.HasPrefix(path, "/api/register/")
}

func (h *ProxyHandler) Forward(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if sessionOnlyPath(r.URL.Path) {
		writeResponse(w, http.StatusForbidden, model.APIResponse{
			Success: false,
			Error: &model.APIError{
				Code:    "USE_SESSION_ENDPOINT",
				Message: "Sign in with POST /session/login and register with POST /session/register/{role}",
			},
		})
		return
	}

	var opts []apiclient.RequestOption
	evict := !h.background(r.Method, r.URL.Path)
	if !evict {
		opts = append(opts, apiclient.WithoutSessionEviction())
	}

	resp, err := h.backend.Forward(r.Context(), r.Method, r.URL.Path, r.URL.RawQuery, r.Header, r.Body, opts...)
	if err != nil {
		writeError(w, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if !evict {
			// The session survives; only this widget failed.
			writeResponse(w, http.StatusUnauthorized, model.APIResponse{
				Success: false,
				Error: &model.APIError{
					Code:    "UNAUTHORIZED",
					Message: "Not authorized to load this data",
				},
			})
			return
		}

		// The adapter has already torn the session down; tell the caller where to go.
		writeResponse(w, http.StatusUnauthorized, model.APIResponse{
			Success:  false,
			Redirect: guard.EntryPath,
			Error: &model.APIError{
				Code:    "UNAUTHORIZED",
				Message: "Session expired, please sign in again",
			},
		})
		return
	}

	for _, key := range copiedResponseHeaders {
		if value := resp.Header.Get(key); value != "" {
			w.Header().Set(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Warn("proxy copy interrupted", "path", r.URL.Path, "error", err)
	}
}
