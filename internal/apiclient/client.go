// Package apiclient is the HTTP adapter between the portal and the platform
// backend. It attaches the session bearer token to every outbound request,
// decodes the {code,msg,data} envelope and reports 401 responses to the
// registered observers.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"edu-task-portal/internal/event"
	"edu-task-portal/pkg/apierror"
)

const (
	// Generous because some backend endpoints wait on AI generation.
	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 10 << 20
)

type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string {
	return f()
}

// UnauthorizedSignal identifies a request the backend answered with 401.
// Token is the credential that was attached, empty when none was.
type UnauthorizedSignal struct {
	Method string
	Path   string
	Token  string
}

type UnauthorizedFunc func(ctx context.Context, sig UnauthorizedSignal)

type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	bus     event.Bus

	mu        sync.RWMutex
	tokens    TokenSource
	observers []UnauthorizedFunc
}

func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}

	c := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// OnUnauthorized registers fn to run synchronously, before the failing call
// returns, whenever an evicting request receives a 401.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Do sends a JSON request and decodes the envelope. Application failures come
// back as a failed Result with a nil error; transport problems, 401s and other
// non-2xx statuses come back as *apierror.APIError.
func (c *Client) Do(ctx context.Context, method string, path string, body any, opts ...RequestOption) (Result, error) {
	rc := newRequestConfig(opts)

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
		rc.headers.Set("Content-Type", "application/json")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, rc.query.Encode()), payload)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}

	return c.exchange(req, rc)
}

// Upload posts a single file as multipart/form-data under the given field.
func (c *Client) Upload(ctx context.Context, path string, field string, filename string, content io.Reader, opts ...RequestOption) (Result, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return Result{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return Result{}, fmt.Errorf("copy upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("finish multipart body: %w", err)
	}

	rc := newRequestConfig(opts)
	rc.headers.Set("Content-Type", writer.FormDataContentType())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path, rc.query.Encode()), &buf)
	if err != nil {
		return Result{}, fmt.Errorf("build upload request: %w", err)
	}

	return c.exchange(req, rc)
}

// Forward relays a raw request to the backend with the same token injection
// and 401 handling as Do. The caller owns the returned body, which is always
// delivered decoded.
func (c *Client) Forward(ctx context.Context, method string, path string, rawQuery string, header http.Header, body io.Reader, opts ...RequestOption) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, rawQuery), body)
	if err != nil {
		return nil, fmt.Errorf("build forward request: %w", err)
	}

	for key, values := range header {
		if _, skip := strippedHeaders[http.CanonicalHeaderKey(key)]; skip {
			continue
		}
		req.Header[key] = append([]string(nil), values...)
	}

	return c.send(req, newRequestConfig(opts))
}

// strippedHeaders never reach the backend. Accept-Encoding is left to the
// transport so compressed replies are decoded before they are relayed.
var strippedHeaders = map[string]struct{}{
	"Accept-Encoding":     {},
	"Authorization":       {},
	"Cookie":              {},
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

func (c *Client) exchange(req *http.Request, rc *requestConfig) (Result, error) {
	resp, err := c.send(req, rc)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, apierror.Transport(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return Result{}, apierror.Unauthorized(envelopeMessage(body))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := envelopeMessage(body)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return Result{}, apierror.New("HTTP_"+strconv.Itoa(resp.StatusCode), message, "", resp.StatusCode)
	}

	return decodeEnvelope(body, resp.StatusCode)
}

func (c *Client) send(req *http.Request, rc *requestConfig) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, apierror.Transport(err)
		}
	}

	for key, values := range rc.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	// Read the token as late as possible so a session change made while this
	// request waited on the limiter is honoured.
	token := c.currentToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierror.Transport(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.signalUnauthorized(req.Context(), UnauthorizedSignal{
			Method: req.Method,
			Path:   req.URL.Path,
			Token:  token,
		}, rc.evict)
	}

	return resp, nil
}

func (c *Client) signalUnauthorized(ctx context.Context, sig UnauthorizedSignal, evict bool) {
	slog.Warn("backend rejected credentials", "method", sig.Method, "path", sig.Path, "evict", evict)

	if evict {
		c.mu.RLock()
		observers := append([]UnauthorizedFunc(nil), c.observers...)
		c.mu.RUnlock()

		// Teardown must finish even if the caller gives up on its request.
		detached := context.WithoutCancel(ctx)
		for _, fn := range observers {
			fn(detached, sig)
		}
	}

	if c.bus != nil {
		c.bus.Publish(event.New(event.TypeUnauthorized, event.UnauthorizedPayload{
			Method:  sig.Method,
			Path:    sig.Path,
			Evicted: evict,
		}))
	}
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()

	if ts == nil {
		return ""
	}
	return ts.Token()
}

func (c *Client) resolve(path string, rawQuery string) string {
	u := *c.baseURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = c.baseURL.Path + path
	u.RawPath = ""
	u.RawQuery = rawQuery
	return u.String()
}
