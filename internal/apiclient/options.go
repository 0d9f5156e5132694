package apiclient

import (
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"edu-task-portal/internal/event"
)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithRateLimit throttles outbound requests. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithBus(bus event.Bus) Option {
	return func(c *Client) {
		c.bus = bus
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

type requestConfig struct {
	evict   bool
	query   url.Values
	headers http.Header
}

type RequestOption func(*requestConfig)

// WithoutSessionEviction marks a background request: a 401 on it is reported
// but does not tear down the session.
func WithoutSessionEviction() RequestOption {
	return func(rc *requestConfig) {
		rc.evict = false
	}
}

func WithQuery(values url.Values) RequestOption {
	return func(rc *requestConfig) {
		if rc.query == nil {
			rc.query = url.Values{}
		}
		for key, vals := range values {
			for _, v := range vals {
				rc.query.Add(key, v)
			}
		}
	}
}

func WithHeader(key string, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.headers.Set(key, value)
	}
}

func newRequestConfig(opts []RequestOption) *requestConfig {
	rc := &requestConfig{evict: true, headers: http.Header{}}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}
