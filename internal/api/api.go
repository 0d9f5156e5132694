// Package api holds typed wrappers over the role-scoped backend endpoints.
// Every call goes through the session's HTTP client, so the bearer token and
// 401 teardown apply without the wrappers knowing about either.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"edu-task-portal/internal/apiclient"
	"edu-task-portal/internal/model"
)

type Caller interface {
	Do(ctx context.Context, method string, path string, body any, opts ...apiclient.RequestOption) (apiclient.Result, error)
	Upload(ctx context.Context, path string, field string, filename string, content io.Reader, opts ...apiclient.RequestOption) (apiclient.Result, error)
}

// uploadField is the multipart field name the backend reads files from.
const uploadField = "file"

// call runs one request and decodes its payload into T. fallback is the
// message used when the backend rejects the request without one.
func call[T any](ctx context.Context, c Caller, method string, path string, body any, fallback string, opts ...apiclient.RequestOption) (T, error) {
	var out T

	res, err := c.Do(ctx, method, path, body, opts...)
	if err != nil {
		return out, err
	}
	if err := res.Err(fallback); err != nil {
		return out, err
	}
	if err := res.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// exec runs a request whose payload, if any, is a confirmation string.
func exec(ctx context.Context, c Caller, method string, path string, body any, fallback string) (string, error) {
	return call[string](ctx, c, method, path, body, fallback)
}

func upload(ctx context.Context, c Caller, path string, filename string, content io.Reader, fallback string) (model.ImportReport, error) {
	var report model.ImportReport

	res, err := c.Upload(ctx, path, uploadField, filename, content)
	if err != nil {
		return report, err
	}
	if err := res.Err(fallback); err != nil {
		return report, err
	}
	if err := res.Decode(&report); err != nil {
		return report, err
	}
	return report, nil
}

func pageQuery(p model.ListParams) apiclient.RequestOption {
	values := url.Values{}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.Name != "" {
		values.Set("name", p.Name)
	}
	return apiclient.WithQuery(values)
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}

// Dashboard widget endpoints. Their pages poll them in the background.
const (
	RegistrationTrendPath = "/api/admin/registration-trend"
	RecentActivitiesPath  = "/api/admin/recent-activities"
	TeacherStatsPath      = "/api/teacher/dashboard/stats"
)

// background marks dashboard widget calls; a 401 on them is reported but does
// not end the session.
var background = apiclient.WithoutSessionEviction()

var backgroundPaths = map[string]struct{}{
	RegistrationTrendPath: {},
	RecentActivitiesPath:  {},
	TeacherStatsPath:      {},
}

// IsBackground reports whether a request is a dashboard widget read, so a
// relay of it can opt out of session eviction the way the wrappers do.
func IsBackground(method string, path string) bool {
	if method != http.MethodGet {
		return false
	}
	_, ok := backgroundPaths[path]
	return ok
}
