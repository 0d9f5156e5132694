package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"edu-task-portal/internal/apiclient"
	"edu-task-portal/internal/model"
)

type Teacher struct {
	c Caller
}

func NewTeacher(c Caller) *Teacher {
	return &Teacher{c: c}
}

func (t *Teacher) DashboardStats(ctx context.Context) (model.TeacherStats, error) {
	return call[model.TeacherStats](ctx, t.c, http.MethodGet, TeacherStatsPath, nil, "Failed to fetch statistics", background)
}

func (t *Teacher) Students(ctx context.Context, p model.ListParams) (model.Page[model.User], error) {
	return call[model.Page[model.User]](ctx, t.c, http.MethodGet, "/api/teacher/students", nil, "Failed to fetch students", pageQuery(p))
}

func (t *Teacher) Groups(ctx context.Context, p model.ListParams) (model.Page[model.Group], error) {
	return call[model.Page[model.Group]](ctx, t.c, http.MethodGet, "/api/teacher/groups", nil, "Failed to fetch groups", pageQuery(p))
}

func (t *Teacher) CreateGroup(ctx context.Context, g model.Group) (model.Group, error) {
	return call[model.Group](ctx, t.c, http.MethodPost, "/api/teacher/groups", g, "Failed to create group")
}

// SearchStudent matches students by name; an empty name lists all of them.
func (t *Teacher) SearchStudent(ctx context.Context, name string) ([]model.User, error) {
	query := apiclient.WithQuery(url.Values{"name": {name}})
	return call[[]model.User](ctx, t.c, http.MethodGet, "/api/teacher/searchStudent", nil, "Failed to search students", query)
}

func (t *Teacher) BatchImportStudents(ctx context.Context, filename string, content io.Reader) (model.ImportReport, error) {
	return upload(ctx, t.c, "/api/teacher/students/batch-import", filename, content, "Failed to batch import students")
}

func (t *Teacher) BatchImportGroups(ctx context.Context, filename string, content io.Reader) (model.ImportReport, error) {
	return upload(ctx, t.c, "/api/teacher/groups/batch-import", filename, content, "Failed to batch import groups")
}
