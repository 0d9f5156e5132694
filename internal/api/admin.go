package api

import (
	"context"
	"io"
	"net/http"

	"edu-task-portal/internal/model"
)

type Admin struct {
	c Caller
}

func NewAdmin(c Caller) *Admin {
	return &Admin{c: c}
}

func (a *Admin) PendingTeachers(ctx context.Context) ([]model.User, error) {
	return call[[]model.User](ctx, a.c, http.MethodGet, "/api/admin/teachers/pending", nil, "Failed to load pending teachers")
}

func (a *Admin) ApproveTeacher(ctx context.Context, id int64) (string, error) {
	return exec(ctx, a.c, http.MethodPost, idPath("/api/admin/teachers/%d/approve", id), nil, "Failed to approve teacher")
}

func (a *Admin) RejectTeacher(ctx context.Context, id int64) (string, error) {
	return exec(ctx, a.c, http.MethodPost, idPath("/api/admin/teachers/%d/reject", id), nil, "Failed to reject teacher")
}

func (a *Admin) DeleteTeacher(ctx context.Context, id int64) (string, error) {
	return exec(ctx, a.c, http.MethodDelete, idPath("/api/admin/teachers/%d", id), nil, "Failed to delete teacher")
}

func (a *Admin) Students(ctx context.Context, p model.ListParams) (model.Page[model.User], error) {
	return call[model.Page[model.User]](ctx, a.c, http.MethodGet, "/api/admin/students", nil, "Failed to load students", pageQuery(p))
}

func (a *Admin) Teachers(ctx context.Context, p model.ListParams) (model.Page[model.User], error) {
	return call[model.Page[model.User]](ctx, a.c, http.MethodGet, "/api/admin/teachers", nil, "Failed to load teachers", pageQuery(p))
}

func (a *Admin) Groups(ctx context.Context, p model.ListParams) (model.Page[model.Group], error) {
	return call[model.Page[model.Group]](ctx, a.c, http.MethodGet, "/api/admin/groups", nil, "Failed to load groups", pageQuery(p))
}

func (a *Admin) RegistrationTrend(ctx context.Context) ([]model.TrendPoint, error) {
	return call[[]model.TrendPoint](ctx, a.c, http.MethodGet, RegistrationTrendPath, nil, "Failed to fetch registration trend data", background)
}

func (a *Admin) RecentActivities(ctx context.Context, p model.ListParams) ([]model.Activity, error) {
	return call[[]model.Activity](ctx, a.c, http.MethodGet, RecentActivitiesPath, nil, "Failed to fetch recent activities", pageQuery(p), background)
}

func (a *Admin) BatchImportStudents(ctx context.Context, filename string, content io.Reader) (model.ImportReport, error) {
	return upload(ctx, a.c, "/api/admin/students/batch-import", filename, content, "Failed to batch import students")
}

func (a *Admin) BatchImportTeachers(ctx context.Context, filename string, content io.Reader) (model.ImportReport, error) {
	return upload(ctx, a.c, "/api/admin/teachers/batch-import", filename, content, "Failed to batch import teachers")
}
