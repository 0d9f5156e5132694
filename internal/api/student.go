package api

import (
	"context"
	"net/http"

	"edu-task-portal/internal/model"
)

type Student struct {
	c Caller
}

func NewStudent(c Caller) *Student {
	return &Student{c: c}
}

func (s *Student) Info(ctx context.Context) (model.User, error) {
	return call[model.User](ctx, s.c, http.MethodGet, "/api/student/info", nil, "Failed to load student info")
}

func (s *Student) UpdateInfo(ctx context.Context, u model.User) error {
	_, err := exec(ctx, s.c, http.MethodPut, "/api/student/info", u, "Failed to update student info")
	return err
}

func (s *Student) Groups(ctx context.Context) ([]model.Group, error) {
	return call[[]model.Group](ctx, s.c, http.MethodGet, "/api/student/groups", nil, "Failed to load groups")
}

func (s *Student) JoinGroup(ctx context.Context, groupID int64) (string, error) {
	return exec(ctx, s.c, http.MethodPost, idPath("/api/student/groups/%d/join", groupID), nil, "Failed to join group")
}

func (s *Student) LeaveGroup(ctx context.Context, groupID int64) (string, error) {
	return exec(ctx, s.c, http.MethodPost, idPath("/api/student/groups/%d/leave", groupID), nil, "Failed to leave group")
}

func (s *Student) GroupMembers(ctx context.Context, groupID int64) ([]model.User, error) {
	return call[[]model.User](ctx, s.c, http.MethodGet, idPath("/api/student/groups/%d/members", groupID), nil, "Failed to load group members")
}
