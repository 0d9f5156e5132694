package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"edu-task-portal/internal/app"
	"edu-task-portal/internal/config"
	"edu-task-portal/internal/mockbackend"
	"edu-task-portal/internal/model"
	"edu-task-portal/internal/session"
)

// newOpener returns an opener whose cores share one session file, the way
// separate taskctl invocations share the user's config directory.
func newOpener(t *testing.T) Opener {
	t.Helper()

	backend, err := mockbackend.New(mockbackend.Config{JWTSecret: "cli-test", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	_, err = backend.Seed(model.User{Username: "alice", Name: "Alice", Role: model.RoleStudent}, "pw")
	require.NoError(t, err)

	server := httptest.NewServer(backend.Handler())
	t.Cleanup(server.Close)

	cfg := &config.Config{
		APIBaseURL:     server.URL,
		APITimeout:     5 * time.Second,
		TokenStore:     config.TokenStoreFile,
		TokenStoreFile: filepath.Join(t.TempDir(), "session.json"),
	}

	return func(ctx context.Context) (*app.Core, error) {
		return app.NewCore(ctx, cfg)
	}
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	open := newOpener(t)

	out, err := run(t, open, "login", "--role", "student", "-u", "alice", "-p", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Logged in as Alice (student), landing page /student\n", out)

	out, err = run(t, open, "whoami")
	require.NoError(t, err)
	var view session.View
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.True(t, view.IsAuthenticated)
	assert.Equal(t, model.RoleStudent, view.Role)

	out, err = run(t, open, "navigate", "/admin")
	require.NoError(t, err)
	assert.Equal(t, "redirect / (role_mismatch)\n", out)

	out, err = run(t, open, "navigate", "/student")
	require.NoError(t, err)
	assert.Equal(t, "allow /student (StudentDashboard)\n", out)

	out, err = run(t, open, "logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out\n", out)

	out, err = run(t, open, "restore")
	require.NoError(t, err)
	assert.Equal(t, "No stored session\n", out)
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	open := newOpener(t)

	_, err := run(t, open, "login", "-u", "alice", "-p", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password, or account not activated", err.Error())

	out, err := run(t, open, "navigate", "/student")
	require.NoError(t, err)
	assert.Equal(t, "redirect / (unauthenticated)\n", out)
}

func TestRememberedLogin(t *testing.T) {
	open := newOpener(t)

	_, err := run(t, open, "login", "--role", "student", "-u", "alice", "-p", "pw", "--remember")
	require.NoError(t, err)

	// Only the password is needed the second time.
	out, err := run(t, open, "login", "-p", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Alice")
}

func TestRegister(t *testing.T) {
	open := newOpener(t)

	out, err := run(t, open, "register", "teacher", "-u", "tom", "-p", "pw", "--name", "Tom")
	require.NoError(t, err)
	assert.Equal(t, "Registration successful, pending admin approval\n", out)

	_, err = run(t, open, "register", "admin", "-u", "x", "-p", "y")
	require.ErrorIs(t, err, model.ErrInvalidRole)

	_, err = run(t, open, "register", "student", "-u", "alice", "-p", "pw")
	require.Error(t, err)
	assert.Equal(t, "Username already exists", err.Error())

	out, err = run(t, open, "restore")
	require.NoError(t, err)
	assert.Equal(t, "No stored session\n", out)
}

func TestRoutesCommand(t *testing.T) {
	out, err := run(t, nil, "routes")
	require.NoError(t, err)
	assert.Contains(t, out, "/admin")
	assert.Contains(t, out, "role:admin")
	assert.Contains(t, out, "guest")
}

func TestRoleCommands(t *testing.T) {
	open := newOpener(t)

	_, err := run(t, open, "register", "teacher", "-u", "tom", "-p", "pw", "--name", "Tom")
	require.NoError(t, err)

	_, err = run(t, open, "admin", "pending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in as admin")

	_, err = run(t, open, "login", "--role", "admin", "-u", "admin", "-p", "admin123")
	require.NoError(t, err)

	out, err := run(t, open, "admin", "pending")
	require.NoError(t, err)
	var pending []model.User
	require.NoError(t, json.Unmarshal([]byte(out), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "tom", pending[0].Username)

	_, err = run(t, open, "admin", "approve", "abc")
	assert.EqualError(t, err, `invalid id "abc"`)

	out, err = run(t, open, "admin", "approve", strconv.FormatInt(pending[0].ID, 10))
	require.NoError(t, err)
	assert.Equal(t, "Teacher approved\n", out)

	_, err = run(t, open, "login", "--role", "teacher", "-u", "tom", "-p", "pw")
	require.NoError(t, err)

	out, err = run(t, open, "teacher", "create-group", "--name", "Algebra")
	require.NoError(t, err)
	var group model.Group
	require.NoError(t, json.Unmarshal([]byte(out), &group))
	assert.Equal(t, "Algebra", group.Name)

	out, err = run(t, open, "teacher", "stats")
	require.NoError(t, err)
	var stats model.TeacherStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, int64(1), stats.TotalGroups)

	_, err = run(t, open, "login", "--role", "student", "-u", "alice", "-p", "pw")
	require.NoError(t, err)

	out, err = run(t, open, "student", "join", strconv.FormatInt(group.ID, 10))
	require.NoError(t, err)
	assert.Equal(t, "Joined group\n", out)

	out, err = run(t, open, "student", "groups")
	require.NoError(t, err)
	var groups []model.Group
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "Algebra", groups[0].Name)
}
