package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"edu-task-portal/internal/config"
	"edu-task-portal/internal/mockbackend"
	"edu-task-portal/internal/model"
)

func backendURL(t *testing.T) string {
	t.Helper()

	backend, err := mockbackend.New(mockbackend.Config{JWTSecret: "core-test", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	_, err = backend.Seed(model.User{Username: "alice", Name: "Alice", Role: model.RoleStudent}, "pw")
	require.NoError(t, err)

	server := httptest.NewServer(backend.Handler())
	t.Cleanup(server.Close)
	return server.URL
}

func baseConfig(url string) *config.Config {
	return &config.Config{
		APIBaseURL:  url,
		APITimeout:  5 * time.Second,
		RedisPrefix: "portal-test:",
	}
}

func TestCoreRestoresAcrossRestartsWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig(backendURL(t))
	cfg.TokenStore = config.TokenStoreRedis
	cfg.RedisAddr = mr.Addr()

	ctx := context.Background()

	first, err := NewCore(ctx, cfg)
	require.NoError(t, err)
	_, err = first.Manager.StudentLogin(ctx, model.Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	first.Close()

	assert.True(t, mr.Exists("portal-test:authToken"))

	second, err := NewCore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(second.Close)

	require.True(t, second.Manager.Restore(ctx))
	snap := second.Manager.Snapshot()
	assert.Equal(t, model.RoleStudent, snap.Role)
	assert.Equal(t, "Alice", snap.DisplayName())

	require.NoError(t, second.Manager.Logout(ctx))
	assert.False(t, mr.Exists("portal-test:authToken"))
}

func TestCoreFileStore(t *testing.T) {
	cfg := baseConfig(backendURL(t))
	cfg.TokenStore = config.TokenStoreFile
	cfg.TokenStoreFile = filepath.Join(t.TempDir(), "nested", "session.json")

	ctx := context.Background()

	core, err := NewCore(ctx, cfg)
	require.NoError(t, err)
	_, err = core.Manager.StudentLogin(ctx, model.Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	core.Close()

	again, err := NewCore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(again.Close)
	assert.True(t, again.Manager.Restore(ctx))
}

func TestCoreRedisUnreachable(t *testing.T) {
	cfg := baseConfig("http://127.0.0.1:1")
	cfg.TokenStore = config.TokenStoreRedis
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := NewCore(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestCoreMemoryStoreStartsAnonymous(t *testing.T) {
	cfg := baseConfig("http://127.0.0.1:1")
	cfg.TokenStore = config.TokenStoreMemory

	core, err := NewCore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(core.Close)

	assert.False(t, core.Manager.Restore(context.Background()))
	assert.False(t, core.Manager.Snapshot().IsAuthenticated())
}
