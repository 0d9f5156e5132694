package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"edu-task-portal/internal/apiclient"
	"edu-task-portal/internal/config"
	"edu-task-portal/internal/database"
	"edu-task-portal/internal/event"
	"edu-task-portal/internal/session"
	"edu-task-portal/internal/tokenstore"
)

// postgresNamespace scopes this client's rows in a shared session_slots table.
const postgresNamespace = "portal"

// Core is the session machinery shared by the portal server and the CLI.
type Core struct {
	Config  *config.Config
	Bus     *event.InMemoryBus
	Client  *apiclient.Client
	Store   *tokenstore.Store
	Manager *session.Manager

	closers []func()
}

func NewCore(ctx context.Context, cfg *config.Config) (*Core, error) {
	core := &Core{Config: cfg, Bus: event.NewBus()}

	kv, err := core.openKV(ctx)
	if err != nil {
		core.Close()
		return nil, err
	}
	core.Store = tokenstore.New(kv)

	core.Client, err = apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithRateLimit(cfg.APIRateLimitRPS, 1),
		apiclient.WithBus(core.Bus),
	)
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	core.Manager = session.NewManager(core.Client, core.Store, core.Bus)
	return core, nil
}

func (c *Core) openKV(ctx context.Context) (tokenstore.KV, error) {
	switch c.Config.TokenStore {
	case config.TokenStorePostgres:
		slog.Info("connecting to PostgreSQL token store")
		db, err := database.New(ctx, c.Config.DatabaseURL, c.Config.DBMaxConns, c.Config.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.closers = append(c.closers, db.Close)

		if err := db.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		return tokenstore.NewPostgresKV(db.Pool, postgresNamespace), nil

	case config.TokenStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Config.RedisAddr,
			Password: c.Config.RedisPassword,
			DB:       c.Config.RedisDB,
		})
		c.closers = append(c.closers, func() { _ = rdb.Close() })

		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("redis token store ready", "addr", c.Config.RedisAddr)
		return tokenstore.NewRedisKV(rdb, c.Config.RedisPrefix), nil

	case config.TokenStoreMemory:
		return tokenstore.NewMemoryKV(), nil

	default:
		kv, err := tokenstore.NewFileKV(c.Config.TokenStoreFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open token store file: %w", err)
		}
		slog.Debug("file token store ready", "path", kv.Path())
		return kv, nil
	}
}

// Close releases store connections in reverse order of acquisition.
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
