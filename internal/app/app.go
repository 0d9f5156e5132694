package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edu-task-portal/internal/config"
	"edu-task-portal/internal/guard"
	"edu-task-portal/internal/handler"
	"edu-task-portal/internal/middleware"
	"edu-task-portal/internal/router"
	"edu-task-portal/internal/websocket"
)

type App struct {
	server       *http.Server
	core         *Core
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	core, err := NewCore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if core.Manager.Restore(ctx) {
		snap := core.Manager.Snapshot()
		slog.Info("session restored", "role", snap.Role, "user", snap.DisplayName())
	} else {
		slog.Info("starting anonymous")
	}

	routes := guard.MustDefaultTable()
	navigation := middleware.NewNavigationMiddleware(core.Manager)

	hub := websocket.NewHub(core.Bus)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	appRouter := router.New(cfg, routes, navigation, router.Handlers{
		Session:  handler.NewSessionHandler(core.Manager, core.Store),
		Pages:    handler.NewPageHandler(routes),
		Navigate: handler.NewNavigateHandler(routes, core.Manager),
		Proxy:    handler.NewProxyHandler(core.Client),
		Docs:     handler.NewDocsHandler(nil),
	}, websocket.NewHandler(hub, cfg.CORSOrigins))

	server := &http.Server{
		Addr:              ":" + cfg.PortalPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		core:   core,
		cleanupFuncs: []func(){
			hubCancel,
			core.Close,
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("portal starting", "addr", a.server.Addr, "backend", a.core.Client.BaseURL())
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("portal failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop accepting requests before the token store goes away.
	shutdownErr := a.server.Shutdown(ctx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("portal stopped")
	return nil
}
