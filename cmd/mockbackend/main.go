package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edu-task-portal/internal/config"
	"edu-task-portal/internal/logger"
	"edu-task-portal/internal/middleware"
	"edu-task-portal/internal/mockbackend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logHandler := logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	slog.SetDefault(slog.New(logHandler))

	backend, err := mockbackend.New(mockbackend.Config{
		JWTSecret: cfg.MockJWTSecret,
		TokenTTL:  cfg.MockTokenTTL,
	})
	if err != nil {
		slog.Error("failed to initialize mock backend", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.MockPort,
		Handler:           middleware.Recovery(middleware.Logging(backend.Handler())),
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
	}

	go func() {
		slog.Info("mock backend starting", "addr", server.Addr)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("mock backend failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("mock backend stopped")
}
