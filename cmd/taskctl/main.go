package main

import (
	"fmt"
	"log/slog"
	"os"

	"edu-task-portal/internal/cli"
	"edu-task-portal/internal/logger"
)

func main() {
	// Command output goes to stdout; only warnings and worse reach stderr.
	logHandler := logger.NewPrettyHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})
	slog.SetDefault(slog.New(logHandler))

	if err := cli.NewRootCmd(cli.DefaultOpener).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
