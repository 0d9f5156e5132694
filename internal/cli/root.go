// Package cli is taskctl: the session core driven from a terminal. Every
// invocation is a fresh process, so commands restore the persisted session
// before acting on it.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"edu-task-portal/internal/app"
	"edu-task-portal/internal/config"
)

// Opener builds the session core a command runs against.
type Opener func(ctx context.Context) (*app.Core, error)

// DefaultOpener loads configuration from the environment and .env.
func DefaultOpener(ctx context.Context) (*app.Core, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.NewCore(ctx, cfg)
}

type runner struct {
	open Opener
}

// withCore opens the core, optionally restores the stored session, runs fn
// and releases the core.
func (r *runner) withCore(cmd *cobra.Command, restore bool, fn func(ctx context.Context, core *app.Core) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	core, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer core.Close()

	if restore {
		core.Manager.Restore(ctx)
	}
	return fn(ctx, core)
}

// NewRootCmd creates the taskctl root command
func NewRootCmd(open Opener) *cobra.Command {
	if open == nil {
		open = DefaultOpener
	}
	r := &runner{open: open}

	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Sign in to the task platform and work with the stored session",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newLoginCommand(r),
		newRegisterCommand(r),
		newLogoutCommand(r),
		newWhoamiCommand(r),
		newRestoreCommand(r),
		newNavigateCommand(r),
		newRoutesCommand(),
		newAdminCommand(r),
		newStudentCommand(r),
		newTeacherCommand(r),
	)

	return rootCmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
