package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"edu-task-portal/internal/app"
	"edu-task-portal/internal/guard"
	"edu-task-portal/internal/model"
	"edu-task-portal/internal/tokenstore"
)

func newLoginCommand(r *runner) *cobra.Command {
	var (
		role     string
		username string
		password string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Args:  cobra.NoArgs,
		Short: "Sign in as admin, teacher or student",
		Long: `Sign in and persist the session in the configured token store.
Without --username the remembered login, if any, supplies username and role.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withCore(cmd, false, func(ctx context.Context, core *app.Core) error {
				if username == "" {
					remembered, err := core.Store.Remembered(ctx)
					if err != nil {
						return fmt.Errorf("read remembered login: %w", err)
					}
					if remembered.Remember {
						username = remembered.Username
						if !cmd.Flags().Changed("role") && remembered.Role != "" {
							role = remembered.Role
						}
					}
				}
				if username == "" || password == "" {
					return errors.New("--username and --password are required")
				}

				parsed, err := model.ParseRole(role)
				if err != nil {
					return err
				}

				user, err := core.Manager.Login(ctx, parsed, model.Credentials{Username: username, Password: password})
				if err != nil {
					return err
				}

				if remember {
					err := core.Store.Remember(ctx, tokenstore.Remembered{Role: string(parsed), Username: username, Remember: true})
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not remember login: %v\n", err)
					}
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s), landing page %s\n",
					user.DisplayName(), parsed, guard.LandingPath(parsed))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", string(model.RoleStudent), "admin, teacher or student")
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&remember, "remember", false, "remember username and role for the next login")
	return cmd
}

func newRegisterCommand(r *runner) *cobra.Command {
	var reg model.TeacherRegistration
	var studentNo string

	cmd := &cobra.Command{
		Use:       "register <student|teacher>",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.RoleStudent), string(model.RoleTeacher)},
		Short:     "Create a student or teacher account",
		Long: `Create an account. Registration never signs you in; teacher
accounts additionally wait for administrator approval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := model.ParseRole(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(reg.Username) == "" || reg.Password == "" {
				return errors.New("--username and --password are required")
			}

			return r.withCore(cmd, false, func(ctx context.Context, core *app.Core) error {
				var message string
				switch role {
				case model.RoleStudent:
					message, err = core.Manager.StudentRegister(ctx, model.StudentRegistration{
						Username:  reg.Username,
						Password:  reg.Password,
						Name:      reg.Name,
						Email:     reg.Email,
						Phone:     reg.Phone,
						StudentNo: studentNo,
					})
				case model.RoleTeacher:
					message, err = core.Manager.TeacherRegister(ctx, reg)
				default:
					return fmt.Errorf("%w: only students and teachers can register", model.ErrInvalidRole)
				}
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), message)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&reg.Username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&reg.Name, "name", "", "display name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&studentNo, "student-no", "", "student number (students only)")
	return cmd
}

func newLogoutCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Args:  cobra.NoArgs,
		Short: "Forget the stored session and remembered login",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withCore(cmd, true, func(ctx context.Context, core *app.Core) error {
				if err := core.Manager.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(r *runner) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Args:  cobra.NoArgs,
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withCore(cmd, true, func(ctx context.Context, core *app.Core) error {
				if refresh && core.Manager.Snapshot().IsAuthenticated() {
					if err := core.Manager.RefreshUser(ctx); err != nil {
						return fmt.Errorf("refresh profile: %w", err)
					}
				}
				return printJSON(cmd.OutOrStdout(), core.Manager.Snapshot().View())
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-fetch the profile from the backend")
	return cmd
}

func newRestoreCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Args:  cobra.NoArgs,
		Short: "Check whether the stored session can be restored",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withCore(cmd, false, func(ctx context.Context, core *app.Core) error {
				if !core.Manager.Restore(ctx) {
					fmt.Fprintln(cmd.OutOrStdout(), "No stored session")
					return nil
				}
				snap := core.Manager.Snapshot()
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %s (%s)\n", snap.DisplayName(), snap.Role)
				return nil
			})
		},
	}
}
