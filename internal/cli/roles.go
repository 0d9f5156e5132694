package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"edu-task-portal/internal/api"
	"edu-task-portal/internal/app"
	"edu-task-portal/internal/model"
)

// asRole restores the stored session and refuses to run fn unless it
// belongs to role.
func (r *runner) asRole(cmd *cobra.Command, role model.Role, fn func(ctx context.Context, core *app.Core) error) error {
	return r.withCore(cmd, true, func(ctx context.Context, core *app.Core) error {
		if !core.Manager.Snapshot().HasRole(role) {
			return fmt.Errorf("not signed in as %s; run taskctl login --role %s", role, role)
		}
		return fn(ctx, core)
	})
}

// show runs a typed call and prints its result as JSON.
func show[T any](r *runner, role model.Role, call func(ctx context.Context, c *app.Core) (T, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return r.asRole(cmd, role, func(ctx context.Context, core *app.Core) error {
			out, err := call(ctx, core)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		})
	}
}

// confirm runs a call keyed by the numeric id in args[0] and prints the
// backend's confirmation.
func confirm(r *runner, role model.Role, call func(ctx context.Context, c *app.Core, id int64) (string, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return r.asRole(cmd, role, func(ctx context.Context, core *app.Core) error {
			msg, err := call(ctx, core, id)
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "OK"
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		})
	}
}

// importCSV uploads the file named in args[0] and prints the row report.
func importCSV(r *runner, role model.Role, call func(ctx context.Context, c *app.Core, name string, content io.Reader) (model.ImportReport, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer f.Close()

		return r.asRole(cmd, role, func(ctx context.Context, core *app.Core) error {
			report, err := call(ctx, core, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		})
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func listFlags(cmd *cobra.Command, p *model.ListParams) {
	cmd.Flags().IntVar(&p.Page, "page", 0, "page number, 1-based")
	cmd.Flags().IntVar(&p.PageSize, "page-size", 0, "rows per page")
	cmd.Flags().StringVar(&p.Name, "name", "", "filter by name")
}

func newAdminCommand(r *runner) *cobra.Command {
	const role = model.RoleAdmin
	admin := func(c *app.Core) *api.Admin { return api.NewAdmin(c.Client) }

	cmd := &cobra.Command{Use: "admin", Short: "Administrator operations on the signed-in admin session"}

	var students, teachers, groups, activities model.ListParams

	studentsCmd := &cobra.Command{Use: "students", Args: cobra.NoArgs, Short: "List students",
		RunE: show(r, role, func(ctx context.Context, c *app.Core) (model.Page[model.User], error) {
			return admin(c).Students(ctx, students)
		})}
	listFlags(studentsCmd, &students)

	teachersCmd := &cobra.Command{Use: "teachers", Args: cobra.NoArgs, Short: "List teachers",
		RunE: show(r, role, func(ctx context.Context, c *app.Core) (model.Page[model.User], error) {
			return admin(c).Teachers(ctx, teachers)
		})}
	listFlags(teachersCmd, &teachers)

	groupsCmd := &cobra.Command{Use: "groups", Args: cobra.NoArgs, Short: "List groups",
		RunE: show(r, role, func(ctx context.Context, c *app.Core) (model.Page[model.Group], error) {
			return admin(c).Groups(ctx, groups)
		})}
	listFlags(groupsCmd, &groups)

	activitiesCmd := &cobra.Command{Use: "activities", Args: cobra.NoArgs, Short: "Recent platform activity",
		RunE: show(r, role, func(ctx context.Context, c *app.Core) ([]model.Activity, error) {
			return admin(c).RecentActivities(ctx, activities)
		})}
	activitiesCmd.Flags().IntVar(&activities.PageSize, "limit", 0, "number of entries")

	cmd.AddCommand(
		&cobra.Command{Use: "pending", Args: cobra.NoArgs, Short: "Teachers awaiting approval",
			RunE: show(r, role, func(ctx context.Context, c *app.Core) ([]model.User, error) {
				return admin(c).PendingTeachers(ctx)
			})},
		&cobra.Command{Use: "approve <teacher-id>", Args: cobra.ExactArgs(1), Short: "Approve a pending teacher",
			RunE: confirm(r, role, func(ctx context.Context, c *app.Core, id int64) (string, error) {
				return admin(c).ApproveTeacher(ctx, id)
			})},
		&cobra.Command{Use: "reject <teacher-id>", Args: cobra.ExactArgs(1), Short: "Reject a pending teacher",
			RunE: confirm(r, role, func(ctx context.Context, c *app.Core, id int64) (string, error) {
				return admin(c).RejectTeacher(ctx, id)
			})},
		&cobra.Command{Use: "delete-teacher <teacher-id>", Args: cobra.ExactArgs(1), Short: "Delete a teacher account",
			RunE: confirm(r, role, func(ctx context.Context, c *app.Core, id int64) (string, error) {
				return admin(c).DeleteTeacher(ctx, id)
			})},
		&cobra.Command{Use: "trend", Args: cobra.NoArgs, Short: "Daily registration counts",
			RunE: show(r, role, func(ctx context.Context, c *app.Core) ([]model.TrendPoint, error) {
				return admin(c).RegistrationTrend(ctx)
			})},
		&cobra.Command{Use: "import-students <file.csv>", Args: cobra.ExactArgs(1), Short: "Batch import students",
			RunE: importCSV(r, role, func(ctx context.Context, c *app.Core, name string, content io.Reader) (model.ImportReport, error) {
				return admin(c).BatchImportStudents(ctx, name, content)
			})},
		&cobra.Command{Use: "import-teachers <file.csv>", Args: cobra.ExactArgs(1), Short: "Batch import teachers",
			RunE: importCSV(r, role, func(ctx context.Context, c *app.Core, name string, content io.Reader) (model.ImportReport, error) {
				return admin(c).BatchImportTeachers(ctx, name, content)
			})},
		studentsCmd,
		teachersCmd,
		groupsCmd,
		activitiesCmd,
	)
	return cmd
}

func newStudentCommand(r *runner) *cobra.Command {
	const role = model.RoleStudent
	student := func(c *app.Core) *api.Student { return api.NewStudent(c.Client) }

	cmd := &cobra.Command{Use: "student", Short: "Student operations on the signed-in student session"}
	cmd.AddCommand(
		&cobra.Command{Use: "info", Args: cobra.NoArgs, Short: "Show the student profile",
			RunE: show(r, role, func(ctx context.Context, c *app.Core) (model.User, error) {
				return student(c).Info(ctx)
			})},
		&cobra.Command{Use: "groups", Args: cobra.NoArgs, Short: "Groups the student belongs to",
			RunE: show(r, role, func(ctx context.Context, c *app.Core) ([]model.Group, error) {
				return student(c).Groups(ctx)
			})},
		&cobra.Command{Use: "join <group-id>", Args: cobra.ExactArgs(1), Short: "Join a group",
			RunE: confirm(r, role, func(ctx context.Context, c *app.Core, id int64) (string, error) {
				return student(c).JoinGroup(ctx, id)
			})},
		&cobra.Command{Use: "leave <group-id>", Args: cobra.ExactArgs(1), Short: "Leave a group",
			RunE: confirm(r, role, func(ctx context.Context, c *app.Core, id int64) (string, error) {
				return student(c).LeaveGroup(ctx, id)
			})},
		&cobra.Command{Use: "members <group-id>", Args: cobra.ExactArgs(1), Short: "List a group's members",
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return show(r, role, func(ctx context.Context, c *app.Core) ([]model.User, error) {
					return student(c).GroupMembers(ctx, id)
				})(cmd, args)
			}},
	)
	return cmd
}

func newTeacherCommand(r *runner) *cobra.Command {
	const role = model.RoleTeacher
	teacher := func(c *app.Core) *api.Teacher { return api.NewTeacher(c.Client) }

	cmd := &cobra.Command{Use: "teacher", Short: "Teacher operations on the signed-in teacher session"}

	var students, groups model.ListParams
	var group model.Group

	studentsCmd := &cobra.Command{Use: "students", Args: cobra.NoArgs, Short: "List active students",
		RunE: show(r, role, func(ctx context.Context, c *app.Core) (model.Page[model.User], error) {
			return teacher(c).Students(ctx, students)
		})}
	listFlags(studentsCmd, &students)

	groupsCmd := &cobra.Command{Use: "groups", Args: cobra.NoArgs, Short: "List the teacher's groups",
		RunE: show(r, role, func(ctx context.Context, c *app.Core) (model.Page[model.Group], error) {
			return teacher(c).Groups(ctx, groups)
		})}
	listFlags(groupsCmd, &groups)

	createCmd := &cobra.Command{Use: "create-group", Args: cobra.NoArgs, Short: "Create a group",
		RunE: show(r, role, func(ctx context.Context, c *app.Core) (model.Group, error) {
			return teacher(c).CreateGroup(ctx, group)
		})}
	createCmd.Flags().StringVar(&group.Name, "name", "", "group name")
	createCmd.Flags().StringVar(&group.Description, "description", "", "group description")
	_ = createCmd.MarkFlagRequired("name")

	cmd.AddCommand(
		&cobra.Command{Use: "stats", Args: cobra.NoArgs, Short: "Dashboard statistics",
			RunE: show(r, role, func(ctx context.Context, c *app.Core) (model.TeacherStats, error) {
				return teacher(c).DashboardStats(ctx)
			})},
		&cobra.Command{Use: "search [name]", Args: cobra.MaximumNArgs(1), Short: "Search students by name",
			RunE: func(cmd *cobra.Command, args []string) error {
				name := ""
				if len(args) == 1 {
					name = args[0]
				}
				return show(r, role, func(ctx context.Context, c *app.Core) ([]model.User, error) {
					return teacher(c).SearchStudent(ctx, name)
				})(cmd, args)
			}},
		&cobra.Command{Use: "import-students <file.csv>", Args: cobra.ExactArgs(1), Short: "Batch import students",
			RunE: importCSV(r, role, func(ctx context.Context, c *app.Core, name string, content io.Reader) (model.ImportReport, error) {
				return teacher(c).BatchImportStudents(ctx, name, content)
			})},
		&cobra.Command{Use: "import-groups <file.csv>", Args: cobra.ExactArgs(1), Short: "Batch import groups",
			RunE: importCSV(r, role, func(ctx context.Context, c *app.Core, name string, content io.Reader) (model.ImportReport, error) {
				return teacher(c).BatchImportGroups(ctx, name, content)
			})},
		studentsCmd,
		groupsCmd,
		createCmd,
	)
	return cmd
}
