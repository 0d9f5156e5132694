package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"edu-task-portal/internal/app"
	"edu-task-portal/internal/guard"
)

func newNavigateCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Args:  cobra.ExactArgs(1),
		Short: "Show where a navigation would land for the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withCore(cmd, true, func(_ context.Context, core *app.Core) error {
				route, decision, err := guard.MustDefaultTable().Navigate(core.Manager.Snapshot(), args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if decision.Allow {
					fmt.Fprintf(out, "allow %s (%s)\n", route.Path, route.Name)
					return nil
				}
				fmt.Fprintf(out, "redirect %s (%s)\n", decision.Redirect, decision.Reason)
				return nil
			})
		},
	}
}

func newRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Args:  cobra.NoArgs,
		Short: "List the route table and its access rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tNAME\tACCESS")
			for _, route := range guard.DefaultRoutes() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", route.Path, route.Name, access(route.Requirement))
			}
			return tw.Flush()
		},
	}
}

func access(req guard.Requirement) string {
	switch {
	case req.Role != "":
		return "role:" + string(req.Role)
	case req.RequiresAuth:
		return "signed-in"
	case req.RequiresGuest:
		return "guest"
	default:
		return "public"
	}
}
