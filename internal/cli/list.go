package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/sidecar/internal/render"
)

// NewListCommand creates the "list" command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the project's sidecar containers",
		Long: `List every container labelled for the current project with its
service kind, resolved host port and cleanup policy.

Examples:
  sidecar list
  sidecar list --json`,

		// No positional arguments are required for the list command.
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := collectSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			if IsJSONOutput() {
				return render.ListJSON(cmd.OutOrStdout(), snap)
			}
			return render.List(cmd.OutOrStdout(), snap)
		},
	}
}
