package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/sidecar/internal/render"
)

// NewConnectionsCommand creates the "connections" command, which prints
// the annotated report of every sidecar container of the project.
func NewConnectionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "Print connection info for the project's sidecar containers",
		Long: `Print an annotated report with one section per sidecar container:
its resolved host port, cleanup policy and environment variables,
followed by a commented export block for all services.

Containers whose port cannot be resolved are reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := collectSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			if IsJSONOutput() {
				return render.JSON(cmd.OutOrStdout(), snap, now())
			}
			return render.Connections(cmd.OutOrStdout(), snap, now())
		},
	}
}
