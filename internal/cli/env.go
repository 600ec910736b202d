package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/sidecar/internal/render"
)

// NewEnvCommand creates the "env" command, which prints bare KEY=VALUE
// lines for shell evaluation.
func NewEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print KEY=VALUE environment variables for shell evaluation",
		Long: `Print the environment variables of every resolved sidecar container,
one KEY=VALUE per line and nothing else, so the output can be evaluated:

  eval "$(sidecar env)"

Containers whose port cannot be resolved are skipped; a warning is
written to stderr instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := collectSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			if IsJSONOutput() {
				return render.EnvJSON(cmd.OutOrStdout(), snap)
			}
			return render.Env(cmd.OutOrStdout(), snap)
		},
	}
}
