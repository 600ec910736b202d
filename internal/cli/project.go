package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewProjectIDCommand creates the "project-id" command. Provisioning
// scripts can call it instead of re-implementing the identifier.
func NewProjectIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "project-id",
		Short: "Print the identifier used to label this project's containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, id, err := resolveProject()
			if err != nil {
				return err
			}

			if IsJSONOutput() {
				data, err := json.MarshalIndent(map[string]string{
					"projectDir": dir,
					"projectId":  id,
				}, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
}
