// Package cli implements the cobra-based CLI commands for sidecar.
//
// Each subcommand (connections, env, list, project-id) is defined in its
// own file within this package. This file defines the root command that
// serves as the parent for all subcommands and handles global flags.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shinji-kodama/sidecar/internal/config"
	"github.com/shinji-kodama/sidecar/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput switches every command to structured JSON output.
	jsonOutput bool

	// verbose lowers the log level to debug.
	verbose bool

	// configPath overrides the config file location.
	configPath string

	// projectDir overrides the project directory used for the identifier.
	projectDir string
)

// State initialised by the root command's PersistentPreRunE.
var (
	logger = zap.NewNop()
	cfg    = config.Default()
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself does not perform any action. It provides help
// text, global flags, and the logger/config setup shared by subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sidecar",
		Short: "Show connection info for a project's sidecar containers",
		Long: `sidecar discovers the database and broker containers started for the
current project, resolves their randomly assigned host ports, and prints
ready-to-use connection strings and environment variables.

It only reads container state; it never starts, stops or changes containers.

Examples:
  sidecar connections
  eval "$(sidecar env)"
  sidecar list --json`,

		// We handle error output ourselves (text or JSON based on --json).
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = newLogger(verbose, cmd.ErrOrStderr())

			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			logger.Debug("configuration loaded",
				zap.String("runtime", cfg.Runtime),
				zap.String("host", cfg.Host),
				zap.String("metaDir", cfg.MetaDir))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/sidecar/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project-dir", "", "Project directory (default: $SIDECAR_PROJECT_DIR, $CLAUDE_PROJECT_DIR, or the working directory)")

	rootCmd.AddCommand(NewConnectionsCommand())
	rootCmd.AddCommand(NewEnvCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewProjectIDCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// CLIError values carry their own exit codes; other errors exit with 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError writes an error to stderr as text or, with --json, as a
// JSON object. stdout stays reserved for command output.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]any{
			"message": message,
		}
		if underlying != nil {
			errObj["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(map[string]any{"error": errObj}, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
