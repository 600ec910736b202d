package docker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shinji-kodama/sidecar/internal/model"
)

// psFormat is the Go template passed to `docker ps --format`: one line per
// container, name and label string separated by a tab.
const psFormat = "{{.Names}}\t{{.Labels}}"

// CommandRunner runs an external command and returns its stdout.
// It is a seam for tests; the default implementation uses os/exec.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// execRunner runs the command with os/exec. Output captures stdout only;
// stderr is kept on the returned *exec.ExitError for error messages.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CLIRuntime implements Runtime by invoking the docker CLI.
//
// The CLI is used rather than the Engine API so that any runtime with a
// docker-compatible command line works, and so that DOCKER_HOST and
// docker contexts behave exactly as they do in the user's shell.
type CLIRuntime struct {
	bin string
	run CommandRunner
}

// CLIOption configures a CLIRuntime.
type CLIOption func(*CLIRuntime)

// WithCommandRunner replaces the command runner.
func WithCommandRunner(run CommandRunner) CLIOption {
	return func(r *CLIRuntime) {
		r.run = run
	}
}

// NewCLIRuntime creates a CLI backend invoking bin (DefaultBinary when empty).
func NewCLIRuntime(bin string, opts ...CLIOption) *CLIRuntime {
	if bin == "" {
		bin = DefaultBinary
	}
	r := &CLIRuntime{bin: bin, run: execRunner}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListContainers runs `docker ps` filtered by the project label.
// Only running containers are returned, since a stopped container has no
// port mapping to report.
func (r *CLIRuntime) ListContainers(ctx context.Context, projectID string) ([]model.ContainerInfo, error) {
	out, err := r.run(ctx, r.bin,
		"ps",
		"--filter", "label="+FilterLabel(projectID),
		"--format", psFormat,
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("%s ps failed", r.bin),
			commandError(err),
		)
	}
	return ParsePSOutput(string(out)), nil
}

// HostPort runs `docker port <name> <containerPort>`.
func (r *CLIRuntime) HostPort(ctx context.Context, name string, containerPort int) (int, error) {
	out, err := r.run(ctx, r.bin, "port", name, strconv.Itoa(containerPort))
	if err != nil {
		return 0, fmt.Errorf("%s port %s %d: %w", r.bin, name, containerPort, commandError(err))
	}
	return ParsePortOutput(string(out))
}

// Close is a no-op; the CLI backend holds no resources.
func (r *CLIRuntime) Close() error {
	return nil
}

// commandError folds the stderr of a failed command into the error, since
// exec.ExitError alone only says "exit status 1".
func commandError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
	}
	return err
}
