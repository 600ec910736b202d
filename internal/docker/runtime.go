package docker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shinji-kodama/sidecar/internal/model"
)

// Backend names accepted by Open.
const (
	BackendCLI = "cli"
	BackendAPI = "api"
)

// DefaultBinary is the runtime CLI invoked by the CLI backend.
const DefaultBinary = "docker"

// ErrPortNotMapped is returned by HostPort when the runtime reports no
// usable host mapping for the requested container port.
var ErrPortNotMapped = errors.New("port is not mapped to the host")

// Runtime is the read-only view of the container runtime the pipeline
// needs. Implementations must not mutate containers.
type Runtime interface {
	// ListContainers returns the running containers labelled with
	// projectID, in the order the runtime reports them.
	ListContainers(ctx context.Context, projectID string) ([]model.ContainerInfo, error)

	// HostPort returns the host port mapped to containerPort (tcp) on the
	// named container. It never returns a port <= 0 with a nil error.
	HostPort(ctx context.Context, name string, containerPort int) (int, error)

	// Close releases resources held by the backend.
	Close() error
}

// Open creates the Runtime for backend. An empty backend selects the
// CLI backend. bin is only used by the CLI backend.
func Open(ctx context.Context, backend, bin string) (Runtime, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendCLI:
		return NewCLIRuntime(bin), nil
	case BackendAPI:
		return NewAPIRuntime(ctx)
	default:
		return nil, model.NewCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("unknown runtime backend %q (valid: %s, %s)", backend, BackendCLI, BackendAPI))
	}
}

// ParsePortOutput extracts the host port from `docker port <name> <port>`
// output such as:
//
//	0.0.0.0:54321
//	[::]:54321
//
// Only the first line is considered; the port is the text after its last
// colon. Empty output, an unparseable value or a port <= 0 are reported
// as ErrPortNotMapped.
func ParsePortOutput(out string) (int, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return 0, ErrPortNotMapped
	}

	line, _, _ := strings.Cut(out, "\n")
	line = strings.TrimSpace(line)
	if i := strings.LastIndex(line, ":"); i >= 0 {
		line = line[i+1:]
	}

	port, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%w: unexpected output %q", ErrPortNotMapped, out)
	}
	if port <= 0 {
		return 0, fmt.Errorf("%w: port %d", ErrPortNotMapped, port)
	}
	return port, nil
}
