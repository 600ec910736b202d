package docker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/go-connections/nat"

	"github.com/shinji-kodama/sidecar/internal/model"
)

// APIRuntime implements Runtime on top of the Docker Engine API.
// It answers the same questions as CLIRuntime without spawning processes.
type APIRuntime struct {
	cli *Client
}

// NewAPIRuntime connects to the daemon and verifies it responds.
func NewAPIRuntime(ctx context.Context) (*APIRuntime, error) {
	c, err := NewClient()
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &APIRuntime{cli: c}, nil
}

// ListContainers lists running containers carrying the project label.
// The label filter is applied by the daemon.
func (r *APIRuntime) ListContainers(ctx context.Context, projectID string) ([]model.ContainerInfo, error) {
	summaries, err := r.cli.Inner().ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("label", FilterLabel(projectID))),
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(summaries))
	for _, s := range summaries {
		result = append(result, summaryToInfo(s))
	}
	return result, nil
}

// HostPort inspects the container and reads the binding for containerPort/tcp.
func (r *APIRuntime) HostPort(ctx context.Context, name string, containerPort int) (int, error) {
	inspect, err := r.cli.Inner().ContainerInspect(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("inspect container %q: %w", name, err)
	}
	if inspect.NetworkSettings == nil {
		return 0, ErrPortNotMapped
	}

	key, err := nat.NewPort("tcp", strconv.Itoa(containerPort))
	if err != nil {
		return 0, fmt.Errorf("invalid container port %d: %w", containerPort, err)
	}
	return HostPortFromBindings(inspect.NetworkSettings.Ports[key])
}

// Close releases the API client.
func (r *APIRuntime) Close() error {
	return r.cli.Close()
}

// summaryToInfo converts a container list entry to ContainerInfo.
// The API prefixes names with "/", which `docker ps` does not print.
func summaryToInfo(s types.Container) model.ContainerInfo {
	name := ""
	if len(s.Names) > 0 {
		name = strings.TrimPrefix(s.Names[0], "/")
	}

	labels := s.Labels
	if labels == nil {
		labels = map[string]string{}
	}
	return model.ContainerInfo{Name: name, Labels: labels}
}

// HostPortFromBindings returns the first binding with a positive,
// numeric host port. Bindings are in daemon order (IPv4 first), the
// same order `docker port` prints them in.
func HostPortFromBindings(bindings []nat.PortBinding) (int, error) {
	for _, b := range bindings {
		port, err := strconv.Atoi(strings.TrimSpace(b.HostPort))
		if err == nil && port > 0 {
			return port, nil
		}
	}
	return 0, ErrPortNotMapped
}
