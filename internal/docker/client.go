package docker

import (
	"context"
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/docker/docker/client"

	"github.com/shinji-kodama/sidecar/internal/model"
)

// defaultPingTimeout bounds the Ping round trip. Docker Desktop on macOS
// can take a few seconds to answer when its VM has just woken up.
const defaultPingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client used by the API backend.
//
// Usage:
//
//	c, err := docker.NewClient()
//	if err != nil { /* handle */ }
//	defer c.Close()
//	if err := c.Ping(ctx); err != nil { /* runtime not running */ }
type Client struct {
	inner *client.Client
}

// NewClient creates an Engine API client.
//
// DOCKER_HOST is used as-is when set. Otherwise the first reachable
// endpoint from hostCandidates is used. Returns a model.CLIError with
// ExitDockerNotRunning when none is reachable.
func NewClient() (*Client, error) {
	if dockerHost := os.Getenv("DOCKER_HOST"); dockerHost != "" {
		return newClientWithHost(dockerHost)
	}

	home, _ := os.UserHomeDir()
	candidates := hostCandidates(runtime.GOOS, home, os.Getenv("XDG_RUNTIME_DIR"))
	host, err := firstReachable(candidates, endpointReachable)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"no Docker endpoint found",
			err,
		)
	}

	return newClientWithHost(host)
}

// newClientWithHost creates a client for a Docker connection string such
// as "unix:///var/run/docker.sock". API version negotiation keeps the
// client compatible with older daemons.
func newClientWithHost(host string) (*Client, error) {
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host),
			err,
		)
	}

	return &Client{inner: c}, nil
}

// hostCandidates lists the daemon endpoints to try on goos, most common
// first. home and runtimeDir may be empty, in which case the endpoints
// under them are skipped.
//
//   - linux: the system socket, then the rootless socket in $XDG_RUNTIME_DIR
//   - darwin: the system socket, then Docker Desktop's per-user socket
//   - windows: the docker_engine named pipe
func hostCandidates(goos, home, runtimeDir string) []string {
	const systemSocket = "unix:///var/run/docker.sock"

	switch goos {
	case "windows":
		return []string{"npipe:////./pipe/docker_engine"}
	case "darwin":
		hosts := []string{systemSocket}
		if home != "" {
			hosts = append(hosts, "unix://"+path.Join(home, ".docker/run/docker.sock"))
		}
		return hosts
	case "linux":
		hosts := []string{systemSocket}
		if runtimeDir != "" {
			hosts = append(hosts, "unix://"+path.Join(runtimeDir, "docker.sock"))
		}
		return hosts
	default:
		return nil
	}
}

// firstReachable returns the first host for which reachable reports true.
func firstReachable(hosts []string, reachable func(string) bool) (string, error) {
	if len(hosts) == 0 {
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	for _, h := range hosts {
		if reachable(h) {
			return h, nil
		}
	}
	return "", fmt.Errorf("tried %s (is Docker running?)", strings.Join(hosts, ", "))
}

// Ping verifies that the daemon answers within defaultPingTimeout.
// Returns a model.CLIError with ExitDockerNotRunning otherwise.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			"Docker daemon is not responding (is Docker running?)",
			err,
		)
	}
	return nil
}

// Close releases the underlying HTTP transport. Safe to call more than once.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner returns the underlying SDK client.
func (c *Client) Inner() *client.Client {
	return c.inner
}
