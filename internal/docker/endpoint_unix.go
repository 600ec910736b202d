//go:build !windows

package docker

import (
	"os"
	"strings"
)

// endpointReachable reports whether the socket file behind a unix:// host
// exists. Ping confirms a daemon is listening on it.
func endpointReachable(host string) bool {
	path, ok := strings.CutPrefix(host, "unix://")
	if !ok {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
