//go:build windows

package docker

import (
	"strings"
	"time"

	"github.com/Microsoft/go-winio"
)

const pipeDialTimeout = time.Second

// endpointReachable dials the named pipe behind an npipe:// host. Named
// pipes cannot be stat'ed, so a successful dial is the only existence test.
func endpointReachable(host string) bool {
	path, ok := strings.CutPrefix(host, "npipe://")
	if !ok {
		return false
	}
	timeout := pipeDialTimeout
	conn, err := winio.DialPipe(path, &timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
