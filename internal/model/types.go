// Package model defines the domain types for the sidecar CLI.
//
// Key design decision: all state lives in container labels and in the
// transient metadata file written by the provisioning script, so these
// types are rebuilt from runtime queries on every invocation.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ContainerInfo holds the raw runtime view of a sidecar container:
// its name and the full label set, before any label interpretation.
type ContainerInfo struct {
	// Name is the container name without the leading "/" the Docker API adds.
	Name string `json:"name"`

	// Labels is the full set of labels on the container, including the
	// sidecar.* keys written by the provisioning script.
	Labels map[string]string `json:"labels,omitempty"`
}

// Container is a sidecar container after label parsing and metadata merge.
type Container struct {
	// Name is the runtime container name (e.g., "sidecar-postgres-abc123").
	Name string `json:"name"`

	// Service is the service kind from the sidecar.service label.
	// Empty when the label is missing.
	Service string `json:"service"`

	// Keep reports whether the container survives the end of a session.
	// Only the exact label value "true" sets it.
	Keep bool `json:"keep"`

	// Meta is the decoded sidecar.meta label overlaid with the override file.
	Meta Metadata `json:"meta"`
}

// Lifecycle returns the report flag for the container's cleanup policy.
func (c Container) Lifecycle() string {
	if c.Keep {
		return "kept"
	}
	return "cleanup-on-exit"
}

// Metadata is the free-form per-service metadata object. Values keep the
// types produced by encoding/json (float64 for numbers).
type Metadata map[string]any

// MgmtPort returns the management UI port as a positive integer, or 0
// when the key is absent, zero, or not a usable number.
//
// The provisioning script writes 0 when it could not resolve the port,
// so 0 is treated the same as "absent".
func (m Metadata) MgmtPort() int {
	return m.Int("mgmt_port")
}

// Int reads key as a positive integer. JSON numbers, Go integers and
// decimal strings are accepted; everything else yields 0.
func (m Metadata) Int(key string) int {
	v, ok := m[key]
	if !ok || v == nil {
		return 0
	}

	var n int
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt32 {
			return 0
		}
		n = int(x)
	case int:
		n = x
	case int64:
		n = int(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0
		}
		n = int(i)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		n = i
	default:
		return 0
	}

	if n <= 0 {
		return 0
	}
	return n
}

// Clone returns a shallow copy so callers can merge without aliasing.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// EnvVar is a single KEY=VALUE pair emitted for shell evaluation.
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// String formats the pair exactly as it is printed in env mode.
func (e EnvVar) String() string {
	return e.Key + "=" + e.Value
}

// EnvList is an ordered list of environment variables. Order matters:
// it is the order in which variables are printed.
type EnvList []EnvVar

// Get returns the value for key and whether it was present.
func (l EnvList) Get(key string) (string, bool) {
	for _, e := range l {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Map converts the list to a map. Later duplicates win.
func (l EnvList) Map() map[string]string {
	out := make(map[string]string, len(l))
	for _, e := range l {
		out[e.Key] = e.Value
	}
	return out
}

// Connection is one container paired with its resolved host port and the
// connection details rendered for it.
type Connection struct {
	Container Container `json:"container"`

	// ContainerPort is the well-known internal port queried for this service.
	ContainerPort int `json:"containerPort"`

	// HostPort is the host-side port reported by the runtime.
	// 0 means the mapping could not be resolved.
	HostPort int `json:"hostPort"`

	// URI is the service connection string. Empty when unresolved.
	URI string `json:"uri,omitempty"`

	// Env holds the environment variables for this service. Empty when unresolved.
	Env EnvList `json:"env,omitempty"`
}

// Resolved reports whether the runtime returned a usable host port.
func (c Connection) Resolved() bool {
	return c.HostPort > 0
}

// Snapshot is the full result of one inspection pass.
type Snapshot struct {
	// ProjectID is the short identifier the containers were filtered by.
	ProjectID string `json:"projectId"`

	// Host is the hostname used when rendering URIs.
	Host string `json:"host"`

	// Containers lists every container found for the project, including
	// ones whose service kind has no known internal port.
	Containers []Container `json:"containers"`

	// Connections lists, in enumeration order, every container with a
	// known internal port, resolved or not.
	Connections []Connection `json:"connections"`

	// Services lists the service kinds that can be rendered: the built-in
	// kinds followed by any configured extras.
	Services []string `json:"services,omitempty"`
}

// Resolved returns only the connections with a usable host port.
func (s *Snapshot) Resolved() []Connection {
	out := make([]Connection, 0, len(s.Connections))
	for _, c := range s.Connections {
		if c.Resolved() {
			out = append(out, c)
		}
	}
	return out
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// shell hooks to tell a broken runtime apart from a bad configuration.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigInvalid indicates the config file could not be read or
	// contains invalid values.
	ExitConfigInvalid ExitCode = 2

	// ExitDockerNotRunning indicates the container runtime is not accessible.
	ExitDockerNotRunning ExitCode = 3
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
