// Package docker queries the container runtime for sidecar containers.
//
// This package handles:
//   - The sidecar.* label schema and parsing of the label strings
//     printed by `docker ps`
//   - Enumeration of the containers labelled with a project identifier
//   - Resolution of the host port mapped to a container's internal port
//
// Two Runtime backends exist. The CLI backend shells out to the docker
// binary (and therefore works with any CLI-compatible runtime such as
// podman). The API backend talks to the Engine API through
// github.com/docker/docker/client, with socket auto-detection.
//
// The package never creates, starts, stops or removes containers.
package docker
