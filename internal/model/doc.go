// Package model defines the domain types and value objects for the
// sidecar CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (Container, Metadata, Connection, Snapshot) are transient
// representations reconstructed from container runtime labels and the
// metadata side-channel at runtime. The CLI never writes state of its own.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
