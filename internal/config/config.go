// Package config loads the optional sidecar configuration file.
//
// The file lives at $XDG_CONFIG_HOME/sidecar/config.yaml (or
// ~/.config/sidecar/config.yaml). A config.toml next to it is used when no
// YAML file exists. Every key has a working default, so the file is never
// required. SIDECAR_* environment variables override file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/sidecar/internal/docker"
	"github.com/shinji-kodama/sidecar/internal/meta"
	"github.com/shinji-kodama/sidecar/internal/model"
	"github.com/shinji-kodama/sidecar/internal/service"
)

// Environment variables that override file values.
const (
	EnvConfig  = "SIDECAR_CONFIG"
	EnvHost    = "SIDECAR_HOST"
	EnvMetaDir = "SIDECAR_META_DIR"
	EnvRuntime = "SIDECAR_RUNTIME"
	EnvDocker  = "SIDECAR_DOCKER"
)

// Config holds the application configuration.
type Config struct {
	// Host is the hostname written into URIs and *_HOST variables.
	Host string `yaml:"host" toml:"host"`

	// MetaDir is the directory holding sidecar-meta-<id>-<service>.json files.
	MetaDir string `yaml:"meta_dir" toml:"meta_dir"`

	// Runtime selects the runtime backend: "cli" or "api".
	Runtime string `yaml:"runtime" toml:"runtime"`

	// DockerBin is the binary used by the cli backend (e.g. "podman").
	DockerBin string `yaml:"docker_bin" toml:"docker_bin"`

	// ExtraPorts maps additional service kinds to their internal port.
	// Built-in services cannot be overridden.
	ExtraPorts map[string]int `yaml:"extra_ports" toml:"extra_ports"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Host:       service.DefaultHost,
		MetaDir:    meta.DefaultOverrideDir,
		Runtime:    docker.BackendCLI,
		DockerBin:  docker.DefaultBinary,
		ExtraPorts: map[string]int{},
	}
}

// Dir returns the sidecar configuration directory.
func Dir() (string, error) {
	if base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); base != "" {
		return filepath.Join(base, "sidecar"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		if err == nil {
			err = errors.New("home directory not found")
		}
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "sidecar"), nil
}

// candidatePaths lists the default file locations, in lookup order.
func candidatePaths() ([]string, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.yml"),
		filepath.Join(dir, "config.toml"),
	}, nil
}

// Load reads the configuration.
//
// With an explicit path (from --config or SIDECAR_CONFIG) the file must
// exist. Without one, the default locations are tried and defaults are
// used when none exists. Errors are *model.CLIError with ExitConfigInvalid.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfig))
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigInvalid,
				fmt.Sprintf("failed to read config %s", path), err)
		}
		if err := decode(data, path, cfg); err != nil {
			return nil, err
		}
	} else {
		paths, err := candidatePaths()
		if err != nil {
			// No home directory: run on defaults rather than failing.
			paths = nil
		}
		for _, p := range paths {
			data, err := os.ReadFile(p)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, model.WrapCLIError(model.ExitConfigInvalid,
					fmt.Sprintf("failed to read config %s", p), err)
			}
			if err := decode(data, p, cfg); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid, "invalid configuration", err)
	}
	return cfg, nil
}

// decode unmarshals data into cfg, choosing the format by file extension.
// Unknown extensions are parsed as YAML.
func decode(data []byte, path string, cfg *Config) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("failed to parse config %s", path), err)
	}
	return nil
}

// applyEnvOverrides replaces file values with non-empty SIDECAR_* variables.
func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(EnvHost)); v != "" {
		c.Host = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMetaDir)); v != "" {
		c.MetaDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRuntime)); v != "" {
		c.Runtime = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDocker)); v != "" {
		c.DockerBin = v
	}
}

// applyDefaults restores defaults for keys a file set to empty values.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Host == "" {
		c.Host = def.Host
	}
	if c.MetaDir == "" {
		c.MetaDir = def.MetaDir
	}
	if c.Runtime == "" {
		c.Runtime = def.Runtime
	}
	if c.DockerBin == "" {
		c.DockerBin = def.DockerBin
	}
	if c.ExtraPorts == nil {
		c.ExtraPorts = map[string]int{}
	}
	c.Runtime = strings.ToLower(c.Runtime)
}

// Validate checks value ranges. It reports the first problem found.
func (c *Config) Validate() error {
	switch c.Runtime {
	case docker.BackendCLI, docker.BackendAPI:
	default:
		return fmt.Errorf("runtime %q is not one of %s, %s", c.Runtime, docker.BackendCLI, docker.BackendAPI)
	}

	if strings.ContainsAny(c.Host, "/:@ ") {
		return fmt.Errorf("host %q must be a bare hostname or IPv4 address", c.Host)
	}

	for name, port := range c.ExtraPorts {
		if strings.TrimSpace(name) == "" {
			return errors.New("extra_ports: service name must not be empty")
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("extra_ports.%s: port %d out of range (1-65535)", name, port)
		}
	}
	return nil
}
