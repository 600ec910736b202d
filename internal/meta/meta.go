// Package meta decodes the per-service metadata side-channel.
//
// Metadata reaches the CLI by two routes:
//   - the sidecar.meta container label, a base64-encoded JSON object set
//     when the container is created;
//   - an optional override file, sidecar-meta-<id>-<service>.json, that
//     the provisioning script writes afterwards for values only known once
//     the container runs (e.g., a dynamically mapped management port).
//
// Every decode failure degrades to an empty Metadata. A single broken
// label must never hide the rest of the listing.
package meta

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/sidecar/internal/model"
)

// EmptyLabel is the base64 encoding of "{}", the value assumed when a
// container carries no sidecar.meta label.
const EmptyLabel = "e30="

// DefaultOverrideDir is where the provisioning script drops override files.
const DefaultOverrideDir = "/tmp"

// Decode turns a sidecar.meta label value into Metadata.
// Invalid base64, invalid JSON and JSON values that are not objects
// all yield an empty, non-nil Metadata.
func Decode(raw string) model.Metadata {
	m, err := decode(raw)
	if err != nil {
		return model.Metadata{}
	}
	return m
}

// decode is Decode with the failure reason kept, for debug logging.
func decode(raw string) (model.Metadata, error) {
	raw = strings.TrimSpace(raw)

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// Some shells strip the trailing padding when building labels.
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(raw)
		if rawErr != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
	}

	return parseObject(data)
}

// DecodeVerbose is like Decode but also returns the reason a non-empty
// label decoded to nothing, so callers can log it.
func DecodeVerbose(raw string) (model.Metadata, error) {
	m, err := decode(raw)
	if err != nil {
		return model.Metadata{}, err
	}
	return m, nil
}

// parseObject unmarshals data as a JSON object. A JSON null is treated
// as an empty object.
func parseObject(data []byte) (model.Metadata, error) {
	var m model.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if m == nil {
		m = model.Metadata{}
	}
	return m, nil
}

// OverridePath returns the override file location for a project and service.
func OverridePath(dir, projectID, service string) string {
	if dir == "" {
		dir = DefaultOverrideDir
	}
	return filepath.Join(dir, fmt.Sprintf("sidecar-meta-%s-%s.json", projectID, service))
}

// LoadOverride reads the override file for a service. A missing or
// malformed file yields an empty Metadata. JSONC comments are accepted
// so the file can be annotated by hand.
func LoadOverride(dir, projectID, service string) model.Metadata {
	m, err := LoadOverrideFile(OverridePath(dir, projectID, service))
	if err != nil {
		return model.Metadata{}
	}
	return m
}

// LoadOverrideFile reads and parses a single override file. Unlike
// LoadOverride it reports why the file was unusable.
func LoadOverrideFile(path string) (model.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// jsonc.ToJSON strips // and /* */ comments and trailing commas,
	// leaving plain JSON that encoding/json can parse.
	m, err := parseObject(jsonc.ToJSON(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// Merge returns base overlaid with override. Keys in override win.
// Neither input is modified.
func Merge(base, override model.Metadata) model.Metadata {
	out := base.Clone()
	for k, v := range override {
		out[k] = v
	}
	return out
}
