// Package project derives the short identifier that scopes sidecar
// containers to a single working directory.
//
// The provisioning script labels every container it starts with
// sidecar.project=<id>, where <id> is computed from the same directory
// with the same algorithm. Changing ID therefore breaks discovery of
// containers started by existing scripts.
package project

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IDLength is the number of hex characters kept from the digest.
const IDLength = 6

// DirEnvVars lists the environment variables consulted for the project
// directory, highest precedence first. CLAUDE_PROJECT_DIR is the variable
// the editor integration exports; SIDECAR_PROJECT_DIR lets users pin a
// directory explicitly.
var DirEnvVars = []string{"SIDECAR_PROJECT_DIR", "CLAUDE_PROJECT_DIR"}

// ID returns the first IDLength hex characters of the MD5 digest of dir.
//
// The path is hashed byte-for-byte without cleaning, matching the
// provisioning script, so "/a/b" and "/a/b/" are different projects.
// MD5 is used for its stable, well-known output, not for security.
func ID(dir string) string {
	sum := md5.Sum([]byte(dir))
	return hex.EncodeToString(sum[:])[:IDLength]
}

// Resolver locates the project directory. The function fields exist so
// tests can replace the process environment and working directory.
type Resolver struct {
	// Override, when non-empty, wins over every other source
	// (populated from the --project-dir flag).
	Override string

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Getwd defaults to os.Getwd.
	Getwd func() (string, error)
}

// Dir returns the project directory: the override, then the first
// non-empty variable from DirEnvVars, then the working directory.
//
// Only the override is made absolute; environment values are used as
// given because the provisioning script hashes them verbatim. The working
// directory is reported with symlinks resolved, the form getcwd(3) returns
// to the script, even when $PWD names the directory through a link.
func (r Resolver) Dir() (string, error) {
	if override := strings.TrimSpace(r.Override); override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("resolve project dir %q: %w", override, err)
		}
		return abs, nil
	}

	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range DirEnvVars {
		if v, ok := lookup(key); ok && v != "" {
			return v, nil
		}
	}

	getwd := r.Getwd
	if getwd == nil {
		getwd = os.Getwd
	}
	wd, err := getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(wd); err == nil {
		wd = resolved
	}
	return wd, nil
}

// Current resolves the directory with r and returns it with its ID.
func (r Resolver) Current() (dir, id string, err error) {
	dir, err = r.Dir()
	if err != nil {
		return "", "", err
	}
	return dir, ID(dir), nil
}
