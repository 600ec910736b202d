package project

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestID verifies the identifier against digests computed independently
// with md5sum, so any drift from the provisioning script is caught.
func TestID(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"/project/a", "516906"},
		{"/project/b", "b7fa7a"},
		{"/home/dev/shop", "11e9fe"},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			assert.Equal(t, tt.want, ID(tt.dir))
		})
	}
}

func TestID_Properties(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{6}$`)

	id := ID("/some/where")
	assert.Equal(t, id, ID("/some/where"), "must be deterministic")
	assert.Len(t, id, IDLength)
	assert.Regexp(t, hexRe, id)
	assert.NotEqual(t, ID("/project/a"), ID("/project/b"))
	assert.NotEqual(t, ID("/project/a"), ID("/project/a/"), "paths are hashed verbatim")
}

// fakeEnv builds a LookupEnv function backed by a map.
func fakeEnv(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestResolver_Dir(t *testing.T) {
	wd := func() (string, error) { return "/work/dir", nil }

	tests := []struct {
		name     string
		resolver Resolver
		want     string
	}{
		{
			name:     "working directory fallback",
			resolver: Resolver{LookupEnv: fakeEnv(nil), Getwd: wd},
			want:     "/work/dir",
		},
		{
			name: "editor variable",
			resolver: Resolver{
				LookupEnv: fakeEnv(map[string]string{"CLAUDE_PROJECT_DIR": "/editor/dir"}),
				Getwd:     wd,
			},
			want: "/editor/dir",
		},
		{
			name: "explicit variable wins over editor variable",
			resolver: Resolver{
				LookupEnv: fakeEnv(map[string]string{
					"CLAUDE_PROJECT_DIR":  "/editor/dir",
					"SIDECAR_PROJECT_DIR": "/pinned/dir",
				}),
				Getwd: wd,
			},
			want: "/pinned/dir",
		},
		{
			name: "empty variable is skipped",
			resolver: Resolver{
				LookupEnv: fakeEnv(map[string]string{"SIDECAR_PROJECT_DIR": ""}),
				Getwd:     wd,
			},
			want: "/work/dir",
		},
		{
			name: "override wins over everything",
			resolver: Resolver{
				Override:  "/flag/dir",
				LookupEnv: fakeEnv(map[string]string{"SIDECAR_PROJECT_DIR": "/pinned/dir"}),
				Getwd:     wd,
			},
			want: "/flag/dir",
		},
		{
			name:     "override is trimmed before use",
			resolver: Resolver{Override: "  /flag/dir\n", LookupEnv: fakeEnv(nil), Getwd: wd},
			want:     "/flag/dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.resolver.Dir()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestResolver_WorkingDirThroughSymlink verifies that a working directory
// entered through a symlink hashes like its real path, which is what the
// provisioning script sees.
func TestResolver_WorkingDirThroughSymlink(t *testing.T) {
	realDir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	link := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, os.Symlink(realDir, link))

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(link))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	t.Setenv("PWD", link)

	dir, id, err := Resolver{LookupEnv: fakeEnv(nil)}.Current()
	require.NoError(t, err)
	assert.Equal(t, realDir, dir)
	assert.Equal(t, ID(realDir), id)
}

func TestResolver_GetwdError(t *testing.T) {
	r := Resolver{
		LookupEnv: fakeEnv(nil),
		Getwd:     func() (string, error) { return "", errors.New("removed") },
	}

	_, _, err := r.Current()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "removed")
}

func TestResolver_Current(t *testing.T) {
	r := Resolver{LookupEnv: fakeEnv(map[string]string{"CLAUDE_PROJECT_DIR": "/project/a"})}

	dir, id, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, "/project/a", dir)
	assert.Equal(t, "516906", id)
}
