package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTempProject(t *testing.T) {
	dir := CreateTempProject(t, map[string]string{
		"page.tmpl":         "{{ name }}",
		"data/values.yaml":  "name: x\n",
		"deep/a/b/c/d.tmpl": "",
	})

	for _, name := range []string{"page.tmpl", "data/values.yaml", "deep/a/b/c/d.tmpl"} {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(name)))
	}

	content, err := os.ReadFile(filepath.Join(dir, "page.tmpl"))
	require.NoError(t, err)
	assert.Equal(t, "{{ name }}", string(content))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := WriteFile(t, dir, "nested/file.txt", "content")

	assert.Equal(t, filepath.Join(dir, "nested", "file.txt"), path)
	require.NoError(t, os.Chmod(path, 0o600))
	AssertFilePermissions(t, path, 0o600)
}

func TestMemProject(t *testing.T) {
	fsys := MemProject(t, map[string]string{
		"/srv/site/page.tmpl": "hello",
		"/srv/secret.txt":     "s3cret",
	})

	data, err := afero.ReadFile(fsys, "/srv/site/page.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	ok, err := afero.DirExists(fsys, "/srv/site")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStandardTemplates(t *testing.T) {
	dir := CreateTempProject(t, StandardTemplates)
	for name := range StandardTemplates {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(name)))
	}
}

func TestSecurityTestCases(t *testing.T) {
	assert.NotEmpty(t, SecurityTestCases.PathTraversal)
	assert.NotEmpty(t, SecurityTestCases.AbsolutePaths)
	assert.NotEmpty(t, SecurityTestCases.CommandInjection)
	assert.NotEmpty(t, SecurityTestCases.ScriptInjection)
}

func TestWaitForFileChange(t *testing.T) {
	path := WriteFile(t, t.TempDir(), "watched.txt", "v1")
	info, err := os.Stat(path)
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		later := info.ModTime().Add(time.Second)
		_ = os.Chtimes(path, later, later)
	}()

	WaitForFileChange(t, path, info.ModTime(), 2*time.Second)
}

func TestWaitFor(t *testing.T) {
	calls := 0
	WaitFor(t, time.Second, func() bool {
		calls++
		return calls == 3
	}, "counter")
	assert.Equal(t, 3, calls)
}
