package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/testutils"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		kind tterrors.SecurityKind
		ok   bool
	}{
		{name: "plain file", path: "config.json", ok: true},
		{name: "nested file", path: "data/users.yaml", ok: true},
		{name: "dot prefix", path: "./templates/base.tmpl", ok: true},
		{name: "empty", path: "", ok: true},
		{name: "dots inside a name", path: "archive..tar", ok: true},
		{name: "hidden file", path: ".env", ok: true},
		{name: "triple dot component", path: ".../x", ok: true},

		{name: "absolute", path: "/etc/passwd", kind: tterrors.AbsolutePath},
		{name: "root", path: "/", kind: tterrors.AbsolutePath},
		{name: "parent", path: "../secret.txt", kind: tterrors.ParentTraversal},
		{name: "bare parent", path: "..", kind: tterrors.ParentTraversal},
		{name: "nested parent", path: "data/../../etc/passwd", kind: tterrors.ParentTraversal},
		{name: "trailing parent", path: "data/..", kind: tterrors.ParentTraversal},
		{name: "backslash parent", path: `data\..\..\secret`, kind: tterrors.ParentTraversal},
		{name: "doubled separators", path: "a//..//b", kind: tterrors.ParentTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, false)
			if tt.ok {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var se *tterrors.SecurityError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.kind, se.Kind)
			assert.Equal(t, tt.path, se.Path)
			assert.True(t, tterrors.IsSecurityError(err))
		})
	}
}

func TestValidatePathTrust(t *testing.T) {
	for _, path := range []string{"/etc/passwd", "../secret", `..\..\x`, ""} {
		assert.NoError(t, ValidatePath(path, true), path)
	}
}

func TestValidatePathAttackVectors(t *testing.T) {
	for _, path := range testutils.SecurityTestCases.PathTraversal {
		err := ValidatePath(path, false)
		assert.True(t, tterrors.IsSecurityError(err), "traversal %q: %v", path, err)
	}
	for _, path := range testutils.SecurityTestCases.AbsolutePaths {
		err := ValidatePath(path, false)
		assert.True(t, tterrors.IsSecurityError(err), "absolute %q: %v", path, err)
	}
}

func TestCheckContainment(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(base, "inside.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("x"), 0o644))

	assert.NoError(t, CheckContainment(base, filepath.Join(base, "inside.txt")))
	assert.NoError(t, CheckContainment(base, filepath.Join(base, "not-yet-created.txt")))
	assert.NoError(t, CheckContainment(base, base))

	err := CheckContainment(base, filepath.Join(outside, "secret.txt"))
	var se *tterrors.SecurityError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, tterrors.Escape, se.Kind)

	link := filepath.Join(base, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	assert.NoError(t, ValidatePath("link/secret.txt", false), "the syntactic check does not see symlinks")
	assert.Error(t, CheckContainment(base, filepath.Join(link, "secret.txt")))

	for _, missing := range []string{"missing.txt", "*.txt", filepath.Join("new", "dir", "file.txt")} {
		err := CheckContainment(base, filepath.Join(link, missing))
		assert.ErrorIs(t, err, tterrors.ErrPathEscape, missing)
	}
	assert.NoError(t, CheckContainment(base, filepath.Join(base, "new", "dir", "file.txt")))
}

func TestEvalExistingPrefix(t *testing.T) {
	dir := t.TempDir()
	real, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	assert.Equal(t, real, evalExistingPrefix(dir))
	assert.Equal(t, filepath.Join(real, "a", "b.txt"), evalExistingPrefix(filepath.Join(dir, "a", "b.txt")))

	target := t.TempDir()
	realTarget, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	assert.Equal(t, filepath.Join(realTarget, "x", "*.yaml"), evalExistingPrefix(filepath.Join(link, "x", "*.yaml")))
}

func TestValidateArgument(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		wantErr bool
	}{
		{"plain word", "status", false},
		{"relative path", "./scripts/build.sh", false},
		{"flag", "--short", false},
		{"flag with value", "--format=json", false},
		{"semicolon", "status; rm -rf /", true},
		{"pipe", "status | cat /etc/passwd", true},
		{"ampersand", "a&b", true},
		{"dollar", "$(whoami)", true},
		{"backtick", "`id`", true},
		{"redirect", "a>b", true},
		{"quote", `"a"`, true},
		{"newline", "a\nb", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArgument(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	allowed := map[string]bool{"git": true, "date": true}

	assert.NoError(t, ValidateCommand("git", allowed))
	assert.NoError(t, ValidateCommand("date", allowed))
	assert.Error(t, ValidateCommand("rm", allowed))
	assert.Error(t, ValidateCommand("", allowed))
	assert.Error(t, ValidateCommand("git;id", map[string]bool{"git;id": true}))
	assert.Error(t, ValidateCommand("git", nil))
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain text", "plain text"},
		{"null\x00byte", "nullbyte"},
		{"bell\x07and\x1bescape", "bellandescape"},
		{"keeps\ttabs\nand lines\r\n", "keeps\ttabs\nand lines\r\n"},
		{"unicode ✓", "unicode ✓"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeInput(tt.input))
	}
}

func BenchmarkValidatePath(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ValidatePath("data/nested/config.yaml", false)
	}
}

func BenchmarkValidateArgument(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ValidateArgument("--format=json")
	}
}
