// Package execution holds the per-render configuration shared by every
// context-aware capability.
//
// A Context is built once before rendering starts and is never modified
// afterwards, so capability closures hold the same *Context without any
// locking. All filesystem access performed on behalf of a template goes
// through the Context: each accessor validates the raw path with
// validation.ValidatePath before resolving it against the base directory.
package execution

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/conneroisu/tmpltool/internal/validation"
)

// DefaultExecTimeout bounds commands started by the exec capability when the
// template does not pass a timeout.
const DefaultExecTimeout = 30 * time.Second

// Context is the immutable execution context of one render.
type Context struct {
	baseDir     string
	trust       bool
	strict      bool
	fs          afero.Fs
	execTimeout time.Duration
	allowed     map[string]bool
}

// Option configures a Context at construction time.
type Option func(*Context)

// WithFS replaces the filesystem capabilities read from. Tests use an
// in-memory afero filesystem.
func WithFS(fsys afero.Fs) Option {
	return func(c *Context) {
		if fsys != nil {
			c.fs = fsys
		}
	}
}

// WithStrictPaths enables the canonical containment check after resolution.
func WithStrictPaths(strict bool) Option {
	return func(c *Context) {
		c.strict = strict
	}
}

// WithExecTimeout sets the default timeout for executed commands.
func WithExecTimeout(d time.Duration) Option {
	return func(c *Context) {
		if d > 0 {
			c.execTimeout = d
		}
	}
}

// WithAllowedCommands lists commands the exec capability may run outside
// trust mode.
func WithAllowedCommands(commands ...string) Option {
	return func(c *Context) {
		for _, cmd := range commands {
			if cmd != "" {
				c.allowed[cmd] = true
			}
		}
	}
}

// New builds a Context rooted at baseDir, which must be absolute.
func New(baseDir string, trust bool, opts ...Option) (*Context, error) {
	if !filepath.IsAbs(baseDir) {
		return nil, fmt.Errorf("base directory must be absolute: %s", baseDir)
	}

	c := &Context{
		baseDir:     filepath.Clean(baseDir),
		trust:       trust,
		fs:          afero.NewOsFs(),
		execTimeout: DefaultExecTimeout,
		allowed:     make(map[string]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// FromTemplateFile builds a Context whose base directory is the
// canonicalized parent directory of the template at path.
func FromTemplateFile(path string, trust bool, opts ...Option) (*Context, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving template path %s: %w", path, err)
	}

	parent, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("canonicalizing template directory: %w", err)
	}

	return New(parent, trust, opts...)
}

// FromStdin builds a Context rooted at the current working directory.
func FromStdin(trust bool, opts ...Option) (*Context, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	return New(cwd, trust, opts...)
}

// BaseDir returns the directory relative paths are resolved against.
func (c *Context) BaseDir() string {
	return c.baseDir
}

// IsTrustMode reports whether the path sandbox is disabled.
func (c *Context) IsTrustMode() bool {
	return c.trust
}

// IsStrict reports whether the canonical containment check is enabled.
func (c *Context) IsStrict() bool {
	return c.strict
}

// ExecTimeout returns the default timeout for executed commands.
func (c *Context) ExecTimeout() time.Duration {
	return c.execTimeout
}

// CommandAllowed reports whether command may run outside trust mode.
func (c *Context) CommandAllowed(command string) bool {
	return c.allowed[command]
}

// AllowedCommands returns the exec allowlist.
func (c *Context) AllowedCommands() map[string]bool {
	out := make(map[string]bool, len(c.allowed))
	for k, v := range c.allowed {
		out[k] = v
	}
	return out
}

// FS returns the filesystem capabilities read from.
func (c *Context) FS() afero.Fs {
	return c.fs
}

// Resolve joins a relative path with the base directory. Absolute paths are
// returned unchanged. Resolve performs no validation and no I/O.
func (c *Context) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// SecurePath validates the raw path, resolves it and, in strict mode,
// verifies the resolved path stays under the base directory.
func (c *Context) SecurePath(path string) (string, error) {
	if err := validation.ValidatePath(path, c.trust); err != nil {
		return "", err
	}

	resolved := c.Resolve(path)

	if c.strict && !c.trust {
		if err := validation.CheckContainment(c.baseDir, resolved); err != nil {
			return "", err
		}
	}

	return resolved, nil
}

// ReadFile reads a file named by a template.
func (c *Context) ReadFile(path string) ([]byte, error) {
	resolved, err := c.SecurePath(path)
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(c.fs, resolved)
}

// Open opens a file named by a template.
func (c *Context) Open(path string) (afero.File, error) {
	resolved, err := c.SecurePath(path)
	if err != nil {
		return nil, err
	}
	return c.fs.Open(resolved)
}

// Stat returns file information for a path named by a template.
func (c *Context) Stat(path string) (fs.FileInfo, error) {
	resolved, err := c.SecurePath(path)
	if err != nil {
		return nil, err
	}
	return c.fs.Stat(resolved)
}

// Lstat is like Stat but does not follow a trailing symlink when the
// filesystem supports it.
func (c *Context) Lstat(path string) (fs.FileInfo, bool, error) {
	resolved, err := c.SecurePath(path)
	if err != nil {
		return nil, false, err
	}
	if lst, ok := c.fs.(afero.Lstater); ok {
		return lst.LstatIfPossible(resolved)
	}
	info, err := c.fs.Stat(resolved)
	return info, false, err
}

// ReadDir lists a directory named by a template, sorted by name.
func (c *Context) ReadDir(path string) ([]fs.FileInfo, error) {
	resolved, err := c.SecurePath(path)
	if err != nil {
		return nil, err
	}
	return afero.ReadDir(c.fs, resolved)
}

// Glob expands a pattern named by a template. Matches are returned relative
// to the base directory when the pattern was relative.
func (c *Context) Glob(pattern string) ([]string, error) {
	resolved, err := c.SecurePath(pattern)
	if err != nil {
		return nil, err
	}

	matches, err := afero.Glob(c.fs, resolved)
	if err != nil {
		return nil, err
	}

	if filepath.IsAbs(pattern) {
		return matches, nil
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(c.baseDir, m)
		if err != nil {
			rel = m
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}
