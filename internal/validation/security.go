// Package validation provides the security checks capabilities run before
// touching the filesystem or spawning processes: path containment for
// user-supplied paths, and argument checks for command execution.
//
// ValidatePath is deliberately syntactic. It inspects the raw string a
// template passed in, before the path is joined with the base directory, and
// performs no I/O. A symlink inside the base directory that points outside it
// is not detected by ValidatePath; CheckContainment provides the stricter,
// canonical check for callers that enable it.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	tterrors "github.com/conneroisu/tmpltool/internal/errors"
)

// ValidatePath checks a user-supplied path against the sandbox rules.
// In trust mode every path is accepted. Otherwise absolute paths and paths
// with a ".." component are refused with a *errors.SecurityError.
func ValidatePath(path string, trust bool) error {
	if trust {
		return nil
	}

	if isRooted(path) {
		return tterrors.NewSecurityError(tterrors.AbsolutePath, path)
	}

	if hasParentComponent(path) {
		return tterrors.NewSecurityError(tterrors.ParentTraversal, path)
	}

	return nil
}

// isRooted reports whether path begins at a filesystem root: a leading
// separator, or a volume name on platforms that have them.
func isRooted(path string) bool {
	if path == "" {
		return false
	}
	if path[0] == '/' || path[0] == filepath.Separator {
		return true
	}
	return filepath.VolumeName(path) != "" || filepath.IsAbs(path)
}

// hasParentComponent reports whether any component of path is "..".
// Both separators are honored so "a\..\b" is caught on every platform.
func hasParentComponent(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		if part == ".." {
			return true
		}
	}
	return false
}

// CheckContainment verifies that resolved, once symlinks are evaluated, stays
// within baseDir. For paths that do not exist yet, such as output files or
// glob patterns, symlinks are evaluated on the longest existing prefix.
func CheckContainment(baseDir, resolved string) error {
	base := evalExistingPrefix(baseDir)
	target := evalExistingPrefix(resolved)

	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return tterrors.NewSecurityError(tterrors.Escape, resolved)
	}

	return nil
}

// evalExistingPrefix evaluates symlinks in the longest prefix of path that
// exists and appends the remaining components unchanged.
func evalExistingPrefix(path string) string {
	path = filepath.Clean(path)

	var rest []string
	for {
		if real, err := filepath.EvalSymlinks(path); err == nil {
			return filepath.Join(append([]string{real}, rest...)...)
		}
		parent := filepath.Dir(path)
		if parent == path {
			return filepath.Join(append([]string{path}, rest...)...)
		}
		rest = append([]string{filepath.Base(path)}, rest...)
		path = parent
	}
}

// ValidateArgument validates a command line argument to prevent injection attacks
func ValidateArgument(arg string) error {
	// Check for shell metacharacters that could be used for command injection
	dangerous := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\\", "\"", "'"}
	for _, char := range dangerous {
		if strings.Contains(arg, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if strings.ContainsAny(arg, "\x00\n\r") {
		return fmt.Errorf("contains control character")
	}

	return nil
}

// ValidateCommand validates a command name against an allowlist
func ValidateCommand(command string, allowedCommands map[string]bool) error {
	if command == "" {
		return fmt.Errorf("command cannot be empty")
	}

	// Check if command is in allowlist
	if !allowedCommands[command] {
		return fmt.Errorf("command '%s' is not allowed", command)
	}

	// Additional security checks for the command itself
	if err := ValidateArgument(command); err != nil {
		return fmt.Errorf("invalid command '%s': %w", command, err)
	}

	return nil
}

// SanitizeInput removes or escapes potentially dangerous characters from user input
func SanitizeInput(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters except common whitespace
	var sanitized strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}

	return sanitized.String()
}
