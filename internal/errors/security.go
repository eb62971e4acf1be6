package errors

import "fmt"

// SecurityKind distinguishes the reasons a path is refused.
type SecurityKind int

const (
	// AbsolutePath is raised for paths starting at a filesystem root.
	AbsolutePath SecurityKind = iota
	// ParentTraversal is raised for paths containing a ".." component.
	ParentTraversal
	// Escape is raised by the strict check when a resolved path leaves the base directory.
	Escape
)

// String returns the string representation of the kind
func (k SecurityKind) String() string {
	switch k {
	case AbsolutePath:
		return "absolute_path"
	case ParentTraversal:
		return "parent_traversal"
	case Escape:
		return "escape"
	default:
		return "unknown"
	}
}

// Code returns the error code associated with the kind.
func (k SecurityKind) Code() string {
	switch k {
	case AbsolutePath:
		return ErrCodeAbsolutePath
	case ParentTraversal:
		return ErrCodePathTraversal
	default:
		return ErrCodePathEscape
	}
}

// SecurityError is returned when a user-supplied path fails containment.
// It is never downgraded: the capability that triggered it fails.
type SecurityError struct {
	Kind       SecurityKind
	Path       string
	Capability string
}

// NewSecurityError creates a security error for path.
func NewSecurityError(kind SecurityKind, path string) *SecurityError {
	return &SecurityError{Kind: kind, Path: path}
}

// Error implements the error interface.
func (e *SecurityError) Error() string {
	var msg string
	switch e.Kind {
	case AbsolutePath:
		msg = fmt.Sprintf("security: absolute path '%s' is not allowed (use --trust to bypass)", e.Path)
	case ParentTraversal:
		msg = fmt.Sprintf("security: parent directory traversal in '%s' is not allowed (use --trust to bypass)", e.Path)
	case Escape:
		msg = fmt.Sprintf("security: '%s' resolves outside the base directory", e.Path)
	default:
		msg = fmt.Sprintf("security: path '%s' refused", e.Path)
	}
	if e.Capability != "" {
		return e.Capability + ": " + msg
	}
	return msg
}

// Is matches another SecurityError of the same kind.
func (e *SecurityError) Is(target error) bool {
	t, ok := target.(*SecurityError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels usable with errors.Is.
var (
	ErrAbsolutePath    = &SecurityError{Kind: AbsolutePath}
	ErrParentTraversal = &SecurityError{Kind: ParentTraversal}
	ErrPathEscape      = &SecurityError{Kind: Escape}
)
