package errors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeArgument ErrorType = "argument"
	ErrorTypeSecurity ErrorType = "security"
	ErrorTypeDomain   ErrorType = "domain"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
)

// CapabilityError is a structured error raised while a capability runs.
type CapabilityError struct {
	Type       ErrorType
	Code       string
	Message    string
	Cause      error
	Context    map[string]interface{}
	Capability string
	Argument   string
}

// Error implements the error interface.
func (e *CapabilityError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Capability != "" {
		parts = append(parts, e.Capability+":")
	}

	if e.Argument != "" {
		parts = append(parts, fmt.Sprintf("argument '%s':", e.Argument))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *CapabilityError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *CapabilityError) Is(target error) bool {
	var t *CapabilityError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *CapabilityError) WithContext(key string, value interface{}) *CapabilityError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithCapability names the capability the error was raised by.
func (e *CapabilityError) WithCapability(name string) *CapabilityError {
	e.Capability = name

	return e
}

// Error creation functions

// NewArgumentError reports a missing, unknown or mistyped argument.
func NewArgumentError(argument, message string) *CapabilityError {
	return &CapabilityError{
		Type:     ErrorTypeArgument,
		Code:     ErrCodeInvalidArgument,
		Message:  message,
		Argument: argument,
	}
}

// NewDomainError wraps a capability-specific failure.
func NewDomainError(message string, cause error) *CapabilityError {
	return &CapabilityError{
		Type:    ErrorTypeDomain,
		Code:    ErrCodeCapabilityFailed,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *CapabilityError {
	return &CapabilityError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *CapabilityError {
	return &CapabilityError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *CapabilityError {
	return &CapabilityError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsArgumentError reports whether any error in err's chain is an argument
// error.
func IsArgumentError(err error) bool {
	return hasType(err, ErrorTypeArgument)
}

// IsDomainError reports whether any error in err's chain is a
// capability-specific failure.
func IsDomainError(err error) bool {
	return hasType(err, ErrorTypeDomain)
}

// hasType walks err's chain, including joined errors, for a CapabilityError
// of type t. errors.As would stop at the outermost CapabilityError.
func hasType(err error, t ErrorType) bool {
	for err != nil {
		if ce, ok := err.(*CapabilityError); ok && ce.Type == t {
			return true
		}
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				if hasType(inner, t) {
					return true
				}
			}
			return false
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return false
		}
	}
	return false
}

// IsSecurityError checks if an error is security-related.
func IsSecurityError(err error) bool {
	var se *SecurityError
	if errors.As(err, &se) {
		return true
	}
	return hasType(err, ErrorTypeSecurity)
}

// ErrorHandler reports errors that abort a render.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error once, at a level matching its category, with the
// fields GetErrorContext extracts.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	info := GetErrorContext(err)
	fields := make([]interface{}, 0, 2*len(info))
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, k, info[k])
	}

	switch info["type"] {
	case string(ErrorTypeSecurity):
		h.logger.Error(ctx, err, "Security error occurred", fields...)
	case string(ErrorTypeArgument):
		h.logger.Warn(ctx, err, "Argument error occurred", fields...)
	case "unknown":
		h.logger.Error(ctx, err, "Unhandled error occurred", fields...)
	default:
		h.logger.Error(ctx, err, "Error occurred", fields...)
	}
}

// Common error codes.
const (
	ErrCodeInvalidArgument  = "ERR_INVALID_ARGUMENT"
	ErrCodeCapabilityFailed = "ERR_CAPABILITY_FAILED"
	ErrCodeAbsolutePath     = "ERR_ABSOLUTE_PATH"
	ErrCodePathTraversal    = "ERR_PATH_TRAVERSAL"
	ErrCodePathEscape       = "ERR_PATH_ESCAPE"
	ErrCodeCommandDenied    = "ERR_COMMAND_DENIED"
	ErrCodeTimeout          = "ERR_TIMEOUT"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeIOFailed         = "ERR_IO"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodeRegistration     = "ERR_REGISTRATION"
)
