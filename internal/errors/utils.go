package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a CapabilityError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *CapabilityError {
	if err == nil {
		return nil
	}

	// Preserve capability and argument of an existing CapabilityError
	var ce *CapabilityError
	if errors.As(err, &ce) {
		return &CapabilityError{
			Type:       errType,
			Code:       code,
			Message:    message,
			Cause:      ce,
			Context:    ce.Context,
			Capability: ce.Capability,
			Argument:   ce.Argument,
		}
	}

	return &CapabilityError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *CapabilityError {
	return Wrap(err, ErrorTypeIO, code, message)
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *CapabilityError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// Attribute stamps the name of the capability that produced err. Argument,
// domain and security errors keep their category; anything else becomes a
// domain error so the render reports which capability failed.
func Attribute(err error, capability string) error {
	if err == nil {
		return nil
	}

	var se *SecurityError
	if errors.As(err, &se) {
		if se.Capability == "" {
			se.Capability = capability
		}
		return err
	}

	var ce *CapabilityError
	if errors.As(err, &ce) {
		if ce.Capability == "" {
			ce.Capability = capability
		}
		return err
	}

	return NewDomainError(err.Error(), nil).WithCapability(capability)
}

// FormatError formats an error for user display
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// GetErrorContext extracts context information from a CapabilityError
func GetErrorContext(err error) map[string]interface{} {
	var se *SecurityError
	if errors.As(err, &se) {
		return map[string]interface{}{
			"type":       string(ErrorTypeSecurity),
			"kind":       se.Kind.String(),
			"code":       se.Kind.Code(),
			"path":       se.Path,
			"capability": se.Capability,
		}
	}

	var ce *CapabilityError
	if errors.As(err, &ce) {
		context := make(map[string]interface{})
		for k, v := range ce.Context {
			context[k] = v
		}
		if ce.Capability != "" {
			context["capability"] = ce.Capability
		}
		if ce.Argument != "" {
			context["argument"] = ce.Argument
		}
		context["type"] = string(ce.Type)
		context["code"] = ce.Code
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}

// ExitCode maps an error to the process exit status used by the CLI.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if IsSecurityError(err) {
		return 3
	}
	if IsArgumentError(err) {
		return 2
	}
	return 1
}
