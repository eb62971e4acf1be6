package config

import (
	"fmt"
	"strings"

	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/logging"
	"github.com/conneroisu/tmpltool/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Errors []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

func (vr *ValidationResult) add(field string, value interface{}, message string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{
		Field:       field,
		Value:       value,
		Message:     message,
		Suggestions: suggestions,
	})
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder
	for _, err := range vr.Errors {
		builder.WriteString(fmt.Sprintf("%s: %s\n", err.Field, err.Message))
		for _, suggestion := range err.Suggestions {
			builder.WriteString(fmt.Sprintf("  hint: %s\n", suggestion))
		}
	}
	return builder.String()
}

// Validate checks every section and collects all problems.
func Validate(config *Config) *ValidationResult {
	result := &ValidationResult{}

	switch strings.ToLower(config.Render.Validate) {
	case "", "json", "yaml", "yml", "toml":
	default:
		result.add("render.validate", config.Render.Validate, "unsupported output format",
			"use one of json, yaml, toml")
	}

	if config.Exec.DefaultTimeout < 0 {
		result.add("exec.default_timeout", config.Exec.DefaultTimeout, "timeout must not be negative")
	}
	for _, cmd := range config.Exec.AllowedCommands {
		if err := validation.ValidateArgument(cmd); err != nil || cmd == "" || strings.ContainsAny(cmd, " \t") {
			result.add("exec.allowed_commands", cmd, "not a plain command name",
				"list executable names such as git or make, without arguments")
		}
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		result.add("log.level", config.Log.Level, err.Error())
	}
	switch config.Log.Format {
	case "text", "json":
	default:
		result.add("log.format", config.Log.Format, "unsupported log format", "use text or json")
	}

	if config.Watch.Debounce < 0 {
		result.add("watch.debounce", config.Watch.Debounce, "debounce must not be negative")
	}

	return result
}

// validateConfig returns the first validation problem as an error.
func validateConfig(config *Config) error {
	result := Validate(config)
	if !result.HasErrors() {
		return nil
	}
	errs := make([]error, 0, len(result.Errors))
	for i := range result.Errors {
		errs = append(errs, &result.Errors[i])
	}
	return tterrors.CombineErrors(errs...)
}
