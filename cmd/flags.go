package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/tmpltool/internal/registry"
)

// renderFlagBindings maps render flags to configuration keys.
var renderFlagBindings = map[string]string{
	"trust":        "render.trust",
	"strict-paths": "render.strict_paths",
	"output":       "render.output",
	"validate":     "render.validate",
	"autoescape":   "render.autoescape",
}

// addRenderFlags adds the flags shared by every command that renders.
func addRenderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("trust", false, "allow absolute paths, parent traversal and unrestricted exec")
	f.Bool("strict-paths", false, "also reject paths that escape the template directory through symlinks")
	f.StringP("output", "o", "", "write the result to a file instead of standard output")
	f.String("validate", "", "fail unless the output parses as json, yaml or toml")
	f.Bool("autoescape", false, "HTML-escape printed values")
	f.StringArray("set", nil, "set a template variable, key=value (repeatable, dotted keys nest)")
	f.StringArray("data", nil, "load template variables from a json, yaml, toml or .env file (repeatable)")

	AddFlagValidation(cmd, "validate", func(format string) error {
		if format == "" {
			return nil
		}
		return ValidateFormatWithSuggestion(format, []string{"json", "yaml", "toml"})
	})
}

// bindRenderFlags binds the running command's render flags to viper. Flags
// are bound at run time because several commands define the same flags.
func bindRenderFlags(cmd *cobra.Command, _ []string) error {
	for flagName, key := range renderFlagBindings {
		if flag := cmd.Flags().Lookup(flagName); flag != nil {
			if err := viper.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("binding --%s: %w", flagName, err)
			}
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateFormatWithSuggestion accepts format when it is one of supported,
// and otherwise suggests the closest supported value.
func ValidateFormatWithSuggestion(format string, supported []string) error {
	lower := strings.ToLower(format)
	if lower == "yml" {
		lower = "yaml"
	}
	for _, s := range supported {
		if lower == s {
			return nil
		}
	}

	msg := fmt.Sprintf("unsupported format %q (supported: %s)", format, strings.Join(supported, ", "))
	for _, s := range supported {
		if strings.HasPrefix(s, lower) || strings.HasPrefix(lower, s) {
			return fmt.Errorf("%s; did you mean %q?", msg, s)
		}
	}
	return fmt.Errorf("%s", msg)
}

// exportFormat parses the --format flag of commands that export metadata.
func exportFormat(cmd *cobra.Command) (registry.Format, error) {
	raw, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", err
	}
	return registry.ParseFormat(raw)
}
