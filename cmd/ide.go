package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/tmpltool/internal/builtins"
	"github.com/conneroisu/tmpltool/internal/registry"
)

var ideCmd = &cobra.Command{
	Use:   "ide",
	Short: "Export capability metadata for editors and tooling",
	Long: `Print the metadata of every capability as a single document: name,
category, description, arguments, return type, examples and the syntaxes it
can be called with. Editors use it for completion and hover help.

Examples:
  tmpltool ide                  # JSON
  tmpltool ide --format yaml    # YAML
  tmpltool ide -f toml          # TOML`,
	Args: cobra.NoArgs,
	RunE: runIDE,
}

func init() {
	rootCmd.AddCommand(ideCmd)

	ideCmd.Flags().StringP("format", "f", "json", "Output format (json, yaml, toml)")
	AddFlagValidation(ideCmd, "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"json", "yaml", "toml"})
	})
}

func runIDE(cmd *cobra.Command, _ []string) error {
	format, err := exportFormat(cmd)
	if err != nil {
		return err
	}

	reg, err := registry.New(builtins.All())
	if err != nil {
		return err
	}

	out, err := reg.Export(format)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}
