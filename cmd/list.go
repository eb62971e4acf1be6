package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tmpltool/internal/builtins"
	"github.com/conneroisu/tmpltool/internal/capability"
	"github.com/conneroisu/tmpltool/internal/registry"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the available capabilities",
	Long: `List every capability with its category, the syntaxes it supports and a
short description.

Examples:
  tmpltool list                      # Everything
  tmpltool list --category hash      # One category
  tmpltool list --categories         # Category names only`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("category", "c", "", "Only list capabilities in this category")
	listCmd.Flags().Bool("categories", false, "List category names only")
}

func runList(cmd *cobra.Command, _ []string) error {
	reg, err := registry.New(builtins.All())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if only, _ := cmd.Flags().GetBool("categories"); only {
		for _, c := range reg.Categories() {
			fmt.Fprintln(out, c)
		}
		return nil
	}

	category, _ := cmd.Flags().GetString("category")
	metas := reg.Metadata()
	if category != "" {
		metas = reg.ByCategory(category)
		if len(metas) == 0 {
			return fmt.Errorf("unknown category %q (available: %s)",
				category, strings.Join(reg.Categories(), ", "))
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tSYNTAX\tDESCRIPTION")
	for _, m := range metas {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, m.Category, syntaxLabel(m.Syntax), m.Description)
	}
	return w.Flush()
}

func syntaxLabel(s capability.Syntax) string {
	names := s.Strings()
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}
