package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tmpltool/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for tmpltool: the semantic version, git
commit, build time, Go version and target platform.

Examples:
  tmpltool version                # Short summary
  tmpltool version --detailed     # Everything known about the build
  tmpltool version --format json  # Machine-readable`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().Bool("short", false, "Show short version only")
	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	short, _ := cmd.Flags().GetBool("short")
	detailed, _ := cmd.Flags().GetBool("detailed")
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		return outputVersionJSON(out)
	case "text":
		switch {
		case short:
			fmt.Fprintln(out, version.GetShortVersion())
		case detailed:
			outputVersionDetailed(out)
		default:
			outputVersionDefault(out)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
	}
}

func outputVersionDefault(out io.Writer) {
	info := version.GetBuildInfo()

	fmt.Fprintf(out, "tmpltool %s", info.Version)
	if info.GitCommit != "unknown" && len(info.GitCommit) >= 7 {
		fmt.Fprintf(out, " (%s)", info.GitCommit[:7])
	}
	if info.IsDirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)

	if !info.BuildTime.IsZero() {
		fmt.Fprintf(out, "Built: %s\n", info.BuildTime.Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
	fmt.Fprintf(out, "Platform: %s\n", info.Platform)
}

func outputVersionDetailed(out io.Writer) {
	fmt.Fprintln(out, version.GetDetailedVersion())

	if version.IsDirty() {
		fmt.Fprintln(out, "Working directory: dirty")
	}
	if version.IsRelease() {
		fmt.Fprintln(out, "Build type: release")
	} else {
		fmt.Fprintln(out, "Build type: development")
	}
}

func outputVersionJSON(out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(version.GetBuildInfo())
}
