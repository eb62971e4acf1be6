// Package cmd provides the command-line interface for tmpltool.
//
// Configuration System:
//
//	Settings come from several sources with clear precedence:
//	1. Command-line flags (--trust, --validate, etc.) - highest priority
//	2. Individual environment variables (TMPLTOOL_RENDER_TRUST, etc.)
//	3. The configuration file named by --config or TMPLTOOL_CONFIG_FILE
//	4. .tmpltool.yml in the current directory - lowest priority
//
// Environment Variables:
//
//	TMPLTOOL_CONFIG_FILE: Path to custom configuration file
//	TMPLTOOL_RENDER_TRUST: Disable the path sandbox
//	TMPLTOOL_EXEC_ALLOWED_COMMANDS: Commands exec may run without --trust
//	And the rest following the TMPLTOOL_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/tmpltool/internal/config"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/logging"
)

var (
	cfgFile string
	// configErr holds the error met reading the configuration file.
	configErr error
)

// rootCmd renders a template when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "tmpltool [template]",
	Short: "Render templates with a library of built-in functions, filters and tests",
	Long: `tmpltool renders a template read from a file, or from standard input when
no file (or "-") is given. Templates use Django-style syntax and can call more
than a hundred built-in capabilities: hashing, encoding, dates, files,
networking, JSON/YAML/TOML handling and more.

Files named by a template are resolved against the template's directory and
may not use absolute paths or "..": pass --trust to lift the restriction.

Examples:
  tmpltool config.tmpl                     Render to standard output
  tmpltool config.tmpl -o config.json      Render to a file
  tmpltool config.tmpl --validate json     Fail unless the output is valid JSON
  echo '{{ sha256("hi") }}' | tmpltool     Render standard input
  tmpltool ide --format yaml               Export capability metadata
  tmpltool list --category hash            Browse capabilities`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE:       bindRenderFlags,
	RunE:          runRender,
}

// Execute runs the CLI and reports a failure on stderr. The returned error
// determines the process exit code, see ExitCode.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logger := newLogger(logging.LevelError, "text")
		tterrors.NewErrorHandler(logger).Handle(context.Background(), err)
		fmt.Fprintln(os.Stderr, "Error:", tterrors.FormatError(err))
	}
	return err
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	return tterrors.ExitCode(err)
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is .tmpltool.yml, can also use TMPLTOOL_CONFIG_FILE env var)")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))

	addRenderFlags(rootCmd)
}

// initConfig initializes the configuration system.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. TMPLTOOL_CONFIG_FILE environment variable
//  3. .tmpltool.yml in the current directory
func initConfig() {
	path := cfgFile
	if path == "" {
		path = os.Getenv("TMPLTOOL_CONFIG_FILE")
	}

	// TMPLTOOL_RENDER_TRUST, TMPLTOOL_EXEC_DEFAULT_TIMEOUT, ...
	viper.SetEnvPrefix("TMPLTOOL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	configErr = config.ReadInConfig(viper.GetViper(), path, ".")
}

// loadConfig returns the configuration, or the error met while reading the
// configuration file.
func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, tterrors.WrapConfig(configErr, tterrors.ErrCodeConfigInvalid, "failed to read configuration file")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, tterrors.WrapConfig(err, tterrors.ErrCodeConfigInvalid, "failed to load configuration")
	}
	return cfg, nil
}

func newLogger(level logging.LogLevel, format string) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: format,
		Output: os.Stderr,
	})
}
