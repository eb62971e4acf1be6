// Package config provides configuration management for tmpltool using Viper
// for loading from files, environment variables and command-line flags.
//
// Settings are read from .tmpltool.yml (or the file named by --config or
// TMPLTOOL_CONFIG_FILE) and may be overridden by TMPLTOOL_ environment
// variables such as TMPLTOOL_RENDER_TRUST or TMPLTOOL_EXEC_DEFAULT_TIMEOUT.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/tmpltool/internal/execution"
)

type Config struct {
	Render RenderConfig `mapstructure:"render" yaml:"render"`
	Exec   ExecConfig   `mapstructure:"exec" yaml:"exec"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Watch  WatchConfig  `mapstructure:"watch" yaml:"watch"`
}

type RenderConfig struct {
	Trust       bool   `mapstructure:"trust" yaml:"trust"`
	StrictPaths bool   `mapstructure:"strict_paths" yaml:"strict_paths"`
	Output      string `mapstructure:"output" yaml:"output"`
	Validate    string `mapstructure:"validate" yaml:"validate"`
	Autoescape  bool   `mapstructure:"autoescape" yaml:"autoescape"`
}

type ExecConfig struct {
	DefaultTimeout  time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	AllowedCommands []string      `mapstructure:"allowed_commands" yaml:"allowed_commands"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Defaults applied when neither a file, an environment variable nor a flag
// sets a key.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DefaultDebounce  = 300 * time.Millisecond
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("render.trust", false)
	v.SetDefault("render.strict_paths", false)
	v.SetDefault("render.output", "")
	v.SetDefault("render.validate", "")
	v.SetDefault("render.autoescape", false)
	v.SetDefault("exec.default_timeout", execution.DefaultExecTimeout)
	v.SetDefault("exec.allowed_commands", []string{})
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("watch.debounce", DefaultDebounce)
}

// File names for the configuration file search.
const (
	DefaultFileName = ".tmpltool"
	DefaultFileType = "yaml"
)

// ReadInConfig reads the configuration file into v. A file named by path
// must exist and parse. With an empty path, .tmpltool.yml is looked up in
// searchDir and is optional.
func ReadInConfig(v *viper.Viper, path, searchDir string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
		return nil
	}

	v.AddConfigPath(searchDir)
	v.SetConfigType(DefaultFileType)
	v.SetConfigName(DefaultFileName)

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("reading config file %s: %w", v.ConfigFileUsed(), err)
	}
	return nil
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Environment variables arrive as a single comma separated string.
	if v.IsSet("exec.allowed_commands") {
		config.Exec.AllowedCommands = splitList(v.GetStringSlice("exec.allowed_commands"))
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func splitList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ExecutionOptions converts the exec and render settings into options for
// execution.New and friends.
func (c *Config) ExecutionOptions() []execution.Option {
	return []execution.Option{
		execution.WithStrictPaths(c.Render.StrictPaths),
		execution.WithExecTimeout(c.Exec.DefaultTimeout),
		execution.WithAllowedCommands(c.Exec.AllowedCommands...),
	}
}
