package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/tmpltool/internal/builtins"
	"github.com/conneroisu/tmpltool/internal/config"
	"github.com/conneroisu/tmpltool/internal/engine"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/execution"
	"github.com/conneroisu/tmpltool/internal/logging"
	"github.com/conneroisu/tmpltool/internal/registry"
)

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	r, err := newRenderer(cfg, afero.NewOsFs())
	if err != nil {
		return err
	}

	data, err := templateData(cmd, r.fs, r.logger)
	if err != nil {
		return err
	}

	return r.renderTo(templateArg(args), data, cmd.InOrStdin(), cmd.OutOrStdout())
}

func templateArg(args []string) string {
	if len(args) == 0 || args[0] == "-" {
		return ""
	}
	return args[0]
}

// renderer renders templates with the full capability set.
type renderer struct {
	cfg    *config.Config
	logger logging.Logger
	reg    *registry.Registry
	fs     afero.Fs
}

func newRenderer(cfg *config.Config, fsys afero.Fs) (*renderer, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, tterrors.WrapConfig(err, tterrors.ErrCodeConfigInvalid, "invalid log level")
	}
	logger := newLogger(level, cfg.Log.Format)

	reg, err := registry.New(builtins.All(), registry.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &renderer{cfg: cfg, logger: logger, reg: reg, fs: fsys}, nil
}

// context builds the execution context for a template file, or for
// standard input when path is empty.
func (r *renderer) context(path string) (*execution.Context, error) {
	opts := append(r.cfg.ExecutionOptions(), execution.WithFS(r.fs))
	trust := r.cfg.Render.Trust

	var (
		ctx *execution.Context
		err error
	)
	if path == "" {
		ctx, err = execution.FromStdin(trust, opts...)
	} else {
		ctx, err = execution.FromTemplateFile(path, trust, opts...)
	}
	if err != nil {
		return nil, tterrors.WrapIO(err, tterrors.ErrCodeFileNotFound, "cannot determine template directory")
	}
	return ctx, nil
}

// render renders one template and returns the output.
func (r *renderer) render(path string, data map[string]any, stdin io.Reader) ([]byte, error) {
	ctx, err := r.context(path)
	if err != nil {
		return nil, err
	}

	eng := engine.NewPongo(ctx, engine.WithAutoescape(r.cfg.Render.Autoescape))
	if err := r.reg.Register(eng, ctx); err != nil {
		return nil, err
	}

	src := stdin
	if path != "" {
		f, err := r.fs.Open(path)
		if err != nil {
			return nil, tterrors.WrapIO(err, tterrors.ErrCodeFileNotFound, "cannot open template")
		}
		defer f.Close()
		src = f
	}

	r.logger.Debug(context.Background(), "Rendering template",
		"template", path, "base_dir", ctx.BaseDir(), "trust", ctx.IsTrustMode(), "strict", ctx.IsStrict())

	var buf bytes.Buffer
	if err := eng.Render(src, &buf, data); err != nil {
		return nil, err
	}

	if format := r.cfg.Render.Validate; format != "" {
		if err := validateOutput(format, buf.Bytes()); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// renderTo renders and writes the output to render.output, or to w.
// Nothing is written when rendering fails.
func (r *renderer) renderTo(path string, data map[string]any, stdin io.Reader, w io.Writer) error {
	out, err := r.render(path, data, stdin)
	if err != nil {
		return err
	}

	if dest := r.cfg.Render.Output; dest != "" {
		if err := r.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return tterrors.WrapIO(err, tterrors.ErrCodeIOFailed, "cannot create output directory")
		}
		if err := afero.WriteFile(r.fs, dest, out, 0o644); err != nil {
			return tterrors.WrapIO(err, tterrors.ErrCodeIOFailed, "cannot write output")
		}
		r.logger.Info(context.Background(), "Wrote output", "path", dest, "bytes", len(out))
		return nil
	}

	_, err = w.Write(out)
	return err
}

// validateOutput checks that rendered output parses in format.
func validateOutput(format string, out []byte) error {
	var (
		v   any
		err error
	)
	switch strings.ToLower(format) {
	case "json":
		err = json.Unmarshal(out, &v)
	case "yaml", "yml":
		err = yaml.Unmarshal(out, &v)
	case "toml":
		err = toml.Unmarshal(out, &v)
	default:
		return tterrors.NewConfigError(tterrors.ErrCodeConfigInvalid, "unsupported validate format "+format)
	}
	if err != nil {
		return tterrors.NewDomainError(fmt.Sprintf("rendered output is not valid %s", strings.ToLower(format)), err)
	}
	return nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// templateData merges --data files, then --set assignments, into the
// template context.
func templateData(cmd *cobra.Command, fsys afero.Fs, logger logging.Logger) (map[string]any, error) {
	files, err := cmd.Flags().GetStringArray("data")
	if err != nil {
		return nil, err
	}
	sets, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return nil, err
	}
	for _, s := range sets {
		key, value, _ := strings.Cut(s, "=")
		logger.Debug(context.Background(), "Template variable", "key", key, "value", logging.RedactValue(key, value))
	}
	return buildData(fsys, files, sets)
}

func buildData(fsys afero.Fs, files, sets []string) (map[string]any, error) {
	data := make(map[string]any)

	for _, file := range files {
		loaded, err := loadDataFile(fsys, file)
		if err != nil {
			return nil, err
		}
		for k, v := range loaded {
			data[k] = v
		}
	}

	for _, assignment := range sets {
		if err := applySet(data, assignment); err != nil {
			return nil, err
		}
	}

	for k := range data {
		if !identifier.MatchString(k) {
			return nil, tterrors.NewArgumentError(k, "template variable names must be identifiers")
		}
	}
	return data, nil
}

// loadDataFile decodes a variables file chosen by extension.
func loadDataFile(fsys afero.Fs, path string) (map[string]any, error) {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, tterrors.WrapIO(err, tterrors.ErrCodeFileNotFound, "cannot read data file")
	}

	out := make(map[string]any)
	name := strings.ToLower(filepath.Base(path))
	switch ext := filepath.Ext(name); {
	case ext == ".json":
		err = json.Unmarshal(raw, &out)
	case ext == ".yaml" || ext == ".yml":
		err = yaml.Unmarshal(raw, &out)
	case ext == ".toml":
		err = toml.Unmarshal(raw, &out)
	case ext == ".env" || strings.HasPrefix(name, ".env"):
		var env gotenv.Env
		env, err = gotenv.StrictParse(bytes.NewReader(raw))
		for k, v := range env {
			out[k] = v
		}
	default:
		return nil, tterrors.NewArgumentError("data", "unknown data file type "+path+" (json, yaml, toml, .env)")
	}
	if err != nil {
		return nil, tterrors.NewArgumentError("data", fmt.Sprintf("cannot parse %s: %v", path, err))
	}
	return out, nil
}

// applySet assigns one key=value pair. Values are read as YAML scalars, so
// numbers and booleans keep their type; dotted keys create nested objects.
func applySet(data map[string]any, assignment string) error {
	key, raw, ok := strings.Cut(assignment, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return tterrors.NewArgumentError("set", "expected key=value, got "+assignment)
	}

	var value any = raw
	var scalar any
	if err := yaml.Unmarshal([]byte(raw), &scalar); err == nil {
		switch scalar.(type) {
		case bool, int, float64:
			value = scalar
		}
	}

	parts := strings.Split(key, ".")
	node := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[part] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = value
	return nil
}
