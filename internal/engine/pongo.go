package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/flosch/pongo2/v6"

	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/execution"
)

// TestFilterPrefix is prepended to test names when they are exposed as
// pongo2 filters, since pongo2 has no "is" syntax: {% if x|is_email %}.
const TestFilterPrefix = "is_"

// PongoOption configures a Pongo engine.
type PongoOption func(*pongoConfig)

type pongoConfig struct {
	autoescape   bool
	trimBlocks   bool
	lstripBlocks bool
}

// WithAutoescape toggles HTML autoescaping of printed values.
func WithAutoescape(enabled bool) PongoOption {
	return func(cfg *pongoConfig) {
		cfg.autoescape = enabled
	}
}

// WithTrimBlocks removes the first newline after a block tag.
func WithTrimBlocks(enabled bool) PongoOption {
	return func(cfg *pongoConfig) {
		cfg.trimBlocks = enabled
	}
}

// WithLStripBlocks strips leading whitespace before a block tag.
func WithLStripBlocks(enabled bool) PongoOption {
	return func(cfg *pongoConfig) {
		cfg.lstripBlocks = enabled
	}
}

// Pongo renders templates with a pongo2 template set. Functions are set
// globals, filters and tests live in pongo2's filter table.
//
// pongo2 reports function and filter errors as plain strings, so Pongo keeps
// the first error a capability returned and exposes it through RenderError.
type Pongo struct {
	set     *pongo2.TemplateSet
	failure error
}

// RenderError is returned when a render aborts. Unwrap yields the error the
// failing capability returned, when there was one.
type RenderError struct {
	Cause  error
	Engine error
}

// Error implements the error interface. A refused path keeps its reason
// even when pongo2 reports the failure in its own words.
func (e *RenderError) Error() string {
	if e.Engine == nil {
		return e.Cause.Error()
	}
	msg := e.Engine.Error()
	var se *tterrors.SecurityError
	if errors.As(e.Cause, &se) && !strings.Contains(msg, se.Error()) {
		msg += ": " + se.Error()
	}
	return msg
}

// Unwrap returns the capability error that aborted the render.
func (e *RenderError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return e.Engine
}

// NewPongo creates an engine whose includes are loaded through ctx, so they
// are subject to the same path checks as every filesystem capability.
func NewPongo(ctx *execution.Context, opts ...PongoOption) *Pongo {
	cfg := &pongoConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	// pongo2 keeps autoescaping as package state.
	pongo2.SetAutoescape(cfg.autoescape)

	p := &Pongo{}
	p.set = pongo2.NewSet("tmpltool", &guardedLoader{ctx: ctx, owner: p})
	p.set.Options.TrimBlocks = cfg.trimBlocks
	p.set.Options.LStripBlocks = cfg.lstripBlocks

	return p
}

// RegisterFunction exposes fn as a global callable.
func (p *Pongo) RegisterFunction(name string, fn Function) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("pongo: function name and implementation required")
	}
	if _, exists := p.set.Globals[name]; exists {
		return fmt.Errorf("pongo: function %q already registered", name)
	}

	p.set.Globals[name] = func(args ...*pongo2.Value) (*pongo2.Value, error) {
		out, err := fn(unwrapValues(args), nil)
		if err != nil {
			return nil, p.remember(err)
		}
		return pongo2.AsValue(out), nil
	}
	return nil
}

// RegisterFilter exposes fn as a pipe filter. pongo2 filters take at most one
// parameter, which is passed as the first positional argument.
func (p *Pongo) RegisterFilter(name string, fn Filter) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("pongo: filter name and implementation required")
	}

	return p.installFilter(name, func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var args []any
		if param != nil && !param.IsNil() {
			args = []any{param.Interface()}
		}
		out, err := fn(in.Interface(), args, nil)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: p.remember(err)}
		}
		return pongo2.AsValue(out), nil
	})
}

// RegisterTest exposes fn as the filter TestFilterPrefix+name returning a
// boolean.
func (p *Pongo) RegisterTest(name string, fn Test) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("pongo: test name and implementation required")
	}

	return p.installFilter(TestFilterPrefix+name, func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return pongo2.AsValue(fn(in.Interface())), nil
	})
}

// installFilter registers or replaces a filter. The pongo2 filter table is
// process-wide; replacing keeps re-renders in watch mode bound to the newest
// execution context.
func (p *Pongo) installFilter(name string, fn pongo2.FilterFunction) error {
	if pongo2.FilterExists(name) {
		return pongo2.ReplaceFilter(name, fn)
	}
	return pongo2.RegisterFilter(name, fn)
}

func (p *Pongo) remember(err error) error {
	if p.failure == nil {
		p.failure = err
	}
	return err
}

// RenderString renders template source with data as the template context.
func (p *Pongo) RenderString(src string, data map[string]any) (string, error) {
	p.failure = nil

	tpl, err := p.set.FromString(src)
	if err != nil {
		return "", &RenderError{Cause: p.failure, Engine: fmt.Errorf("parse template: %w", err)}
	}
	return p.execute(tpl, data)
}

// Render reads template source from r and renders it to w.
func (p *Pongo) Render(r io.Reader, w io.Writer, data map[string]any) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	p.failure = nil

	tpl, err := p.set.FromBytes(src)
	if err != nil {
		return &RenderError{Cause: p.failure, Engine: fmt.Errorf("parse template: %w", err)}
	}

	out, err := p.execute(tpl, data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func (p *Pongo) execute(tpl *pongo2.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tpl.ExecuteWriter(pongo2.Context(data), &buf); err != nil {
		return "", &RenderError{Cause: p.failure, Engine: err}
	}
	return buf.String(), nil
}

func unwrapValues(values []*pongo2.Value) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if v == nil || v.IsNil() {
			continue
		}
		out[i] = v.Interface()
	}
	return out
}

// guardedLoader loads included templates through the execution context.
type guardedLoader struct {
	ctx   *execution.Context
	owner *Pongo
}

// Abs leaves the name untouched so Get sees exactly what the template wrote.
func (l *guardedLoader) Abs(_, name string) string {
	return name
}

// Get validates and reads an included template.
func (l *guardedLoader) Get(path string) (io.Reader, error) {
	data, err := l.ctx.ReadFile(path)
	if err != nil {
		return nil, l.owner.remember(err)
	}
	return bytes.NewReader(data), nil
}

var (
	_ Engine                = (*Pongo)(nil)
	_ Engine                = (*Recorder)(nil)
	_ pongo2.TemplateLoader = (*guardedLoader)(nil)
)
