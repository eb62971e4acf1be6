// Package registry binds capabilities into a template engine and exports
// their metadata for editor tooling.
//
// Each capability is wired into exactly the surfaces its dispatch protocol
// implies, and its declared metadata syntax must match those surfaces;
// New refuses a capability set that violates either rule, so a mismatch is a
// startup failure rather than a silent gap at render time.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/conneroisu/tmpltool/internal/capability"
	"github.com/conneroisu/tmpltool/internal/engine"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/execution"
	"github.com/conneroisu/tmpltool/internal/logging"
)

// Registry holds a validated, ordered capability set.
type Registry struct {
	capabilities []capability.Capability
	byName       map[string]capability.Capability
	logger       logging.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger registration progress is reported to.
func WithLogger(logger logging.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger.WithComponent("registry")
		}
	}
}

// New validates caps and returns a registry preserving their order.
func New(caps []capability.Capability, opts ...Option) (*Registry, error) {
	r := &Registry{
		capabilities: make([]capability.Capability, 0, len(caps)),
		byName:       make(map[string]capability.Capability, len(caps)),
		logger:       logging.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	for _, c := range caps {
		if err := validate(c); err != nil {
			return nil, err
		}
		name := c.Metadata().Name
		if _, exists := r.byName[name]; exists {
			return nil, registrationError(name, "duplicate capability name")
		}
		r.byName[name] = c
		r.capabilities = append(r.capabilities, c)
	}

	return r, nil
}

func validate(c capability.Capability) error {
	meta := c.Metadata()
	if strings.TrimSpace(meta.Name) == "" {
		return registrationError("", "capability without a name")
	}

	protocol := c.Protocol()
	if want := protocol.Syntax(); meta.Syntax != want {
		return registrationError(meta.Name, fmt.Sprintf(
			"declares syntax %v but the %s protocol implies %v",
			meta.Syntax.Strings(), protocol, want.Strings()))
	}

	switch protocol {
	case capability.ProtocolFilterFunction:
		if strings.HasPrefix(meta.Name, engine.TestFilterPrefix) {
			return registrationError(meta.Name, "filter names must not use the test prefix")
		}
		if len(meta.Arguments) == 0 || !meta.Arguments[0].Required {
			return registrationError(meta.Name, "filters need a required input argument")
		}
	case capability.ProtocolIsFunction, capability.ProtocolContextIsFunction:
		if !strings.HasPrefix(meta.Name, "is_") || meta.Name == "is_" {
			return registrationError(meta.Name, "predicate names must start with is_")
		}
		if len(meta.Arguments) == 0 || !meta.Arguments[0].Required {
			return registrationError(meta.Name, "predicates need a required input argument")
		}
	}

	return nil
}

func registrationError(name, msg string) error {
	return tterrors.NewInternalError(tterrors.ErrCodeRegistration, msg, nil).WithCapability(name)
}

// Register binds every capability, context-free and context-aware, into e.
func (r *Registry) Register(e engine.Engine, ctx *execution.Context) error {
	if err := r.RegisterAll(e); err != nil {
		return err
	}
	return r.RegisterAllWithContext(e, ctx)
}

// RegisterAll binds the capabilities that need no execution context.
func (r *Registry) RegisterAll(e engine.Engine) error {
	count := 0
	for _, c := range r.capabilities {
		if c.Protocol().NeedsContext() {
			continue
		}
		if err := r.bind(e, c, nil); err != nil {
			return err
		}
		count++
	}
	r.logger.Debug(context.Background(), "Registered capabilities", "count", count, "context", false)
	return nil
}

// RegisterAllWithContext binds the context-aware capabilities. Every closure
// shares the same read-only ctx.
func (r *Registry) RegisterAllWithContext(e engine.Engine, ctx *execution.Context) error {
	if ctx == nil {
		return tterrors.NewInternalError(tterrors.ErrCodeRegistration, "execution context is required", nil)
	}

	count := 0
	for _, c := range r.capabilities {
		if !c.Protocol().NeedsContext() {
			continue
		}
		if err := r.bind(e, c, ctx); err != nil {
			return err
		}
		count++
	}
	r.logger.Debug(context.Background(), "Registered capabilities", "count", count, "context", true,
		"base_dir", ctx.BaseDir(), "trust", ctx.IsTrustMode())
	return nil
}

func (r *Registry) bind(e engine.Engine, c capability.Capability, ctx *execution.Context) error {
	meta := c.Metadata()
	name := meta.Name

	var err error
	switch impl := c.(type) {
	case capability.Function:
		err = e.RegisterFunction(name, functionOf(meta, impl.Call))

	case capability.ContextFunction:
		err = e.RegisterFunction(name, functionOf(meta, func(args capability.Args) (any, error) {
			return impl.Call(ctx, args)
		}))

	case capability.FilterFunction:
		err = e.RegisterFunction(name, functionOf(meta, impl.CallAsFunction))
		if err == nil {
			err = e.RegisterFilter(name, filterOf(meta, impl.CallAsFilter))
		}

	case capability.IsFunction:
		err = e.RegisterFunction(name, functionOf(meta, impl.CallAsFunction))
		if err == nil {
			err = e.RegisterTest(capability.TestName(name), impl.CallAsIs)
		}

	case capability.ContextIsFunction:
		err = e.RegisterFunction(name, functionOf(meta, func(args capability.Args) (any, error) {
			return impl.CallAsFunction(ctx, args)
		}))
		if err == nil {
			err = e.RegisterTest(capability.TestName(name), func(value any) bool {
				return impl.CallAsIs(ctx, value)
			})
		}

	default:
		err = fmt.Errorf("unsupported protocol %s", c.Protocol())
	}

	if err != nil {
		return tterrors.NewInternalError(tterrors.ErrCodeRegistration, "engine rejected capability", err).
			WithCapability(name)
	}
	return nil
}

// functionOf binds template arguments against every declared argument.
func functionOf(meta capability.Metadata, call func(capability.Args) (any, error)) engine.Function {
	return func(args []any, kwargs map[string]any) (any, error) {
		bound, err := capability.Bind(meta.Arguments, args, kwargs)
		if err != nil {
			return nil, tterrors.Attribute(err, meta.Name)
		}
		out, err := call(bound)
		if err != nil {
			return nil, tterrors.Attribute(err, meta.Name)
		}
		return out, nil
	}
}

// filterOf binds template arguments against the arguments after the input.
func filterOf(meta capability.Metadata, call func(any, capability.Args) (any, error)) engine.Filter {
	rest := meta.Arguments[1:]
	return func(value any, args []any, kwargs map[string]any) (any, error) {
		bound, err := capability.Bind(rest, args, kwargs)
		if err != nil {
			return nil, tterrors.Attribute(err, meta.Name)
		}
		out, err := call(value, bound)
		if err != nil {
			return nil, tterrors.Attribute(err, meta.Name)
		}
		return out, nil
	}
}

// Capabilities returns the capabilities in registration order.
func (r *Registry) Capabilities() []capability.Capability {
	out := make([]capability.Capability, len(r.capabilities))
	copy(out, r.capabilities)
	return out
}

// Metadata returns every capability's metadata in registration order.
func (r *Registry) Metadata() []capability.Metadata {
	out := make([]capability.Metadata, 0, len(r.capabilities))
	for _, c := range r.capabilities {
		out = append(out, c.Metadata())
	}
	return out
}

// Lookup finds a capability by its primary name.
func (r *Registry) Lookup(name string) (capability.Capability, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Len returns the number of capabilities.
func (r *Registry) Len() int {
	return len(r.capabilities)
}

// Categories returns the sorted set of categories.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range r.capabilities {
		cat := c.Metadata().Category
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	sort.Strings(out)
	return out
}

// ByCategory returns the metadata of capabilities in category.
func (r *Registry) ByCategory(category string) []capability.Metadata {
	var out []capability.Metadata
	for _, c := range r.capabilities {
		if meta := c.Metadata(); meta.Category == category {
			out = append(out, meta)
		}
	}
	return out
}
