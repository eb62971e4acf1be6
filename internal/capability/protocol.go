// Package capability defines the dispatch protocols through which template
// callable logic is exposed, the metadata each capability carries, and the
// argument binding shared by every protocol.
//
// There are exactly five protocols:
//
//	Function           Call(args)                      function "name"
//	ContextFunction    Call(ctx, args)                 function "name"
//	FilterFunction     CallAsFunction / CallAsFilter   function "name" and filter "name"
//	IsFunction         CallAsFunction / CallAsIs       function "is_x" and test "x"
//	ContextIsFunction  context-aware IsFunction        function "is_x" and test "x"
//
// The set is closed: every protocol embeds Capability, whose unexported
// method can only be satisfied by the adapter types in this package (Func,
// ContextFunc, Filter, Predicate, ContextPredicate). The registry switches on
// the protocol to decide which engine surfaces a capability is bound to.
//
// The test half of IsFunction and ContextIsFunction never fails: errors,
// wrong input types and panics all collapse to false.
package capability

import (
	"strings"

	"github.com/conneroisu/tmpltool/internal/execution"
)

// Protocol identifies one of the dispatch shapes.
type Protocol int

const (
	ProtocolFunction Protocol = iota
	ProtocolContextFunction
	ProtocolFilterFunction
	ProtocolIsFunction
	ProtocolContextIsFunction
)

// String returns the string representation of the protocol
func (p Protocol) String() string {
	switch p {
	case ProtocolFunction:
		return "function"
	case ProtocolContextFunction:
		return "context_function"
	case ProtocolFilterFunction:
		return "filter_function"
	case ProtocolIsFunction:
		return "is_function"
	case ProtocolContextIsFunction:
		return "context_is_function"
	default:
		return "unknown"
	}
}

// Syntax returns the surfaces the protocol is registered into.
func (p Protocol) Syntax() Syntax {
	switch p {
	case ProtocolFilterFunction:
		return FunctionAndFilter
	case ProtocolIsFunction, ProtocolContextIsFunction:
		return FunctionAndTest
	default:
		return FunctionOnly
	}
}

// NeedsContext reports whether the protocol receives the execution context.
func (p Protocol) NeedsContext() bool {
	return p == ProtocolContextFunction || p == ProtocolContextIsFunction
}

// Capability is implemented by every protocol.
type Capability interface {
	Metadata() Metadata
	Protocol() Protocol
	sealed()
}

// Function is a plain callable.
type Function interface {
	Capability
	Call(args Args) (any, error)
}

// ContextFunction is a callable that needs the execution context.
type ContextFunction interface {
	Capability
	Call(ctx *execution.Context, args Args) (any, error)
}

// FilterFunction is callable as f(value=v, ...) and as v|f.
type FilterFunction interface {
	Capability
	CallAsFunction(args Args) (any, error)
	CallAsFilter(value any, args Args) (any, error)
}

// IsFunction is callable as is_x(value=v) and usable as a boolean test.
type IsFunction interface {
	Capability
	CallAsFunction(args Args) (any, error)
	CallAsIs(value any) bool
}

// ContextIsFunction is an IsFunction that needs the execution context.
type ContextIsFunction interface {
	Capability
	CallAsFunction(ctx *execution.Context, args Args) (any, error)
	CallAsIs(ctx *execution.Context, value any) bool
}

// TestName returns the test name of an is-capability: its name without the
// "is_" prefix.
func TestName(name string) string {
	return strings.TrimPrefix(name, "is_")
}

// InputName returns the name of the first declared argument, which receives
// the piped value of a filter or the tested value of a predicate.
func InputName(m Metadata) string {
	if len(m.Arguments) == 0 {
		return ""
	}
	return m.Arguments[0].Name
}

// Func adapts a function to the Function protocol.
type Func struct {
	Meta Metadata
	Fn   func(args Args) (any, error)
}

func (f *Func) Metadata() Metadata { return f.Meta }
func (f *Func) Protocol() Protocol { return ProtocolFunction }
func (f *Func) sealed()            {}

// Call invokes the function.
func (f *Func) Call(args Args) (any, error) {
	return f.Fn(args)
}

// ContextFunc adapts a function to the ContextFunction protocol.
type ContextFunc struct {
	Meta Metadata
	Fn   func(ctx *execution.Context, args Args) (any, error)
}

func (f *ContextFunc) Metadata() Metadata { return f.Meta }
func (f *ContextFunc) Protocol() Protocol { return ProtocolContextFunction }
func (f *ContextFunc) sealed()            {}

// Call invokes the function with the execution context.
func (f *ContextFunc) Call(ctx *execution.Context, args Args) (any, error) {
	return f.Fn(ctx, args)
}

// Filter adapts a value transformation to the FilterFunction protocol. The
// first declared argument is the transformed value: it is read from args
// when called as a function and taken from the pipe when called as a filter.
// Both paths end in the same Apply call.
type Filter struct {
	Meta  Metadata
	Apply func(value any, args Args) (any, error)
}

func (f *Filter) Metadata() Metadata { return f.Meta }
func (f *Filter) Protocol() Protocol { return ProtocolFilterFunction }
func (f *Filter) sealed()            {}

// CallAsFunction reads the input argument from args.
func (f *Filter) CallAsFunction(args Args) (any, error) {
	v, err := args.Require(InputName(f.Meta))
	if err != nil {
		return nil, err
	}
	return f.Apply(v, args)
}

// CallAsFilter uses the piped value as the input argument.
func (f *Filter) CallAsFilter(value any, args Args) (any, error) {
	return f.Apply(value, args.With(InputName(f.Meta), value))
}

// Predicate adapts a check to the IsFunction protocol.
type Predicate struct {
	Meta  Metadata
	Check func(value any) (bool, error)
}

func (p *Predicate) Metadata() Metadata { return p.Meta }
func (p *Predicate) Protocol() Protocol { return ProtocolIsFunction }
func (p *Predicate) sealed()            {}

// CallAsFunction runs the check and reports argument errors.
func (p *Predicate) CallAsFunction(args Args) (any, error) {
	v, err := args.Require(InputName(p.Meta))
	if err != nil {
		return nil, err
	}
	ok, err := p.Check(v)
	if err != nil {
		return nil, err
	}
	return ok, nil
}

// CallAsIs runs the check; any failure is false.
func (p *Predicate) CallAsIs(value any) (result bool) {
	defer func() {
		if recover() != nil {
			result = false
		}
	}()
	ok, err := p.Check(value)
	return err == nil && ok
}

// ContextPredicate adapts a context-aware check to the ContextIsFunction
// protocol.
type ContextPredicate struct {
	Meta  Metadata
	Check func(ctx *execution.Context, value any) (bool, error)
}

func (p *ContextPredicate) Metadata() Metadata { return p.Meta }
func (p *ContextPredicate) Protocol() Protocol { return ProtocolContextIsFunction }
func (p *ContextPredicate) sealed()            {}

// CallAsFunction runs the check and reports argument and security errors.
func (p *ContextPredicate) CallAsFunction(ctx *execution.Context, args Args) (any, error) {
	v, err := args.Require(InputName(p.Meta))
	if err != nil {
		return nil, err
	}
	ok, err := p.Check(ctx, v)
	if err != nil {
		return nil, err
	}
	return ok, nil
}

// CallAsIs runs the check; any failure, including a refused path, is false.
func (p *ContextPredicate) CallAsIs(ctx *execution.Context, value any) (result bool) {
	defer func() {
		if recover() != nil {
			result = false
		}
	}()
	ok, err := p.Check(ctx, value)
	return err == nil && ok
}

var (
	_ Function          = (*Func)(nil)
	_ ContextFunction   = (*ContextFunc)(nil)
	_ FilterFunction    = (*Filter)(nil)
	_ IsFunction        = (*Predicate)(nil)
	_ ContextIsFunction = (*ContextPredicate)(nil)
)
