package capability

import (
	"fmt"
	"time"

	"github.com/spf13/cast"

	tterrors "github.com/conneroisu/tmpltool/internal/errors"
)

// Args holds the arguments of one invocation, keyed by declared name.
type Args struct {
	values map[string]any
	set    map[string]bool
}

// NewArgs builds Args from a name/value map. Every key counts as supplied.
func NewArgs(values map[string]any) Args {
	a := Args{values: make(map[string]any, len(values)), set: make(map[string]bool, len(values))}
	for k, v := range values {
		a.values[k] = v
		a.set[k] = true
	}
	return a
}

// Bind maps positional and keyword arguments onto params. Positionals fill
// params in declaration order. Unknown keywords, duplicates, surplus
// positionals and missing required arguments are argument errors. Declared
// defaults are recorded for optional parameters that were not supplied.
func Bind(params []Argument, positional []any, keyword map[string]any) (Args, error) {
	if len(positional) > len(params) {
		return Args{}, tterrors.NewArgumentError("",
			fmt.Sprintf("expected at most %d arguments, got %d", len(params), len(positional)))
	}

	a := Args{values: make(map[string]any, len(params)), set: make(map[string]bool, len(params))}

	for i, v := range positional {
		a.values[params[i].Name] = v
		a.set[params[i].Name] = true
	}

	for name, v := range keyword {
		if !declared(params, name) {
			return Args{}, tterrors.NewArgumentError(name, "unknown argument")
		}
		if a.set[name] {
			return Args{}, tterrors.NewArgumentError(name, "given both positionally and by name")
		}
		a.values[name] = v
		a.set[name] = true
	}

	for _, p := range params {
		if a.set[p.Name] {
			continue
		}
		if p.Required {
			return Args{}, tterrors.NewArgumentError(p.Name, "required argument is missing")
		}
		if p.Default != nil {
			a.values[p.Name] = *p.Default
		}
	}

	return a, nil
}

func declared(params []Argument, name string) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// With returns a copy of a with name set to v.
func (a Args) With(name string, v any) Args {
	out := Args{values: make(map[string]any, len(a.values)+1), set: make(map[string]bool, len(a.set)+1)}
	for k, val := range a.values {
		out.values[k] = val
	}
	for k, s := range a.set {
		out.set[k] = s
	}
	out.values[name] = v
	out.set[name] = true
	return out
}

// Has reports whether name was supplied by the caller.
func (a Args) Has(name string) bool {
	return a.set[name]
}

// Value returns the raw value for name, including defaults.
func (a Args) Value(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Require returns the raw value for name or an argument error.
func (a Args) Require(name string) (any, error) {
	v, ok := a.values[name]
	if !ok {
		return nil, tterrors.NewArgumentError(name, "required argument is missing")
	}
	return v, nil
}

// String returns name coerced to a string.
func (a Args) String(name string) (string, error) {
	v, err := a.Require(name)
	if err != nil {
		return "", err
	}
	return ToString(name, v)
}

// StringOr returns name as a string, or def when absent.
func (a Args) StringOr(name, def string) (string, error) {
	if _, ok := a.values[name]; !ok {
		return def, nil
	}
	return a.String(name)
}

// Int returns name coerced to an int.
func (a Args) Int(name string) (int, error) {
	v, err := a.Require(name)
	if err != nil {
		return 0, err
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, TypeError(name, "integer", v)
	}
	return n, nil
}

// IntOr returns name as an int, or def when absent.
func (a Args) IntOr(name string, def int) (int, error) {
	if _, ok := a.values[name]; !ok {
		return def, nil
	}
	return a.Int(name)
}

// Float returns name coerced to a float64.
func (a Args) Float(name string) (float64, error) {
	v, err := a.Require(name)
	if err != nil {
		return 0, err
	}
	return ToFloat(name, v)
}

// Bool returns name coerced to a bool.
func (a Args) Bool(name string) (bool, error) {
	v, err := a.Require(name)
	if err != nil {
		return false, err
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, TypeError(name, "boolean", v)
	}
	return b, nil
}

// BoolOr returns name as a bool, or def when absent.
func (a Args) BoolOr(name string, def bool) (bool, error) {
	if _, ok := a.values[name]; !ok {
		return def, nil
	}
	return a.Bool(name)
}

// Duration returns name as a duration. Bare numbers are seconds.
func (a Args) Duration(name string) (time.Duration, error) {
	v, err := a.Require(name)
	if err != nil {
		return 0, err
	}
	switch v.(type) {
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		secs, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, TypeError(name, "duration", v)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return 0, TypeError(name, "duration", v)
	}
	return d, nil
}

// Strings returns name coerced to a list of strings.
func (a Args) Strings(name string) ([]string, error) {
	v, err := a.Require(name)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		return []string{s}, nil
	}
	out, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, TypeError(name, "list of strings", v)
	}
	return out, nil
}

// ToString coerces v to a string for argument name. Only scalar values are
// accepted; maps and lists are argument errors.
func ToString(name string, v any) (string, error) {
	switch v.(type) {
	case nil, map[string]any, []any:
		return "", TypeError(name, "string", v)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", TypeError(name, "string", v)
	}
	return s, nil
}

// ToFloat coerces v to a float64 for argument name.
func ToFloat(name string, v any) (float64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, TypeError(name, "number", v)
	}
	return f, nil
}

// TypeError reports that argument name does not hold a value of type want.
func TypeError(name, want string, got any) error {
	return tterrors.NewArgumentError(name, fmt.Sprintf("expected %s, got %T", want, got))
}
