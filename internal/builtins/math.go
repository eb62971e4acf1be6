package builtins

import (
	"math"

	"github.com/conneroisu/tmpltool/internal/capability"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
)

func mathCapabilities() []capability.Capability {
	return []capability.Capability{
		numberFilter("abs", "Absolute value", nil,
			func(x float64, _ capability.Args) (any, error) {
				return number(math.Abs(x)), nil
			}),
		numberFilter("round", "Round to a number of decimal places", args(
			capability.OptArg("precision", "integer", "0", "Decimal places"),
		), func(x float64, a capability.Args) (any, error) {
			p, err := a.IntOr("precision", 0)
			if err != nil {
				return nil, err
			}
			if p < 0 || p > 15 {
				return nil, tterrors.NewArgumentError("precision", "must be between 0 and 15")
			}
			scale := math.Pow(10, float64(p))
			return number(math.Round(x*scale) / scale), nil
		}),
		numberFilter("clamp", "Limit a number to a range", args(
			capability.Arg("min", "number", "Lower bound"),
			capability.Arg("max", "number", "Upper bound"),
		), func(x float64, a capability.Args) (any, error) {
			lo, err := a.Float("min")
			if err != nil {
				return nil, err
			}
			hi, err := a.Float("max")
			if err != nil {
				return nil, err
			}
			if lo > hi {
				return nil, tterrors.NewArgumentError("min", "must not exceed max")
			}
			return number(math.Min(math.Max(x, lo), hi)), nil
		}),
		listFunc("min", "Smallest number in a list", func(xs []float64) (any, error) {
			if len(xs) == 0 {
				return nil, tterrors.NewArgumentError("values", "list is empty")
			}
			m := xs[0]
			for _, x := range xs[1:] {
				m = math.Min(m, x)
			}
			return number(m), nil
		}),
		listFunc("max", "Largest number in a list", func(xs []float64) (any, error) {
			if len(xs) == 0 {
				return nil, tterrors.NewArgumentError("values", "list is empty")
			}
			m := xs[0]
			for _, x := range xs[1:] {
				m = math.Max(m, x)
			}
			return number(m), nil
		}),
		listFunc("sum", "Sum of a list of numbers", func(xs []float64) (any, error) {
			total := 0.0
			for _, x := range xs {
				total += x
			}
			return number(total), nil
		}),
		&capability.Func{
			Meta: describe("percentage", CategoryMath, "Express a part of a total as a percentage", "number",
				capability.FunctionOnly,
				args(
					capability.Arg("value", "number", "Part"),
					capability.Arg("total", "number", "Whole"),
					capability.OptArg("precision", "integer", "2", "Decimal places"),
				),
				`{{ percentage(25, 200) }}`,
			),
			Fn: func(a capability.Args) (any, error) {
				v, err := a.Float("value")
				if err != nil {
					return nil, err
				}
				total, err := a.Float("total")
				if err != nil {
					return nil, err
				}
				if total == 0 {
					return nil, tterrors.NewDomainError("total must not be zero", nil)
				}
				p, err := a.IntOr("precision", 2)
				if err != nil {
					return nil, err
				}
				if p < 0 || p > 15 {
					return nil, tterrors.NewArgumentError("precision", "must be between 0 and 15")
				}
				scale := math.Pow(10, float64(p))
				return number(math.Round(v/total*100*scale) / scale), nil
			},
		},
	}
}

// number returns integral values as int so templates print "3", not "3.0".
func number(x float64) any {
	if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
		return int(x)
	}
	return x
}

func numberFilter(name, description string, rest []capability.Argument,
	fn func(float64, capability.Args) (any, error)) *capability.Filter {
	params := append([]capability.Argument{capability.Arg("value", "number", "Input number")}, rest...)
	example := `{{ ` + name + `(-3.7) }}`
	pipe := `{{ x|` + name + ` }}`
	if len(rest) > 0 && rest[0].Required {
		example = `{{ ` + name + `(x, 0, 10) }}`
		pipe = ""
	}
	examples := []string{example}
	if pipe != "" {
		examples = append(examples, pipe)
	}
	return &capability.Filter{
		Meta: describe(name, CategoryMath, description, "number", capability.FunctionAndFilter, params, examples...),
		Apply: func(value any, a capability.Args) (any, error) {
			if _, ok := value.(bool); ok {
				return nil, capability.TypeError("value", "number", value)
			}
			x, err := capability.ToFloat("value", value)
			if err != nil {
				return nil, err
			}
			return fn(x, a)
		},
	}
}

func listFunc(name, description string, fn func([]float64) (any, error)) *capability.Func {
	return &capability.Func{
		Meta: describe(name, CategoryMath, description, "number",
			capability.FunctionOnly,
			args(capability.Arg("values", "array", "List of numbers")),
			`{{ `+name+`(prices) }}`,
		),
		Fn: func(a capability.Args) (any, error) {
			raw, err := a.Require("values")
			if err != nil {
				return nil, err
			}
			list, err := listInput("values", raw)
			if err != nil {
				return nil, err
			}
			xs := make([]float64, len(list))
			for i, v := range list {
				if xs[i], err = capability.ToFloat("values", v); err != nil {
					return nil, err
				}
			}
			return fn(xs)
		},
	}
}
