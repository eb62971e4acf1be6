package builtins

import (
	"reflect"

	"github.com/spf13/cast"

	"github.com/conneroisu/tmpltool/internal/capability"
)

func logicCapabilities() []capability.Capability {
	return []capability.Capability{
		&capability.Filter{
			Meta: describe("default", CategoryLogic, "Fall back to a default when a value is null or empty", "any",
				capability.FunctionAndFilter,
				args(
					capability.Arg("value", "any", "Value to check"),
					capability.OptArg("default", "any", "", "Replacement for an empty value"),
				),
				`{{ default(name, "anonymous") }}`,
				`{{ name|default:"anonymous" }}`,
			),
			Apply: func(value any, a capability.Args) (any, error) {
				if !blank(value) {
					return value, nil
				}
				def, _ := a.Value("default")
				return def, nil
			},
		},
		&capability.Func{
			Meta: describe("coalesce", CategoryLogic, "First argument that is neither null nor empty", "any",
				capability.FunctionOnly,
				args(
					capability.Arg("a", "any", "First candidate"),
					capability.OptArgNoDefault("b", "any", "Second candidate"),
					capability.OptArgNoDefault("c", "any", "Third candidate"),
					capability.OptArgNoDefault("d", "any", "Fourth candidate"),
				),
				`{{ coalesce(env("PORT"), config.port, 8080) }}`,
			),
			Fn: func(a capability.Args) (any, error) {
				for _, name := range []string{"a", "b", "c", "d"} {
					if v, ok := a.Value(name); ok && !blank(v) {
						return v, nil
					}
				}
				return nil, nil
			},
		},
		&capability.Func{
			Meta: describe("ternary", CategoryLogic, "Choose between two values on a condition", "any",
				capability.FunctionOnly,
				args(
					capability.Arg("condition", "boolean", "Condition to evaluate"),
					capability.Arg("true_value", "any", "Returned when the condition holds"),
					capability.Arg("false_value", "any", "Returned otherwise"),
				),
				`{{ ternary(debug, "DEBUG", "INFO") }}`,
			),
			Fn: func(a capability.Args) (any, error) {
				cond, _ := a.Value("condition")
				name := "false_value"
				if truthy(cond) {
					name = "true_value"
				}
				return a.Require(name)
			},
		},
	}
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func truthy(v any) bool {
	if blank(v) {
		return false
	}
	if b, err := cast.ToBoolE(v); err == nil {
		return b
	}
	return true
}
