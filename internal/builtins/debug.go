package builtins

import (
	"fmt"
	"reflect"

	"github.com/davecgh/go-spew/spew"

	"github.com/conneroisu/tmpltool/internal/capability"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func debugCapabilities() []capability.Capability {
	return []capability.Capability{
		debugFilter("type_of", "Name of a value's type: null, string, boolean, integer, number, array or object", "string",
			func(value any) any {
				return typeName(value)
			}),
		debugFilter("dump", "Detailed dump of a value for debugging", "string",
			func(value any) any {
				return dumper.Sdump(value)
			}),
		debugFilter("inspect", "Compact one-line representation of a value", "string",
			func(value any) any {
				return fmt.Sprintf("%s(%s)", typeName(value), dumper.Sprintf("%v", value))
			}),
	}
}

func debugFilter(name, description, returns string, fn func(any) any) *capability.Filter {
	return &capability.Filter{
		Meta: describe(name, CategoryDebug, description, returns,
			capability.FunctionAndFilter,
			args(capability.Arg("value", "any", "Value to describe")),
			`{{ `+name+`(config) }}`,
			`{{ config|`+name+` }}`,
		),
		Apply: func(value any, _ capability.Args) (any, error) {
			return fn(value), nil
		},
	}
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
