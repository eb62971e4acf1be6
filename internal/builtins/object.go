package builtins

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-openapi/jsonpointer"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/tmpltool/internal/capability"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
)

func objectCapabilities() []capability.Capability {
	return []capability.Capability{
		&capability.Filter{
			Meta: describe("to_json", CategoryObject, "Encode a value as JSON", "string",
				capability.FunctionAndFilter,
				args(
					capability.Arg("object", "any", "Value to encode"),
					capability.OptArg("pretty", "boolean", "false", "Indent the output"),
				),
				`{{ to_json(config, true) }}`,
				`{{ config|to_json }}`,
			),
			Apply: func(value any, a capability.Args) (any, error) {
				pretty, err := a.BoolOr("pretty", false)
				if err != nil {
					return nil, err
				}
				var out []byte
				if pretty {
					out, err = json.MarshalIndent(normalize(value), "", "  ")
				} else {
					out, err = json.Marshal(normalize(value))
				}
				if err != nil {
					return nil, tterrors.NewDomainError("cannot encode JSON", err)
				}
				return string(out), nil
			},
		},
		decodeFilter("from_json", "Decode a JSON string", decodeJSON),
		&capability.Filter{
			Meta: describe("to_yaml", CategoryObject, "Encode a value as YAML", "string",
				capability.FunctionAndFilter,
				args(capability.Arg("object", "any", "Value to encode")),
				`{{ to_yaml(config) }}`,
				`{{ config|to_yaml }}`,
			),
			Apply: func(value any, _ capability.Args) (any, error) {
				var buf bytes.Buffer
				enc := yaml.NewEncoder(&buf)
				enc.SetIndent(2)
				if err := enc.Encode(normalize(value)); err != nil {
					return nil, tterrors.NewDomainError("cannot encode YAML", err)
				}
				if err := enc.Close(); err != nil {
					return nil, tterrors.NewDomainError("cannot encode YAML", err)
				}
				return buf.String(), nil
			},
		},
		decodeFilter("from_yaml", "Decode a YAML string", decodeYAML),
		&capability.Filter{
			Meta: describe("to_toml", CategoryObject, "Encode an object as TOML", "string",
				capability.FunctionAndFilter,
				args(capability.Arg("object", "object", "Object to encode")),
				`{{ to_toml(config) }}`,
				`{{ config|to_toml }}`,
			),
			Apply: func(value any, _ capability.Args) (any, error) {
				obj, err := objectInput("object", value)
				if err != nil {
					return nil, err
				}
				out, err := toml.Marshal(obj)
				if err != nil {
					return nil, tterrors.NewDomainError("cannot encode TOML", err)
				}
				return string(out), nil
			},
		},
		decodeFilter("from_toml", "Decode a TOML string", decodeTOML),
		objectFilter("keys", "Sorted keys of an object", "array", nil,
			func(obj map[string]any, _ capability.Args) (any, error) {
				return sortedKeys(obj), nil
			}),
		objectFilter("values", "Values of an object, ordered by key", "array", nil,
			func(obj map[string]any, _ capability.Args) (any, error) {
				out := make([]any, 0, len(obj))
				for _, k := range sortedKeys(obj) {
					out = append(out, obj[k])
				}
				return out, nil
			}),
		objectFilter("get", "Look up a dot-separated path, returning default when absent", "any",
			args(
				capability.Arg("path", "string", "Path such as server.ports.0"),
				capability.OptArgNoDefault("default", "any", "Returned when the path is absent"),
			),
			getPath),
		objectFilter("json_pointer", "Resolve an RFC 6901 JSON pointer", "any",
			args(capability.Arg("pointer", "string", "Pointer such as /server/ports/0")),
			func(obj map[string]any, a capability.Args) (any, error) {
				raw, err := a.String("pointer")
				if err != nil {
					return nil, err
				}
				ptr, err := jsonpointer.New(raw)
				if err != nil {
					return nil, tterrors.NewArgumentError("pointer", err.Error())
				}
				out, _, err := ptr.Get(obj)
				if err != nil {
					return nil, tterrors.NewDomainError("pointer "+raw+" not found", err)
				}
				return out, nil
			}),
		objectFilter("merge", "Deep-merge another object over this one", "object",
			args(capability.Arg("other", "object", "Object whose values win")),
			func(obj map[string]any, a capability.Args) (any, error) {
				raw, err := a.Require("other")
				if err != nil {
					return nil, err
				}
				other, err := objectInput("other", raw)
				if err != nil {
					return nil, err
				}
				return deepMerge(obj, other), nil
			}),
		objectFilter("pick", "Keep only the listed keys", "object",
			args(capability.Arg("keys", "array", "Key or list of keys to keep")),
			func(obj map[string]any, a capability.Args) (any, error) {
				keys, err := a.Strings("keys")
				if err != nil {
					return nil, err
				}
				out := make(map[string]any, len(keys))
				for _, k := range keys {
					if v, ok := obj[k]; ok {
						out[k] = v
					}
				}
				return out, nil
			}),
		objectFilter("omit", "Drop the listed keys", "object",
			args(capability.Arg("keys", "array", "Key or list of keys to drop")),
			func(obj map[string]any, a capability.Args) (any, error) {
				keys, err := a.Strings("keys")
				if err != nil {
					return nil, err
				}
				drop := make(map[string]bool, len(keys))
				for _, k := range keys {
					drop[k] = true
				}
				out := make(map[string]any, len(obj))
				for k, v := range obj {
					if !drop[k] {
						out[k] = v
					}
				}
				return out, nil
			}),
	}
}

func decodeFilter(name, description string, decode func([]byte) (any, error)) *capability.Filter {
	return &capability.Filter{
		Meta: describe(name, CategoryObject, description, "any",
			capability.FunctionAndFilter,
			args(capability.Arg("string", "string", "Encoded document")),
			`{{ `+name+`(raw).name }}`,
			`{{ (raw|`+name+`).name }}`,
		),
		Apply: func(value any, _ capability.Args) (any, error) {
			s, err := stringInput("string", value)
			if err != nil {
				return nil, err
			}
			return decode([]byte(s))
		},
	}
}

// objectFilter builds a filter whose input is an object named "object";
// rest lists the arguments after it.
func objectFilter(name, description, returns string, rest []capability.Argument,
	fn func(map[string]any, capability.Args) (any, error)) *capability.Filter {
	params := append([]capability.Argument{capability.Arg("object", "object", "Input object")}, rest...)
	examples := []string{`{{ ` + name + `(config) }}`, `{{ config|` + name + ` }}`}
	if len(rest) > 0 && rest[0].Required {
		examples = []string{`{{ ` + name + `(config, "` + exampleArg(rest[0]) + `") }}`}
	}
	return &capability.Filter{
		Meta: describe(name, CategoryObject, description, returns, capability.FunctionAndFilter, params, examples...),
		Apply: func(value any, a capability.Args) (any, error) {
			obj, err := objectInput("object", value)
			if err != nil {
				return nil, err
			}
			return fn(obj, a)
		},
	}
}

func exampleArg(arg capability.Argument) string {
	switch arg.Name {
	case "path":
		return "server.port"
	case "pointer":
		return "/server/port"
	default:
		return "name"
	}
}

func getPath(obj map[string]any, a capability.Args) (any, error) {
	path, err := a.String("path")
	if err != nil {
		return nil, err
	}

	var cur any = obj
	for _, part := range strings.Split(path, ".") {
		next, ok := step(cur, part)
		if !ok {
			if def, has := a.Value("default"); has {
				return def, nil
			}
			return nil, nil
		}
		cur = next
	}
	return cur, nil
}

func step(cur any, key string) (any, bool) {
	switch node := normalize(cur).(type) {
	case map[string]any:
		v, ok := node[key]
		return v, ok
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(node) {
			return nil, false
		}
		return node[i], true
	default:
		return nil, false
	}
}

func deepMerge(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		bm, bok := out[k].(map[string]any)
		om, ook := v.(map[string]any)
		if bok && ook {
			out[k] = deepMerge(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}
