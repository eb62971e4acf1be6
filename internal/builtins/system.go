package builtins

import (
	"os"
	"runtime"
	"strings"

	"github.com/conneroisu/tmpltool/internal/capability"
	"github.com/conneroisu/tmpltool/internal/execution"
)

func systemCapabilities() []capability.Capability {
	return []capability.Capability{
		&capability.Func{
			Meta: describe("env", CategorySystem, "Read an environment variable", "string",
				capability.FunctionOnly,
				args(
					capability.Arg("name", "string", "Variable name"),
					capability.OptArgNoDefault("default", "string", "Returned when the variable is unset"),
				),
				`{{ env("HOME") }}`,
				`{{ env("PORT", "8080") }}`,
			),
			Fn: func(a capability.Args) (any, error) {
				name, err := a.String("name")
				if err != nil {
					return nil, err
				}
				if v, ok := os.LookupEnv(name); ok {
					return v, nil
				}
				if def, ok := a.Value("default"); ok {
					return def, nil
				}
				return "", nil
			},
		},
		&capability.Func{
			Meta: describe("env_list", CategorySystem, "Environment variables, optionally filtered by prefix", "object",
				capability.FunctionOnly,
				args(capability.OptArg("prefix", "string", "", "Only include names starting with prefix")),
				`{% for k, v in env_list("APP_") %}{{ k }}={{ v }}{% endfor %}`,
			),
			Fn: func(a capability.Args) (any, error) {
				prefix, err := a.StringOr("prefix", "")
				if err != nil {
					return nil, err
				}
				out := make(map[string]any)
				for _, kv := range os.Environ() {
					k, v, ok := strings.Cut(kv, "=")
					if ok && strings.HasPrefix(k, prefix) {
						out[k] = v
					}
				}
				return out, nil
			},
		},
		constFunc("get_os", "Operating system name, as reported by the Go runtime", runtime.GOOS),
		constFunc("get_arch", "CPU architecture, as reported by the Go runtime", runtime.GOARCH),
		&capability.Func{
			Meta: describe("get_pid", CategorySystem, "Process ID of the renderer", "integer",
				capability.FunctionOnly, nil, `{{ get_pid() }}`),
			Fn: func(capability.Args) (any, error) {
				return os.Getpid(), nil
			},
		},
		&capability.ContextFunc{
			Meta: describe("get_cwd", CategorySystem, "Base directory relative paths are resolved against", "string",
				capability.FunctionOnly, nil, `{{ get_cwd() }}`),
			Fn: func(ctx *execution.Context, _ capability.Args) (any, error) {
				return ctx.BaseDir(), nil
			},
		},
	}
}

func constFunc(name, description, value string) *capability.Func {
	return &capability.Func{
		Meta: describe(name, CategorySystem, description, "string",
			capability.FunctionOnly, nil, `{{ `+name+`() }}`),
		Fn: func(capability.Args) (any, error) {
			return value, nil
		},
	}
}
