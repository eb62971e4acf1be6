package builtins

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/tmpltool/internal/capability"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/execution"
)

func filesystemCapabilities() []capability.Capability {
	return []capability.Capability{
		fileFunc("read_file", "Read a file as text", "string",
			args(capability.Arg("path", "string", "File path relative to the template")),
			`{{ read_file("README.md") }}`,
			func(ctx *execution.Context, a capability.Args) (any, error) {
				data, err := readPath(ctx, a)
				if err != nil {
					return nil, err
				}
				return string(data), nil
			}),
		fileFunc("read_lines", "Read a file as a list of lines", "array",
			args(
				capability.Arg("path", "string", "File path relative to the template"),
				capability.OptArg("max", "integer", "0", "Maximum number of lines, 0 for all"),
			),
			`{% for line in read_lines("hosts.txt") %}{{ line }}{% endfor %}`,
			readLines),
		fileFunc("list_dir", "List the entry names of a directory", "array",
			args(capability.OptArg("path", "string", ".", "Directory relative to the template")),
			`{{ list_dir("templates")|join:", " }}`,
			func(ctx *execution.Context, a capability.Args) (any, error) {
				path, err := a.StringOr("path", ".")
				if err != nil {
					return nil, err
				}
				entries, err := ctx.ReadDir(path)
				if err != nil {
					return nil, err
				}
				names := make([]string, 0, len(entries))
				for _, e := range entries {
					names = append(names, e.Name())
				}
				return names, nil
			}),
		fileFunc("glob", "Expand a glob pattern relative to the template", "array",
			args(capability.Arg("pattern", "string", "Glob pattern such as *.yaml")),
			`{% for f in glob("conf.d/*.yaml") %}{{ f }}{% endfor %}`,
			func(ctx *execution.Context, a capability.Args) (any, error) {
				pattern, err := a.String("pattern")
				if err != nil {
					return nil, err
				}
				matches, err := ctx.Glob(pattern)
				if err != nil {
					return nil, err
				}
				if matches == nil {
					matches = []string{}
				}
				return matches, nil
			}),
		fileFunc("file_size", "Size of a file in bytes", "integer",
			args(capability.Arg("path", "string", "File path relative to the template")),
			`{{ file_size("dist/app.js") }}`,
			func(ctx *execution.Context, a capability.Args) (any, error) {
				info, err := statPath(ctx, a)
				if err != nil {
					return nil, err
				}
				return info.Size(), nil
			}),
		fileFunc("file_modified", "Modification time of a file as RFC 3339", "string",
			args(capability.Arg("path", "string", "File path relative to the template")),
			`{{ file_modified("CHANGELOG.md") }}`,
			func(ctx *execution.Context, a capability.Args) (any, error) {
				info, err := statPath(ctx, a)
				if err != nil {
					return nil, err
				}
				return info.ModTime().UTC().Format(time.RFC3339), nil
			}),
		fileFunc("read_json", "Read and decode a JSON file", "object",
			args(capability.Arg("path", "string", "File path relative to the template")),
			`{{ read_json("package.json").version }}`,
			decodeFile(decodeJSON)),
		fileFunc("read_yaml", "Read and decode a YAML file", "object",
			args(capability.Arg("path", "string", "File path relative to the template")),
			`{{ read_yaml("values.yaml").image.tag }}`,
			decodeFile(decodeYAML)),
		fileFunc("read_toml", "Read and decode a TOML file", "object",
			args(capability.Arg("path", "string", "File path relative to the template")),
			`{{ read_toml("Cargo.toml").package.name }}`,
			decodeFile(decodeTOML)),
		fileFunc("read_dotenv", "Read a .env file into an object", "object",
			args(capability.OptArg("path", "string", ".env", "File path relative to the template")),
			`{{ read_dotenv().DATABASE_URL }}`,
			func(ctx *execution.Context, a capability.Args) (any, error) {
				path, err := a.StringOr("path", ".env")
				if err != nil {
					return nil, err
				}
				data, err := ctx.ReadFile(path)
				if err != nil {
					return nil, err
				}
				env, err := gotenv.StrictParse(bytes.NewReader(data))
				if err != nil {
					return nil, tterrors.NewDomainError("invalid dotenv file "+path, err)
				}
				return normalize(map[string]string(env)), nil
			}),
		fileTest("is_file", "Test whether a path names a regular file", "config.json",
			func(info fs.FileInfo) bool { return info.Mode().IsRegular() }),
		fileTest("is_dir", "Test whether a path names a directory", "templates",
			func(info fs.FileInfo) bool { return info.IsDir() }),
		&capability.ContextPredicate{
			Meta: describe("is_symlink", CategoryFilesystem, "Test whether a path names a symbolic link", "boolean",
				capability.FunctionAndTest,
				args(capability.Arg("path", "string", "Path relative to the template")),
				`{{ is_symlink("current") }}`,
				`{% if "current"|is_symlink %}link{% endif %}`,
			),
			Check: func(ctx *execution.Context, value any) (bool, error) {
				path, err := stringInput("path", value)
				if err != nil {
					return false, err
				}
				info, lstatCalled, err := ctx.Lstat(path)
				if err != nil {
					return false, absentIsFalse(err)
				}
				return lstatCalled && info.Mode()&fs.ModeSymlink != 0, nil
			},
		},
	}
}

func fileFunc(name, description, returns string, params []capability.Argument, example string,
	fn func(*execution.Context, capability.Args) (any, error)) *capability.ContextFunc {
	return &capability.ContextFunc{
		Meta: describe(name, CategoryFilesystem, description, returns, capability.FunctionOnly, params, example),
		Fn:   fn,
	}
}

func fileTest(name, description, example string, check func(fs.FileInfo) bool) *capability.ContextPredicate {
	return &capability.ContextPredicate{
		Meta: describe(name, CategoryFilesystem, description, "boolean",
			capability.FunctionAndTest,
			args(capability.Arg("path", "string", "Path relative to the template")),
			`{{ `+name+`("`+example+`") }}`,
			`{% if "`+example+`"|`+name+` %}yes{% endif %}`,
		),
		Check: func(ctx *execution.Context, value any) (bool, error) {
			path, err := stringInput("path", value)
			if err != nil {
				return false, err
			}
			info, err := ctx.Stat(path)
			if err != nil {
				return false, absentIsFalse(err)
			}
			return check(info), nil
		},
	}
}

// absentIsFalse lets existence tests answer false for missing paths while
// still reporting sandbox violations and other failures.
func absentIsFalse(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func readPath(ctx *execution.Context, a capability.Args) ([]byte, error) {
	path, err := a.String("path")
	if err != nil {
		return nil, err
	}
	return ctx.ReadFile(path)
}

func statPath(ctx *execution.Context, a capability.Args) (fs.FileInfo, error) {
	path, err := a.String("path")
	if err != nil {
		return nil, err
	}
	return ctx.Stat(path)
}

func readLines(ctx *execution.Context, a capability.Args) (any, error) {
	limit, err := a.IntOr("max", 0)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, tterrors.NewArgumentError("max", "must not be negative")
	}
	data, err := readPath(ctx, a)
	if err != nil {
		return nil, err
	}

	lines := []string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if limit > 0 && len(lines) == limit {
			break
		}
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, tterrors.NewDomainError("reading lines", err)
	}
	return lines, nil
}

func decodeFile(decode func([]byte) (any, error)) func(*execution.Context, capability.Args) (any, error) {
	return func(ctx *execution.Context, a capability.Args) (any, error) {
		data, err := readPath(ctx, a)
		if err != nil {
			return nil, err
		}
		return decode(data)
	}
}

func decodeJSON(data []byte) (any, error) {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, tterrors.NewDomainError("invalid JSON", err)
	}
	return out, nil
}

func decodeYAML(data []byte) (any, error) {
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, tterrors.NewDomainError("invalid YAML", err)
	}
	return normalize(out), nil
}

func decodeTOML(data []byte) (any, error) {
	var out map[string]any
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, tterrors.NewDomainError("invalid TOML", err)
	}
	return normalize(out), nil
}
