// Package builtins is the library of capabilities tmpltool exposes to
// templates. Each file contributes one category; All returns the complete,
// ordered set the registry validates and binds.
//
// Capabilities that touch the filesystem go through the execution context,
// which applies the path sandbox before any I/O.
package builtins

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/conneroisu/tmpltool/internal/capability"
)

// Categories.
const (
	CategoryHash       = "hash"
	CategoryEncoding   = "encoding"
	CategoryString     = "string"
	CategoryDatetime   = "datetime"
	CategoryFilesystem = "filesystem"
	CategoryNetwork    = "network"
	CategoryObject     = "object"
	CategoryPredicate  = "predicate"
	CategoryVersion    = "version"
	CategoryLogic      = "logic"
	CategoryMath       = "math"
	CategorySystem     = "system"
	CategoryDebug      = "debug"
	CategoryExec       = "exec"
)

// All returns every built-in capability, grouped by category.
func All() []capability.Capability {
	groups := [][]capability.Capability{
		hashCapabilities(),
		encodingCapabilities(),
		stringCapabilities(),
		datetimeCapabilities(),
		filesystemCapabilities(),
		networkCapabilities(),
		objectCapabilities(),
		predicateCapabilities(),
		versionCapabilities(),
		logicCapabilities(),
		mathCapabilities(),
		systemCapabilities(),
		debugCapabilities(),
		execCapabilities(),
	}

	var all []capability.Capability
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

func describe(name, category, description, returns string, syntax capability.Syntax,
	args []capability.Argument, examples ...string) capability.Metadata {
	return capability.Metadata{
		Name:        name,
		Category:    category,
		Description: description,
		Arguments:   args,
		ReturnType:  returns,
		Examples:    examples,
		Syntax:      syntax,
	}
}

func args(a ...capability.Argument) []capability.Argument {
	return a
}

// stringInput accepts only actual strings; predicates rely on this so a
// number is never mistaken for, say, an email address.
func stringInput(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", capability.TypeError(name, "string", v)
	}
	return s, nil
}

// objectInput converts v into a string-keyed map.
func objectInput(name string, v any) (map[string]any, error) {
	switch m := normalize(v).(type) {
	case map[string]any:
		return m, nil
	default:
		return nil, capability.TypeError(name, "object", v)
	}
}

// listInput converts v into a list.
func listInput(name string, v any) ([]any, error) {
	switch l := normalize(v).(type) {
	case []any:
		return l, nil
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, capability.TypeError(name, "list", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// normalize rewrites decoder output into map[string]any and []any trees.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
