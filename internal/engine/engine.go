// Package engine defines the three registration primitives the capability
// registry needs from a template engine, with a pongo2-backed
// implementation used for rendering and an in-memory Recorder used for
// listing and tests.
package engine

import (
	"fmt"
	"sort"
)

// Function is a callable registered under a name. Templates may pass
// arguments positionally, by keyword, or both.
type Function func(args []any, kwargs map[string]any) (any, error)

// Filter transforms a piped value. args and kwargs exclude the piped value.
type Filter func(value any, args []any, kwargs map[string]any) (any, error)

// Test is a boolean predicate used after "is" / "is not". It never fails.
type Test func(value any) bool

// Engine is the collaborator the registry binds capabilities into.
type Engine interface {
	RegisterFunction(name string, fn Function) error
	RegisterFilter(name string, fn Filter) error
	RegisterTest(name string, fn Test) error
}

// Surface names one of the registration primitives.
type Surface string

const (
	SurfaceFunction Surface = "function"
	SurfaceFilter   Surface = "filter"
	SurfaceTest     Surface = "test"
)

// Recorder is an Engine that keeps registrations in memory.
type Recorder struct {
	functions map[string]Function
	filters   map[string]Filter
	tests     map[string]Test
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		functions: make(map[string]Function),
		filters:   make(map[string]Filter),
		tests:     make(map[string]Test),
	}
}

// RegisterFunction records fn under name.
func (r *Recorder) RegisterFunction(name string, fn Function) error {
	if _, exists := r.functions[name]; exists {
		return fmt.Errorf("function %q already registered", name)
	}
	r.functions[name] = fn
	return nil
}

// RegisterFilter records fn under name.
func (r *Recorder) RegisterFilter(name string, fn Filter) error {
	if _, exists := r.filters[name]; exists {
		return fmt.Errorf("filter %q already registered", name)
	}
	r.filters[name] = fn
	return nil
}

// RegisterTest records fn under name.
func (r *Recorder) RegisterTest(name string, fn Test) error {
	if _, exists := r.tests[name]; exists {
		return fmt.Errorf("test %q already registered", name)
	}
	r.tests[name] = fn
	return nil
}

// Function returns the function registered under name.
func (r *Recorder) Function(name string) (Function, bool) {
	fn, ok := r.functions[name]
	return fn, ok
}

// Filter returns the filter registered under name.
func (r *Recorder) Filter(name string) (Filter, bool) {
	fn, ok := r.filters[name]
	return fn, ok
}

// Test returns the test registered under name.
func (r *Recorder) Test(name string) (Test, bool) {
	fn, ok := r.tests[name]
	return fn, ok
}

// Names returns the sorted names registered on a surface.
func (r *Recorder) Names(surface Surface) []string {
	var names []string
	switch surface {
	case SurfaceFunction:
		for name := range r.functions {
			names = append(names, name)
		}
	case SurfaceFilter:
		for name := range r.filters {
			names = append(names, name)
		}
	case SurfaceTest:
		for name := range r.tests {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
