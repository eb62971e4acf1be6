// Package internal contains the implementation packages for tmpltool.
//
// # Package Organization
//
//   - capability: the five capability shapes, argument binding and metadata
//   - builtins: the built-in capabilities, grouped by category
//   - registry: the ordered capability set, engine registration and metadata export
//   - engine: the pongo2 template engine adapter
//   - execution: per-render context carrying the base directory and sandbox settings
//   - validation: path, argument and command checks used by the sandbox
//   - errors: typed errors, classification and exit codes
//   - config: viper-backed configuration
//   - logging: structured logging on log/slog
//   - watcher: fsnotify-based re-rendering for the watch command
//   - version: build information
//   - testutils: fixtures shared by the tests
//
// # Rendering
//
// A render builds an execution context for the template, registers every
// capability from the registry on a fresh engine bound to that context,
// and executes the template. Capabilities that touch the filesystem or run
// commands take the context and resolve every path through it, so the
// sandbox rules apply to every file access.
//
// # Errors
//
// Security violations exit with code 3, argument errors with code 2 and
// everything else with code 1. Classification looks through the whole
// error chain, so capability errors keep their class after the engine
// wraps them.
package internal
