// Package pipeline wires scanning, loading, resolution and emission into
// the generate, inspect and watch runs used by the CLI.
package pipeline
