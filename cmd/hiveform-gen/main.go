// Package main provides the CLI entrypoint for hiveform-gen.
//
// hiveform-gen scans TSX/JSX sources for HiveForm markup, attributes every
// Field to its form context across component boundaries, and writes one
// typed form module (type, zod schema, default values, config) per context.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
