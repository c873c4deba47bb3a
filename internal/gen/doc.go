// Package gen renders finalized forms into TypeScript modules and writes them.
//
// Each module holds, per form, a type, a zod schema, a default-value record,
// and a config object referencing the three plus the raw field list. Blocks
// are produced by text/template and joined with fixed separators so output is
// byte-stable across runs.
//
// Writes are skipped when a file already holds identical content.
package gen
