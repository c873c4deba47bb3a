// Package source loads JSX/TSX source files and answers definition queries.
//
// It uses tree-sitter (TSX and TypeScript grammars) to parse every file once,
// then converts the syntax tree into an immutable, Go-native model so the
// tree can be released and the result shared across goroutines.
//
// Key types:
//   - SourceUnit: one parsed file (markup roots, declarations, imports, exports)
//   - MarkupNode: read-only view of a JSX element (tag, attributes, children, location)
//   - Declaration: a top-level component definition and the markup it renders
//   - Index: the loaded set of units; resolves a referenced tag name to its
//     definition(s), following imports, default exports and re-exports
package source
