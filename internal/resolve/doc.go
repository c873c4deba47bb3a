// Package resolve groups <Field> declarations into form contexts.
//
// A run has three phases:
//   - assign a context to every container up front, in document order,
//     so synthesized identifiers do not depend on walk order;
//   - walk every loaded file, expanding component references through the
//     source index with the caller's active context;
//   - finalize the raw registrations into a FormRegistry, merging duplicate
//     names within a context.
//
// All mutable state of a run lives in a RunState owned by that run, so
// independent runs over the same index may execute in parallel.
package resolve
