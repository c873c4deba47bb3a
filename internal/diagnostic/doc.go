// Package diagnostic provides structured errors, warnings, and notes
// collected while loading sources, resolving forms, and writing output.
//
// Diagnostics never abort a run on their own; callers decide whether
// errors are fatal.
package diagnostic
