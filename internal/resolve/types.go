package resolve

import (
	"github.com/google/uuid"

	"hiveform-gen/internal/diagnostic"
	"hiveform-gen/internal/source"
)

// Diagnostic codes emitted during resolution.
const (
	CodeUnresolvedReference = "UNRESOLVED_REFERENCE"
	CodeContextCollision    = "CONTEXT_COLLISION"
)

// ContextKind records where a context identifier came from.
type ContextKind int

const (
	// ContextExplicit is a literal context attribute.
	ContextExplicit ContextKind = iota
	// ContextExpression is a non-literal context attribute, kept as source text.
	ContextExpression
	// ContextSynthesized is assigned to containers without a context attribute.
	ContextSynthesized
	// ContextFallback is the bucket for fields outside any container.
	ContextFallback
)

// String returns a human-readable representation of the ContextKind.
func (k ContextKind) String() string {
	switch k {
	case ContextExplicit:
		return "explicit"
	case ContextExpression:
		return "expression"
	case ContextSynthesized:
		return "synthesized"
	case ContextFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ContextKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// reserved reports whether identifiers of this kind are generated rather
// than written by an author.
func (k ContextKind) reserved() bool {
	return k == ContextSynthesized || k == ContextFallback
}

// Context is a form grouping identifier together with where it was first seen.
type Context struct {
	ID   string          `json:"id"`
	Kind ContextKind     `json:"kind"`
	Loc  source.Location `json:"-"`
}

// File returns the file that first declared the context.
func (c Context) File() string {
	return c.Loc.File
}

// FieldDescriptor is one field of a form.
type FieldDescriptor struct {
	Name     string `json:"name"`
	Optional bool   `json:"optional"`
}

// Form is a finalized context and its fields.
type Form struct {
	Context Context           `json:"context"`
	Fields  []FieldDescriptor `json:"fields"`
}

// Container is one form boundary found in the sources.
type Container struct {
	Node    source.NodeID
	Loc     source.Location
	Context Context
}

// Result is the outcome of one resolution run.
type Result struct {
	RunID      uuid.UUID
	Registry   *FormRegistry
	Containers []Container
	// Expansions counts reference expansions performed.
	Expansions  int
	Diagnostics diagnostic.Diagnostics
}
