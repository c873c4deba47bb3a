package resolve

import (
	"fmt"

	"hiveform-gen/internal/diagnostic"
	"hiveform-gen/internal/source"
)

// rawEntry is one field occurrence before merging.
type rawEntry struct {
	field FieldDescriptor
	// origin is the top-level declaration the walk started from.
	origin source.NodeID
	// fallback is set when the field landed in the fallback bucket because no
	// container was active.
	fallback bool
}

// RawRegistry collects field occurrences during a walk, duplicates included.
type RawRegistry struct {
	order    []string
	info     map[string]Context
	entries  map[string][]rawEntry
	collided map[string]bool
}

// NewRawRegistry creates an empty RawRegistry.
func NewRawRegistry() *RawRegistry {
	return &RawRegistry{
		info:     make(map[string]Context),
		entries:  make(map[string][]rawEntry),
		collided: make(map[string]bool),
	}
}

// Len returns the number of raw occurrences across all contexts.
func (r *RawRegistry) Len() int {
	n := 0
	for _, e := range r.entries {
		n += len(e)
	}

	return n
}

func (r *RawRegistry) register(ctx Context, entry rawEntry, diags *diagnostic.Diagnostics) {
	existing, ok := r.info[ctx.ID]
	if !ok {
		r.order = append(r.order, ctx.ID)
		r.info[ctx.ID] = ctx
	} else if collides(existing.Kind, ctx.Kind) && !r.collided[ctx.ID] {
		r.collided[ctx.ID] = true
		diags.AddWarning(CodeContextCollision,
			fmt.Sprintf("context %q is used both as a %s and a %s identifier (%s, %s); fields are merged",
				ctx.ID, existing.Kind, ctx.Kind, existing.Loc, ctx.Loc),
			ctx.Loc.File, ctx.ID)
	}

	r.entries[ctx.ID] = append(r.entries[ctx.ID], entry)
}

func collides(a, b ContextKind) bool {
	if a.reserved() || b.reserved() {
		return a != b
	}

	return false
}

// FormRegistry maps contexts to their unique fields. Contexts keep the order
// of their first registration and fields keep first-seen order.
type FormRegistry struct {
	order  []string
	info   map[string]Context
	fields map[string][]FieldDescriptor
	index  map[string]map[string]int
}

// NewFormRegistry creates an empty FormRegistry.
func NewFormRegistry() *FormRegistry {
	return &FormRegistry{
		info:   make(map[string]Context),
		fields: make(map[string][]FieldDescriptor),
		index:  make(map[string]map[string]int),
	}
}

// Add merges fields into ctx. A name already present keeps its position and
// becomes optional if either occurrence is optional.
func (r *FormRegistry) Add(ctx Context, fields ...FieldDescriptor) {
	if _, ok := r.info[ctx.ID]; !ok {
		r.order = append(r.order, ctx.ID)
		r.info[ctx.ID] = ctx
		r.index[ctx.ID] = make(map[string]int)
	}

	positions := r.index[ctx.ID]
	for _, f := range fields {
		if i, ok := positions[f.Name]; ok {
			r.fields[ctx.ID][i].Optional = r.fields[ctx.ID][i].Optional || f.Optional
			continue
		}

		positions[f.Name] = len(r.fields[ctx.ID])
		r.fields[ctx.ID] = append(r.fields[ctx.ID], f)
	}
}

// Contexts returns context identifiers in first-registration order.
func (r *FormRegistry) Contexts() []string {
	return r.order
}

// Fields returns the fields of a context in first-seen order.
func (r *FormRegistry) Fields(id string) []FieldDescriptor {
	return r.fields[id]
}

// Info returns the context metadata for id.
func (r *FormRegistry) Info(id string) (Context, bool) {
	ctx, ok := r.info[id]
	return ctx, ok
}

// Len returns the number of contexts.
func (r *FormRegistry) Len() int {
	return len(r.order)
}

// Forms returns every context with its fields, in registry order.
func (r *FormRegistry) Forms() []Form {
	forms := make([]Form, 0, len(r.order))
	for _, id := range r.order {
		forms = append(forms, Form{Context: r.info[id], Fields: r.fields[id]})
	}

	return forms
}

// Finalize merges raw occurrences into a FormRegistry.
// Fallback occurrences whose origin declaration was expanded through a
// reference are dropped: those fields are attributed at the call sites.
func Finalize(raw *RawRegistry, expanded map[source.NodeID]bool) *FormRegistry {
	reg := NewFormRegistry()

	for _, id := range raw.order {
		var fields []FieldDescriptor

		for _, e := range raw.entries[id] {
			if e.fallback && !e.origin.IsZero() && expanded[e.origin] {
				continue
			}

			fields = append(fields, e.field)
		}

		if len(fields) == 0 {
			continue
		}

		reg.Add(raw.info[id], fields...)
	}

	return reg
}
