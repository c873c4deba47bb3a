package resolve

import (
	"strconv"

	"github.com/google/uuid"

	"hiveform-gen/internal/diagnostic"
	"hiveform-gen/internal/source"
)

// visitKey identifies one expansion: a definition walked under an active
// context. The same fragment used by two forms is walked once per form.
// Walks without an active context also key on their origin, since fallback
// entries are kept or dropped per origin at finalize.
type visitKey struct {
	def    source.NodeID
	active string
	origin source.NodeID
}

// RunState is the mutable state of a single resolution run.
// It must not be shared between runs.
type RunState struct {
	ID uuid.UUID

	counter    int
	assigned   map[source.NodeID]Context
	containers []Container

	visited    map[visitKey]bool
	expanded   map[source.NodeID]bool
	expansions int
	unresolved map[string]bool

	raw   *RawRegistry
	diags diagnostic.Diagnostics
}

// NewRunState creates a fresh RunState with a new run ID.
func NewRunState() *RunState {
	return &RunState{
		ID:         uuid.New(),
		assigned:   make(map[source.NodeID]Context),
		visited:    make(map[visitKey]bool),
		expanded:   make(map[source.NodeID]bool),
		unresolved: make(map[string]bool),
		raw:        NewRawRegistry(),
	}
}

// synthesize returns the next synthesized context identifier.
func (s *RunState) synthesize(prefix string) string {
	s.counter++
	return prefix + strconv.Itoa(s.counter)
}
