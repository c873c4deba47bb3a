package resolve

import (
	"errors"
	"fmt"
	"log/slog"

	"hiveform-gen/internal/markup"
	"hiveform-gen/internal/source"
)

// Defaults for Config.
const (
	DefaultFallbackContext   = "OrphanFields"
	DefaultSynthesizedPrefix = "HiveForm"
)

// ErrNoIndex is returned when a Resolver has nothing to resolve against.
var ErrNoIndex = errors.New("source index is required")

// Config holds configuration for the resolution process.
type Config struct {
	// Classifier decides which tags are containers, fields and references.
	Classifier markup.Classifier
	// FallbackContext collects fields with no enclosing container.
	FallbackContext string
	// SynthesizedPrefix is prepended to the run counter for anonymous containers.
	SynthesizedPrefix string
}

// DefaultConfig returns the default resolution configuration.
func DefaultConfig() Config {
	return Config{
		Classifier:        markup.DefaultClassifier(),
		FallbackContext:   DefaultFallbackContext,
		SynthesizedPrefix: DefaultSynthesizedPrefix,
	}
}

// DefinitionIndex resolves component names to their declarations.
// Implementations must be safe for concurrent read-only use.
type DefinitionIndex interface {
	Units() []*source.SourceUnit
	Resolve(from *source.SourceUnit, name string) []*source.Declaration
}

// Resolver groups fields into contexts over a DefinitionIndex.
type Resolver struct {
	index  DefinitionIndex
	config Config
	logger *slog.Logger
}

// NewResolver creates a new Resolver. A nil logger discards output.
func NewResolver(index DefinitionIndex, config Config, logger *slog.Logger) *Resolver {
	if config.FallbackContext == "" {
		config.FallbackContext = DefaultFallbackContext
	}

	if config.SynthesizedPrefix == "" {
		config.SynthesizedPrefix = DefaultSynthesizedPrefix
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Resolver{index: index, config: config, logger: logger}
}

// Run resolves every loaded unit as a root.
func (r *Resolver) Run() (*Result, error) {
	if r.index == nil {
		return nil, ErrNoIndex
	}

	return r.RunUnits(r.index.Units())
}

// RunUnits resolves the given units as roots with a fresh RunState.
// References may still expand into any unit of the index.
func (r *Resolver) RunUnits(roots []*source.SourceUnit) (*Result, error) {
	if r.index == nil {
		return nil, ErrNoIndex
	}

	st := NewRunState()

	r.AssignContexts(roots, st)

	for _, unit := range roots {
		for _, root := range unit.Roots {
			r.walk(root.Node, unit, nil, root.Origin, st)
		}
	}

	reg := Finalize(st.raw, st.expanded)

	r.logger.Debug("resolution finished",
		slog.String("run", st.ID.String()),
		slog.Int("roots", len(roots)),
		slog.Int("contexts", reg.Len()),
		slog.Int("occurrences", st.raw.Len()),
		slog.Int("expansions", st.expansions))

	return &Result{
		RunID:       st.ID,
		Registry:    reg,
		Containers:  st.containers,
		Expansions:  st.expansions,
		Diagnostics: st.diags,
	}, nil
}

// AssignContexts gives every container in units a context, in document
// order, before any walking happens.
func (r *Resolver) AssignContexts(units []*source.SourceUnit, st *RunState) {
	for _, unit := range units {
		for _, root := range unit.Roots {
			root.Node.Walk(func(n *source.MarkupNode) bool {
				if r.config.Classifier.Classify(n) == markup.KindContainer {
					r.containerContext(n, st)
				}

				return true
			})
		}
	}
}

// containerContext returns the context assigned to a container, assigning
// one if the pre-pass did not see it.
func (r *Resolver) containerContext(n *source.MarkupNode, st *RunState) Context {
	if ctx, ok := st.assigned[n.ID]; ok {
		return ctx
	}

	ctx, ok := explicitContext(n)
	if !ok {
		ctx = Context{
			ID:   st.synthesize(r.config.SynthesizedPrefix),
			Kind: ContextSynthesized,
			Loc:  n.Loc,
		}
	}

	st.assigned[n.ID] = ctx
	st.containers = append(st.containers, Container{Node: n.ID, Loc: n.Loc, Context: ctx})

	return ctx
}

func (r *Resolver) walk(n *source.MarkupNode, unit *source.SourceUnit, active *Context, origin source.NodeID, st *RunState) {
	switch r.config.Classifier.Classify(n) {
	case markup.KindContainer:
		ctx := r.containerContext(n, st)
		active = &ctx
	case markup.KindField:
		r.registerField(n, active, origin, st)
	case markup.KindReference:
		r.expand(n, unit, active, origin, st)
	case markup.KindIrrelevant:
	}

	for _, c := range n.Children {
		r.walk(c, unit, active, origin, st)
	}
}

func (r *Resolver) registerField(n *source.MarkupNode, active *Context, origin source.NodeID, st *RunState) {
	name, _ := markup.FieldName(n)
	entry := rawEntry{
		field:  FieldDescriptor{Name: name, Optional: markup.IsOptional(n)},
		origin: origin,
	}

	target, ok := explicitContext(n)
	switch {
	case ok:
	case active != nil:
		target = *active
	default:
		target = Context{ID: r.config.FallbackContext, Kind: ContextFallback, Loc: n.Loc}
		entry.fallback = true
	}

	st.raw.register(target, entry, &st.diags)
}

func (r *Resolver) expand(n *source.MarkupNode, unit *source.SourceUnit, active *Context, origin source.NodeID, st *RunState) {
	defs := r.index.Resolve(unit, n.Tag)
	if len(defs) == 0 {
		r.reportUnresolved(n, unit, active, st)
		return
	}

	base := visitKey{origin: origin}
	if active != nil {
		base = visitKey{active: active.ID}
	}

	for _, def := range defs {
		key := base
		key.def = def.ID
		if st.visited[key] {
			continue
		}

		st.visited[key] = true
		st.expanded[def.ID] = true
		st.expansions++

		for _, root := range def.Roots {
			r.walk(root, def.Unit, active, origin, st)
		}
	}
}

func (r *Resolver) reportUnresolved(n *source.MarkupNode, unit *source.SourceUnit, active *Context, st *RunState) {
	key := unit.Path + "\x00" + n.Tag
	if st.unresolved[key] {
		return
	}
	st.unresolved[key] = true

	ctxID := ""
	if active != nil {
		ctxID = active.ID
	}

	st.diags.AddInfo(CodeUnresolvedReference,
		fmt.Sprintf("no definition found for <%s> at %s", n.Tag, n.Loc), unit.Path, ctxID)
}

// explicitContext reads a context attribute written on n.
func explicitContext(n *source.MarkupNode) (Context, bool) {
	id, ok := markup.ContextOf(n)
	if !ok {
		return Context{}, false
	}

	kind := ContextExplicit
	if v, _ := n.Attr(markup.AttrContext); v.Kind == source.AttrExpression {
		kind = ContextExpression
	}

	return Context{ID: id, Kind: kind, Loc: n.Loc}, true
}
