package source

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// resolvableExtensions are tried, in order, when an import specifier has no
// extension or points at a directory.
var resolvableExtensions = []string{".tsx", ".ts", ".jsx", ".js"}

// Index is the loaded set of SourceUnits. All lookups are read-only with
// respect to the units; memoized results are guarded by a mutex, so an Index
// is safe for concurrent queries.
type Index struct {
	units map[string]*SourceUnit
	order []*SourceUnit

	mu       sync.Mutex
	resolved map[resolveKey][]*Declaration
}

type resolveKey struct {
	file string
	name string
}

// NewIndex builds an Index from units. Units are ordered by path.
func NewIndex(units ...*SourceUnit) *Index {
	idx := &Index{
		units:    make(map[string]*SourceUnit, len(units)),
		resolved: make(map[resolveKey][]*Declaration),
	}

	for _, u := range units {
		if u == nil {
			continue
		}

		idx.units[filepath.Clean(u.Path)] = u
	}

	for _, u := range idx.units {
		idx.order = append(idx.order, u)
	}

	slices.SortFunc(idx.order, func(a, b *SourceUnit) int {
		return strings.Compare(a.Path, b.Path)
	})

	return idx
}

// Units returns all units in ascending path order.
func (x *Index) Units() []*SourceUnit {
	return x.order
}

// Unit returns the unit loaded from path, or nil.
func (x *Index) Unit(path string) *SourceUnit {
	return x.units[filepath.Clean(path)]
}

// Len returns the number of loaded units.
func (x *Index) Len() int {
	return len(x.order)
}

// Resolve returns the definitions a tag name refers to from within unit from.
// It understands local declarations, named/default/namespace imports and
// re-exports between loaded files. Names that lead outside the loaded set
// (package imports, missing files) resolve to nothing.
func (x *Index) Resolve(from *SourceUnit, name string) []*Declaration {
	if from == nil || name == "" {
		return nil
	}

	key := resolveKey{file: from.Path, name: name}

	x.mu.Lock()
	if defs, ok := x.resolved[key]; ok {
		x.mu.Unlock()
		return defs
	}
	x.mu.Unlock()

	defs := x.resolveTag(from, name)

	x.mu.Lock()
	x.resolved[key] = defs
	x.mu.Unlock()

	return defs
}

func (x *Index) resolveTag(from *SourceUnit, tag string) []*Declaration {
	head, rest := splitTag(tag)
	seen := make(map[string]bool)

	if rest == "" {
		return x.resolveLocal(from, head, seen)
	}

	// Ns.Member: either an imported namespace or a local object of components.
	if imp, ok := from.ImportFor(head); ok && imp.Namespace {
		target := x.resolveSpecifier(from.Path, imp.Specifier)
		if target == nil {
			return nil
		}

		return x.lookupExport(target, rest, seen)
	}

	var out []*Declaration

	for _, owner := range x.resolveLocal(from, head, seen) {
		if m, ok := owner.Members[rest]; ok {
			out = appendUnique(out, x.follow(m, seen)...)
		}
	}

	return out
}

// resolveLocal resolves a bare name as seen from unit u.
func (x *Index) resolveLocal(u *SourceUnit, name string, seen map[string]bool) []*Declaration {
	visitKey := u.Path + "\x00local\x00" + name
	if seen[visitKey] {
		return nil
	}
	seen[visitKey] = true

	if decl, ok := u.Decls[name]; ok {
		return x.follow(decl, seen)
	}

	imp, ok := u.ImportFor(name)
	if !ok || imp.Namespace {
		return nil
	}

	target := x.resolveSpecifier(u.Path, imp.Specifier)
	if target == nil {
		return nil
	}

	return x.lookupExport(target, imp.Imported, seen)
}

// follow resolves wrapper aliases (memo(Foo)) to the wrapped declaration.
func (x *Index) follow(decl *Declaration, seen map[string]bool) []*Declaration {
	if len(decl.Roots) > 0 || decl.AliasOf == "" || decl.AliasOf == decl.Name {
		return []*Declaration{decl}
	}

	if targets := x.resolveLocal(decl.Unit, decl.AliasOf, seen); len(targets) > 0 {
		return targets
	}

	return []*Declaration{decl}
}

// lookupExport finds what unit u exports under name.
func (x *Index) lookupExport(u *SourceUnit, name string, seen map[string]bool) []*Declaration {
	visitKey := u.Path + "\x00export\x00" + name
	if seen[visitKey] {
		return nil
	}
	seen[visitKey] = true

	if name == "default" && u.DefaultDecl != nil {
		return []*Declaration{u.DefaultDecl}
	}

	if local, ok := u.Exports[name]; ok {
		if defs := x.resolveLocal(u, local, seen); len(defs) > 0 {
			return defs
		}
	}

	var out []*Declaration

	for _, re := range u.ReExports {
		if !re.All && re.Exported != name {
			continue
		}

		if re.All && name == "default" {
			continue
		}

		target := x.resolveSpecifier(u.Path, re.Specifier)
		if target == nil {
			continue
		}

		imported := re.Imported
		if re.All {
			imported = name
		}

		out = appendUnique(out, x.lookupExport(target, imported, seen)...)
	}

	return out
}

// resolveSpecifier maps a relative module specifier to a loaded unit.
func (x *Index) resolveSpecifier(fromPath, spec string) *SourceUnit {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") && spec != "." && spec != ".." {
		return nil
	}

	base := filepath.Join(filepath.Dir(fromPath), filepath.FromSlash(spec))

	candidates := []string{base}

	// ESM-style TypeScript imports name the emitted .js file.
	if ext := filepath.Ext(base); ext == ".js" || ext == ".jsx" {
		stem := strings.TrimSuffix(base, ext)
		for _, e := range resolvableExtensions {
			candidates = append(candidates, stem+e)
		}
	}

	for _, e := range resolvableExtensions {
		candidates = append(candidates, base+e)
	}

	for _, e := range resolvableExtensions {
		candidates = append(candidates, filepath.Join(base, "index"+e))
	}

	for _, c := range candidates {
		if u := x.Unit(c); u != nil {
			return u
		}
	}

	return nil
}

func appendUnique(out []*Declaration, defs ...*Declaration) []*Declaration {
	for _, d := range defs {
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}

	return out
}
