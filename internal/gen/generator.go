package gen

import (
	"path/filepath"
	"strings"

	"hiveform-gen/internal/diagnostic"
	"hiveform-gen/internal/resolve"
)

// CodeRenderFailed marks a module that could not be rendered.
const CodeRenderFailed = "RENDER_FAILED"

// sharedFilename receives synthesized and fallback contexts.
const sharedFilename = "index.tsx"

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// OutputDir is the directory generated modules are written to. With
	// Colocate it is relative to the directory of each context's source file.
	OutputDir string
	// Colocate places each module next to the file that declared its context.
	Colocate bool
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		OutputDir: "form",
		Colocate:  true,
	}
}

// Generator turns a FormRegistry into module files.
type Generator struct {
	config GeneratorConfig
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config GeneratorConfig) *Generator {
	if config.OutputDir == "" {
		config.OutputDir = DefaultGeneratorConfig().OutputDir
	}

	return &Generator{config: config}
}

// GeneratedFile represents a generated TypeScript module.
type GeneratedFile struct {
	// Dir is the output directory of the file.
	Dir string
	// Filename is the name of the file (e.g., "login.tsx").
	Filename string
	// Forms are the contexts rendered into the file, in registry order.
	Forms []resolve.Form
	// Content is the rendered module.
	Content []byte
}

// Path returns the full output path.
func (f GeneratedFile) Path() string {
	return filepath.Join(f.Dir, f.Filename)
}

// Contexts returns the context identifiers rendered into the file.
func (f GeneratedFile) Contexts() []string {
	ids := make([]string, 0, len(f.Forms))
	for _, form := range f.Forms {
		ids = append(ids, form.Context.ID)
	}

	return ids
}

// FieldCount returns the number of fields across all forms in the file.
func (f GeneratedFile) FieldCount() int {
	n := 0
	for _, form := range f.Forms {
		n += len(form.Fields)
	}

	return n
}

// Generate renders one module per output path. Contexts that map to the
// same path are rendered together in registry order. A module that fails to
// render is reported and skipped.
func (g *Generator) Generate(reg *resolve.FormRegistry) ([]GeneratedFile, diagnostic.Diagnostics) {
	var (
		diags diagnostic.Diagnostics
		files []GeneratedFile
	)

	byPath := make(map[string]int)

	for _, form := range reg.Forms() {
		file := GeneratedFile{
			Dir:      g.OutputDir(form.Context),
			Filename: Filename(form.Context),
		}

		i, ok := byPath[file.Path()]
		if !ok {
			i = len(files)
			byPath[file.Path()] = i
			files = append(files, file)
		}

		files[i].Forms = append(files[i].Forms, form)
	}

	out := files[:0]

	for _, file := range files {
		content, err := CompleteModule(file.Forms)
		if err != nil {
			diags.AddError(CodeRenderFailed, err.Error(), file.Path(), strings.Join(file.Contexts(), ","))
			continue
		}

		file.Content = []byte(content)
		out = append(out, file)
	}

	return out, diags
}

// OutputDir returns the directory a context's module is written to.
func (g *Generator) OutputDir(ctx resolve.Context) string {
	if g.config.Colocate && ctx.File() != "" && !filepath.IsAbs(g.config.OutputDir) {
		return filepath.Join(filepath.Dir(ctx.File()), g.config.OutputDir)
	}

	return filepath.Clean(g.config.OutputDir)
}

// Filename returns the module filename for a context. Synthesized and
// fallback contexts share index.tsx; others use their lowercased identifier.
func Filename(ctx resolve.Context) string {
	switch ctx.Kind {
	case resolve.ContextSynthesized, resolve.ContextFallback:
		return sharedFilename
	case resolve.ContextExplicit, resolve.ContextExpression:
	}

	return sanitizeFilename(strings.ToLower(ctx.ID)) + ".tsx"
}

// sanitizeFilename replaces characters that are unsafe in file names.
func sanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)

	s = strings.Trim(s, ".")
	if s == "" {
		return "_"
	}

	return s
}
