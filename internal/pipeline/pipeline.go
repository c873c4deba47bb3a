package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"hiveform-gen/internal/config"
	"hiveform-gen/internal/diagnostic"
	"hiveform-gen/internal/gen"
	"hiveform-gen/internal/resolve"
	"hiveform-gen/internal/scan"
	"hiveform-gen/internal/source"
	"hiveform-gen/internal/watch"
)

// ErrNoSources is returned when scanning finds no source files.
var ErrNoSources = errors.New("no source files found")

// Pipeline runs the generator over one configured project.
// The loader cache is kept between runs, so repeated runs (watch mode)
// reparse only changed files.
type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	scanner   *scan.Scanner
	loader    *source.Loader
	generator *gen.Generator
}

// Report is the outcome of one run.
type Report struct {
	RunID uuid.UUID
	// Sources are the scanned files.
	Sources []string
	// Parsed is the number of files loaded successfully.
	Parsed     int
	Resolution *resolve.Result
	Files      []gen.GeneratedFile
	Writes     []gen.WriteResult
	// Diagnostics merges load, resolve, render and write diagnostics.
	Diagnostics diagnostic.Diagnostics
	Duration    time.Duration
}

// New creates a Pipeline. A nil logger discards output.
func New(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := scan.Options{
		Roots:      cfg.SourceRoots(),
		Extensions: cfg.Extensions,
		Include:    cfg.Include,
		Exclude:    append(slices.Clone(cfg.Exclude), outputExcludes(cfg)...),
	}

	if !cfg.Colocate {
		opts.SkipDirs = []string{cfg.OutputPath()}
	}

	scanner, err := scan.NewScanner(opts)
	if err != nil {
		return nil, fmt.Errorf("compiling scan patterns: %w", err)
	}

	return &Pipeline{
		cfg:     cfg,
		logger:  logger,
		scanner: scanner,
		loader: source.NewLoader(
			source.WithConcurrency(cfg.Concurrency),
			source.WithLogger(logger),
		),
		generator: gen.NewGenerator(cfg.GeneratorConfig()),
	}, nil
}

// outputExcludes keeps generated modules out of the scan.
func outputExcludes(cfg *config.Config) []string {
	if !cfg.Colocate {
		return nil
	}

	dir := strings.Trim(filepath.ToSlash(cfg.OutputDir), "/")
	if dir == "" || dir == "." {
		return nil
	}

	return []string{path.Join("**", dir, "**")}
}

// Analyze scans, loads and resolves without generating anything.
func (p *Pipeline) Analyze(ctx context.Context) (*Report, error) {
	start := time.Now()

	sources, err := p.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning sources: %w", err)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSources, strings.Join(p.cfg.SourceRoots(), ", "))
	}

	p.logger.Debug("scanned sources", slog.Int("files", len(sources)))

	index, loadDiags, err := p.loader.Load(ctx, sources)
	if err != nil {
		return nil, err
	}

	res, err := resolve.NewResolver(index, p.cfg.ResolverConfig(), p.logger).Run()
	if err != nil {
		return nil, fmt.Errorf("resolving forms: %w", err)
	}

	report := &Report{
		RunID:      res.RunID,
		Sources:    sources,
		Parsed:     index.Len(),
		Resolution: res,
		Duration:   time.Since(start),
	}
	report.Diagnostics.Merge(loadDiags)
	report.Diagnostics.Merge(res.Diagnostics)

	return report, nil
}

// Generate runs a full generation and writes changed modules.
// With dryRun nothing is written; Writes reports what would change.
func (p *Pipeline) Generate(ctx context.Context, dryRun bool) (*Report, error) {
	start := time.Now()

	report, err := p.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	files, renderDiags := p.generator.Generate(report.Resolution.Registry)
	report.Files = files
	report.Diagnostics.Merge(renderDiags)

	writes, writeDiags := gen.Writer{DryRun: dryRun}.WriteFiles(files)
	report.Writes = writes
	report.Diagnostics.Merge(writeDiags)
	report.Duration = time.Since(start)

	for _, w := range writes {
		switch w.Status {
		case gen.StatusWritten:
			p.logger.Info("generated form module",
				slog.String("file", w.File.Path()),
				slog.String("contexts", strings.Join(w.File.Contexts(), ",")),
				slog.Int("fields", w.File.FieldCount()),
				slog.Bool("dryRun", dryRun))
		case gen.StatusUnchanged:
			p.logger.Debug("no changes needed", slog.String("file", w.File.Path()))
		case gen.StatusFailed:
			p.logger.Error("writing form module failed",
				slog.String("file", w.File.Path()),
				slog.String("error", w.Err.Error()))
		}
	}

	p.logger.Info("generation finished",
		slog.String("run", report.RunID.String()),
		slog.Int("sources", len(report.Sources)),
		slog.Int("contexts", report.Resolution.Registry.Len()),
		slog.Int("written", gen.Count(writes, gen.StatusWritten)),
		slog.Int("unchanged", gen.Count(writes, gen.StatusUnchanged)),
		slog.Int("failed", gen.Count(writes, gen.StatusFailed)),
		slog.Duration("duration", report.Duration))

	return report, nil
}

// Watch generates once and then again after every batch of source changes,
// until ctx is cancelled.
func (p *Pipeline) Watch(ctx context.Context, debounce time.Duration) error {
	if _, err := p.Generate(ctx, false); err != nil {
		if !errors.Is(err, ErrNoSources) {
			return err
		}

		p.logger.Warn("initial generation skipped", slog.String("error", err.Error()))
	}

	roots := watchRoots(p.cfg.SourceRoots())

	w, err := watch.New(watch.Options{
		Roots:    roots,
		Debounce: debounce,
		Logger:   p.logger,
		Accept: func(file string) bool {
			root := rootOf(roots, file)
			return root != "" && p.scanner.Match(root, file)
		},
		SkipDir: func(dir string) bool {
			root := rootOf(roots, dir)
			return root != "" && p.scanner.SkipsDir(root, dir)
		},
	})
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	p.logger.Info("watching for changes", slog.String("roots", strings.Join(roots, ", ")))

	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		p.logger.Info("sources changed", slog.Int("files", len(changed)))

		report, err := p.Generate(ctx, false)
		if err != nil {
			return err
		}

		return report.Diagnostics.Error()
	})
}

// watchRoots turns single-file roots into their directories.
func watchRoots(roots []string) []string {
	out := make([]string, 0, len(roots))

	for _, r := range roots {
		if info, err := os.Stat(r); err == nil && !info.IsDir() {
			r = filepath.Dir(r)
		}

		out = append(out, r)
	}

	return out
}

// rootOf returns the longest root containing path.
func rootOf(roots []string, path string) string {
	best := ""

	for _, r := range roots {
		rel, err := filepath.Rel(r, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}

		if len(r) > len(best) {
			best = r
		}
	}

	return best
}
