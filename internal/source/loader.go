package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"golang.org/x/sync/errgroup"

	"hiveform-gen/internal/diagnostic"
)

// Diagnostic codes emitted while loading.
const (
	CodeParseFailed = "PARSE_FAILED"
)

var (
	// ErrSyntax indicates tree-sitter reported syntax errors in a file.
	ErrSyntax = errors.New("source contains syntax errors")

	// ErrInvalidContent indicates a file is not valid UTF-8.
	ErrInvalidContent = errors.New("content is not valid UTF-8")
)

// Defaults for Loader.
const (
	DefaultConcurrency = 8
	DefaultCacheSize   = 4096
)

// Loader parses source files into SourceUnits.
// Parsed units are cached by path and content hash, so repeated loads
// (watch mode) only reparse files that changed.
type Loader struct {
	concurrency int
	cache       *lru.Cache[string, *SourceUnit]
	logger      *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConcurrency bounds the number of files parsed in parallel.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLogger sets the logger used for per-file warnings.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a new Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	cache, _ := lru.New[string, *SourceUnit](DefaultCacheSize)

	l := &Loader{
		concurrency: DefaultConcurrency,
		cache:       cache,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load parses the given files and returns an Index over the ones that parsed.
// A file that cannot be read or parsed is skipped with a warning diagnostic;
// the returned error is non-nil only when ctx is cancelled.
func (l *Loader) Load(ctx context.Context, paths []string) (*Index, diagnostic.Diagnostics, error) {
	units := make([]*SourceUnit, len(paths))
	failures := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			unit, err := l.loadFile(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}

				failures[i] = err
				return nil
			}

			units[i] = unit
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, diagnostic.Diagnostics{}, fmt.Errorf("loading sources: %w", err)
	}

	var diags diagnostic.Diagnostics

	loaded := make([]*SourceUnit, 0, len(units))
	for i, unit := range units {
		if failures[i] != nil {
			l.logger.Warn("skipping unparsable file",
				slog.String("file", paths[i]),
				slog.String("error", failures[i].Error()))
			diags.AddWarning(CodeParseFailed, failures[i].Error(), paths[i], "")

			continue
		}

		loaded = append(loaded, unit)
	}

	return NewIndex(loaded...), diags, nil
}

// loadFile reads and parses one file, consulting the cache first.
func (l *Loader) loadFile(ctx context.Context, path string) (*SourceUnit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	hash := sha256.Sum256(src)
	hashStr := hex.EncodeToString(hash[:])

	key := path + "@" + hashStr
	if unit, ok := l.cache.Get(key); ok {
		return unit, nil
	}

	unit, err := parse(ctx, path, hashStr, src)
	if err != nil {
		return nil, err
	}

	l.cache.Add(key, unit)

	return unit, nil
}

// Parse parses one file's content into a SourceUnit.
// A new tree-sitter parser is used per call so Parse is safe for concurrent use.
func Parse(ctx context.Context, path string, src []byte) (*SourceUnit, error) {
	hash := sha256.Sum256(src)
	return parse(ctx, path, hex.EncodeToString(hash[:]), src)
}

func parse(ctx context.Context, path, hash string, src []byte) (*SourceUnit, error) {
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidContent)
	}

	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(languageFor(path))

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parsing %s: empty syntax tree", path)
	}

	if root.HasError() {
		if at := firstError(root); at != nil {
			return nil, fmt.Errorf("%s:%d:%d: %w",
				path, at.StartPoint().Row+1, at.StartPoint().Column+1, ErrSyntax)
		}

		return nil, fmt.Errorf("%s: %w", path, ErrSyntax)
	}

	return extractUnit(path, hash, src, root), nil
}

// languageFor selects the grammar by extension. Plain TypeScript files use the
// TypeScript grammar so angle-bracket casts parse; everything else may hold JSX.
func languageFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return tsx.GetLanguage()
	}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}

	for i := range int(n.ChildCount()) {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}

		if found := firstError(c); found != nil {
			return found
		}
	}

	return nil
}
