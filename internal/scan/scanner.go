package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultMaxFileSize is the default maximum file size (2MB).
const DefaultMaxFileSize int64 = 2 * 1024 * 1024

// defaultExcludedDirs contains directories that are never scanned.
var defaultExcludedDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	".next":        {},
	".turbo":       {},
	".cache":       {},
	"coverage":     {},
	"dist":         {},
	"build":        {},
}

var (
	// ErrRootNotExist indicates a scan root does not exist.
	ErrRootNotExist = errors.New("scan root does not exist")

	// ErrInvalidPattern indicates a glob pattern could not be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// Options configures a Scanner.
type Options struct {
	// Roots are directories (or single files) to scan.
	Roots []string
	// Extensions are accepted file extensions without the dot. Empty accepts all.
	Extensions []string
	// Include patterns; when set, a file must match at least one.
	Include []string
	// Exclude patterns; a matching file or directory is skipped.
	Exclude []string
	// SkipDirs are directories skipped entirely, e.g. a shared output directory.
	SkipDirs []string
	// MaxFileSize skips larger files. Zero means DefaultMaxFileSize.
	MaxFileSize int64
}

// Scanner walks roots and returns matching files.
// Patterns are matched against slash-separated paths relative to the root
// the file was found under; a leading "**/" also matches at the top level.
type Scanner struct {
	opts     Options
	include  []glob.Glob
	exclude  []glob.Glob
	exts     map[string]struct{}
	skipDirs map[string]struct{}
}

// NewScanner compiles the patterns in opts.
func NewScanner(opts Options) (*Scanner, error) {
	include, err := compileGlobs(opts.Include)
	if err != nil {
		return nil, err
	}

	exclude, err := compileGlobs(opts.Exclude)
	if err != nil {
		return nil, err
	}

	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	s := &Scanner{
		opts:     opts,
		include:  include,
		exclude:  exclude,
		exts:     make(map[string]struct{}, len(opts.Extensions)),
		skipDirs: make(map[string]struct{}, len(opts.SkipDirs)),
	}

	for _, ext := range opts.Extensions {
		s.exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	for _, dir := range opts.SkipDirs {
		s.skipDirs[absClean(dir)] = struct{}{}
	}

	return s, nil
}

// compileGlobs compiles a slice of glob pattern strings into matchers.
func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))

	var errs []error

	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", pattern, err))
			continue
		}

		matchers = append(matchers, matcher)
	}

	if len(errs) > 0 {
		return nil, errors.Join(append([]error{ErrInvalidPattern}, errs...)...)
	}

	return matchers, nil
}

// Scan walks every root and returns matching files in ascending order.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	var files []string

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}

		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, root := range s.opts.Roots {
		info, err := os.Stat(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%s: %w", root, ErrRootNotExist)
			}

			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}

		if !info.IsDir() {
			if s.acceptsExtension(root) {
				add(filepath.Clean(root))
			}

			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if walkErr != nil {
				if os.IsPermission(walkErr) {
					return nil
				}

				return walkErr
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}

			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path != root && s.skipDirectory(path, d.Name(), rel) {
					return fs.SkipDir
				}

				return nil
			}

			if s.matchFile(rel, d) {
				add(path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	slices.Sort(files)

	return files, nil
}

// Match reports whether path, relative to root, would be returned by Scan.
// It is used to filter filesystem events without rescanning.
func (s *Scanner) Match(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}

	rel = filepath.ToSlash(rel)

	dir := filepath.Dir(path)
	for dir != root && dir != "." && dir != string(filepath.Separator) {
		relDir, _ := filepath.Rel(root, dir)
		if s.skipDirectory(dir, filepath.Base(dir), filepath.ToSlash(relDir)) {
			return false
		}

		dir = filepath.Dir(dir)
	}

	return s.acceptsExtension(path) && s.matchPatterns(rel)
}

// SkipsDir reports whether Scan would skip dir found under root.
func (s *Scanner) SkipsDir(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}

	return s.skipDirectory(dir, filepath.Base(dir), filepath.ToSlash(rel))
}

func (s *Scanner) skipDirectory(path, name, rel string) bool {
	if _, ok := defaultExcludedDirs[name]; ok {
		return true
	}

	if _, ok := s.skipDirs[absClean(path)]; ok {
		return true
	}

	return matchAny(s.exclude, rel) || matchAny(s.exclude, rel+"/")
}

func (s *Scanner) matchFile(rel string, d fs.DirEntry) bool {
	if !d.Type().IsRegular() || !s.acceptsExtension(rel) || !s.matchPatterns(rel) {
		return false
	}

	info, err := d.Info()

	return err == nil && info.Size() <= s.opts.MaxFileSize
}

func (s *Scanner) matchPatterns(rel string) bool {
	if matchAny(s.exclude, rel) {
		return false
	}

	return len(s.include) == 0 || matchAny(s.include, rel)
}

func (s *Scanner) acceptsExtension(path string) bool {
	if len(s.exts) == 0 {
		return true
	}

	_, ok := s.exts[strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))]

	return ok
}

func matchAny(matchers []glob.Glob, rel string) bool {
	for _, m := range matchers {
		if m.Match(rel) || m.Match("/"+rel) {
			return true
		}
	}

	return false
}

func absClean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}

	return filepath.Clean(path)
}
