package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"hiveform-gen/internal/diagnostic"
)

// CodeWriteFailed marks a module that could not be written.
const CodeWriteFailed = "WRITE_FAILED"

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteStatus is the outcome of writing one file.
type WriteStatus int

const (
	StatusWritten WriteStatus = iota
	StatusUnchanged
	StatusFailed
)

// String returns a human-readable representation of the WriteStatus.
func (s WriteStatus) String() string {
	switch s {
	case StatusWritten:
		return "written"
	case StatusUnchanged:
		return "unchanged"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// WriteResult reports what happened to one generated file.
type WriteResult struct {
	File   GeneratedFile
	Status WriteStatus
	Err    error
}

// Writer persists generated files.
type Writer struct {
	// DryRun reports what would change without touching the filesystem.
	DryRun bool
}

// WriteFiles writes every file whose content differs from what is on disk.
// A failure is reported for that file only; the remaining files are still
// written.
func (w Writer) WriteFiles(files []GeneratedFile) ([]WriteResult, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	results := make([]WriteResult, 0, len(files))

	for _, file := range files {
		status, err := w.writeFile(file)
		if err != nil {
			diags.AddError(CodeWriteFailed, err.Error(), file.Path(), strings.Join(file.Contexts(), ","))
		}

		results = append(results, WriteResult{File: file, Status: status, Err: err})
	}

	return results, diags
}

func (w Writer) writeFile(file GeneratedFile) (WriteStatus, error) {
	path := file.Path()

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, file.Content) {
			return StatusUnchanged, nil
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return StatusFailed, fmt.Errorf("reading existing %s: %w", path, err)
	}

	if w.DryRun {
		return StatusWritten, nil
	}

	if err := os.MkdirAll(file.Dir, dirPerm); err != nil {
		return StatusFailed, fmt.Errorf("creating output directory: %w", err)
	}

	if err := os.WriteFile(path, file.Content, filePerm); err != nil {
		return StatusFailed, fmt.Errorf("writing file %s: %w", path, err)
	}

	return StatusWritten, nil
}

// Count returns how many results have the given status.
func Count(results []WriteResult, status WriteStatus) int {
	n := 0
	for _, r := range results {
		if r.Status == status {
			n++
		}
	}

	return n
}
