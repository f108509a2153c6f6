// Package output persists DOT encodings next to each other in an output
// location.
package output

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
)

// FileName derives the output file name of a unit: its base name without
// extension followed by suffix. An empty suffix falls back to cfg.Suffix.
func FileName(unit, suffix string) string {
	if suffix == "" {
		suffix = cfg.Suffix
	}
	base := filepath.Base(unit)
	return strings.TrimSuffix(base, filepath.Ext(base)) + suffix
}

// Writer uploads DOT text under a directory or storage URL.
type Writer struct {
	fs     afs.Service
	dir    string
	suffix string
}

// NewWriter creates a writer for dir.
func NewWriter(fs afs.Service, dir, suffix string) *Writer {
	if fs == nil {
		fs = afs.New()
	}
	return &Writer{fs: fs, dir: dir, suffix: suffix}
}

// Dir returns the output location.
func (w *Writer) Dir() string { return w.dir }

// Location returns where unit's DOT file is written.
func (w *Writer) Location(unit string) string {
	name := FileName(unit, w.suffix)
	if url.Scheme(w.dir, "") == "" {
		return filepath.Join(w.dir, name)
	}
	return url.Join(w.dir, name)
}

// Write stores dot for unit, creating the directory if needed, and returns
// the location written.
func (w *Writer) Write(ctx context.Context, unit, dot string) (string, error) {
	loc := w.Location(unit)
	if err := w.fs.Upload(ctx, loc, file.DefaultFileOsMode, strings.NewReader(dot)); err != nil {
		return "", fmt.Errorf("write %s: %w", loc, err)
	}
	return loc, nil
}

// Exists reports whether unit's DOT file is already present.
func (w *Writer) Exists(ctx context.Context, unit string) bool {
	ok, err := w.fs.Exists(ctx, w.Location(unit))
	return err == nil && ok
}
