// Package discovery finds source units carrying OpenMP directives.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/maruel/natural"
	"github.com/viant/afs"

	"github.com/efebarandurmaz/ompcfg/internal/construct"
	"github.com/efebarandurmaz/ompcfg/internal/logging"
	"github.com/efebarandurmaz/ompcfg/internal/pipeline"
)

// ErrRootNotFound is returned when the discovery root does not exist.
var ErrRootNotFound = errors.New("discovery root not found")

// Options filters candidate files. Patterns are doublestar globs matched
// against the slash-separated path relative to the root.
type Options struct {
	Extensions []string
	Include    []string
	Exclude    []string
}

// DefaultOptions selects every .c file.
func DefaultOptions() Options {
	return Options{Extensions: []string{".c"}, Include: []string{"**"}}
}

// Failure records a candidate that could not be read.
type Failure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Result lists the units found under a root.
type Result struct {
	Root  string          `json:"root"`
	Units []pipeline.Unit `json:"units"`
	// Candidates counts files that passed the extension and glob filters.
	Candidates int `json:"candidates"`
	// Unmarked counts candidates without a directive marker.
	Unmarked int       `json:"unmarked"`
	Failures []Failure `json:"failures,omitempty"`
}

// Finder walks a root through an afs service.
type Finder struct {
	fs   afs.Service
	opts Options
}

// NewFinder creates a finder. A zero Options falls back to DefaultOptions.
func NewFinder(fs afs.Service, opts Options) (*Finder, error) {
	if fs == nil {
		fs = afs.New()
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultOptions().Extensions
	}
	if len(opts.Include) == 0 {
		opts.Include = DefaultOptions().Include
	}
	for _, p := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob %q", p)
		}
	}
	return &Finder{fs: fs, opts: opts}, nil
}

// Discover walks root and returns every readable candidate containing the
// directive marker, in natural path order. Unreadable candidates are listed
// in Result.Failures.
func (f *Finder) Discover(ctx context.Context, root string) (*Result, error) {
	log := logging.FromContext(ctx)

	ok, err := f.fs.Exists(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", root, ErrRootNotFound)
	}

	var candidates []string
	err = f.fs.Walk(ctx, root, func(ctx context.Context, baseURL string, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		rel := path.Join(parent, info.Name())
		if f.Match(rel) {
			candidates = append(candidates, rel)
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	res := &Result{Root: root, Candidates: len(candidates)}
	for _, rel := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := filepath.Join(root, filepath.FromSlash(rel))
		data, err := f.fs.DownloadWithURL(ctx, name)
		if err != nil {
			log.Warn("unreadable source unit", "path", name, "error", err)
			res.Failures = append(res.Failures, Failure{Path: name, Err: err.Error()})
			continue
		}
		src := string(data)
		if !strings.Contains(src, construct.Marker) {
			res.Unmarked++
			continue
		}
		res.Units = append(res.Units, pipeline.Unit{Name: name, Source: src})
	}

	sort.Slice(res.Units, func(i, j int) bool { return natural.Less(res.Units[i].Name, res.Units[j].Name) })
	sort.Slice(res.Failures, func(i, j int) bool { return natural.Less(res.Failures[i].Path, res.Failures[j].Path) })

	log.Debug("discovery complete", "root", root, "candidates", res.Candidates, "units", len(res.Units), "failures", len(res.Failures))
	return res, nil
}

// Match reports whether a root-relative slash path passes the extension,
// include and exclude filters.
func (f *Finder) Match(rel string) bool {
	if !hasExtension(rel, f.opts.Extensions) {
		return false
	}
	if !matchAny(f.opts.Include, rel) {
		return false
	}
	return !matchAny(f.opts.Exclude, rel)
}

func hasExtension(name string, exts []string) bool {
	ext := path.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
