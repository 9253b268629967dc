package phpscan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"go.jacobcolvin.com/docannot/analyser"
)

var (
	// ErrReadInput indicates a source file or directory could not be read.
	ErrReadInput = errors.New("read input")
	// ErrInvalidPattern indicates an exclude glob could not be compiled.
	ErrInvalidPattern = errors.New("invalid pattern")
)

// Extractor extracts the annotations of one doc comment. It is satisfied by
// [*analyser.Analyser].
type Extractor interface {
	Extract(ctx context.Context, comment string, c *analyser.Context) []*analyser.Annotation
}

// Result holds the annotations found in one file, in source order.
type Result struct {
	Path        string                 `json:"path"        yaml:"path"`
	Annotations []*analyser.Annotation `json:"annotations" yaml:"annotations"`
}

// Analyse extracts the annotations of every doc comment in src. Each comment
// gets its own [analyser.Context] carrying path, the comment's first line and
// the namespace and imports in effect, so faults are reported against the
// source file. It stops early when ctx is done.
func Analyse(ctx context.Context, e Extractor, path string, src []byte) []*analyser.Annotation {
	f := Scan(src)

	annotations := []*analyser.Annotation{}

	for _, comment := range f.Comments {
		if ctx.Err() != nil {
			break
		}

		c := analyser.NewContext(path, comment.Line)
		c.Namespace = comment.Namespace
		c.Uses = comment.Uses

		annotations = append(annotations, e.Extract(ctx, comment.Text, c)...)
	}

	slog.DebugContext(ctx, "analysed file",
		slog.String("file", path),
		slog.Int("comments", len(f.Comments)),
		slog.Int("annotations", len(annotations)),
	)

	return annotations
}

// AnalyseFiles reads and analyses paths concurrently, running at most limit
// files at once (no limit when limit < 1). Results are in the order of
// paths. The first read error cancels the remaining work and is returned;
// annotation faults only produce warnings.
func AnalyseFiles(ctx context.Context, e Extractor, paths []string, limit int) ([]Result, error) {
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, path := range paths {
		g.Go(func() error {
			err := ctx.Err()
			if err != nil {
				return err
			}

			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrReadInput, err)
			}

			results[i] = Result{
				Path:        path,
				Annotations: Analyse(ctx, e, path, src),
			}

			return ctx.Err()
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

// Collect expands roots into a list of files. Files are kept as given;
// directories are walked for "*.php" files, skipping hidden directories,
// and contribute them in lexical order.
//
// Entries below a directory root whose slash-separated path relative to
// that root, or whose base name, matches one of the exclude globs are
// skipped. Excluded directories are not descended into.
func Collect(roots []string, exclude ...string) ([]string, error) {
	matchers, err := compileGlobs(exclude)
	if err != nil {
		return nil, err
	}

	var paths []string

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
		}

		if !info.IsDir() {
			paths = append(paths, root)

			continue
		}

		var found []string

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if path == root {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			excluded := matchesAny(matchers, filepath.ToSlash(rel), d.Name())

			if d.IsDir() {
				if excluded || strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}

				return nil
			}

			if !excluded && d.Type().IsRegular() && strings.EqualFold(filepath.Ext(path), ".php") {
				found = append(found, path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
		}

		slices.Sort(found)
		paths = append(paths, found...)
	}

	return paths, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))

	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, pattern, err)
		}

		matchers = append(matchers, matcher)
	}

	return matchers, nil
}

func matchesAny(matchers []glob.Glob, rel, name string) bool {
	for _, m := range matchers {
		if m.Match(rel) || m.Match(name) {
			return true
		}
	}

	return false
}
