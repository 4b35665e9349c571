// Package vault gives the engine read access to the documents of a vault:
// glob resolution over the file tree, structured front-matter, and body
// content. The engine depends on the Reader interface so tests and other
// hosts can substitute their own document source.
package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vk/vaultboard/internal/ctxlog"
)

// Reader is the document-access surface the engine consumes. Paths are
// vault-relative and slash-separated.
type Reader interface {
	// Resolve returns the sorted relative paths matching a glob pattern.
	Resolve(ctx context.Context, pattern string) ([]string, error)
	// Attributes returns a document's front-matter as a structured map.
	// A document without front-matter yields an empty map.
	Attributes(ctx context.Context, path string) (map[string]any, error)
	// Content returns a document's body text, front-matter excluded.
	Content(ctx context.Context, path string) (string, error)
}

// Match reports whether a vault-relative path matches a source pattern.
// A malformed pattern matches nothing.
func Match(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}

// FS is a Reader over a vault directory on disk.
type FS struct {
	root string
}

// NewFS returns a Reader rooted at the given vault directory.
func NewFS(root string) *FS {
	return &FS{root: root}
}

// Resolve globs the vault tree with doublestar semantics ("**" crosses
// directory boundaries) and returns matches in sorted order so downstream
// computations are deterministic.
func (f *FS) Resolve(ctx context.Context, pattern string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	matches, err := doublestar.Glob(os.DirFS(f.root), pattern)
	if err != nil {
		return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(f.abs(m))
		if err != nil || info.IsDir() {
			continue
		}
		paths = append(paths, m)
	}
	sort.Strings(paths)

	logger.Debug("Resolved source pattern.", "pattern", pattern, "matches", len(paths))
	return paths, nil
}

// Attributes reads and parses a document's front-matter.
func (f *FS) Attributes(ctx context.Context, path string) (map[string]any, error) {
	data, err := os.ReadFile(f.abs(path))
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	attrs, _, err := splitFrontMatter(data)
	if err != nil {
		return nil, fmt.Errorf("front-matter of %s: %w", path, err)
	}
	return attrs, nil
}

// Content reads a document's body text, front-matter excluded.
func (f *FS) Content(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(f.abs(path))
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", path, err)
	}
	_, body, err := splitFrontMatter(data)
	if err != nil {
		return "", fmt.Errorf("front-matter of %s: %w", path, err)
	}
	return body, nil
}

func (f *FS) abs(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}
