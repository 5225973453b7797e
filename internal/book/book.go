// Package book supplies the ordered chapter list of a markdown book.
package book

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ItemKind discriminates book items.
type ItemKind int

const (
	// KindChapter is a markdown chapter with content.
	KindChapter ItemKind = iota
	// KindSeparator is a structural entry without content; the asset
	// pipeline skips it.
	KindSeparator
)

// Item is a single entry of a book, in reading order.
type Item struct {
	Kind ItemKind
	// Path is the chapter's path relative to the book src directory,
	// slash-separated. Empty for separators.
	Path string
	// Content is the raw markdown of the chapter. Empty for separators.
	Content string
}

// Source supplies the ordered items of a book.
type Source interface {
	Items() ([]Item, error)
}

// Dir is a Source that walks a directory tree for markdown chapters.
// Chapters are returned in deterministic lexical walk order. Files whose
// base name starts with an underscore are drafts and yield separator items.
type Dir struct {
	root string // absolute path to the book src directory
}

// NewDir creates a Source rooted at dir. The directory must already exist.
func NewDir(dir string) (*Dir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("book: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("book: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("book: root is not a directory: %s", abs)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute src directory the source walks.
func (d *Dir) Root() string {
	return d.root
}

// Items walks the tree and returns every .md file, in lexical walk order.
func (d *Dir) Items() ([]Item, error) {
	var out []Item
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			return nil
		}
		if strings.HasPrefix(entry.Name(), "_") {
			out = append(out, Item{Kind: KindSeparator})
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("book: read chapter %s: %w", p, err)
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return fmt.Errorf("book: relativize %s: %w", p, err)
		}
		out = append(out, Item{
			Kind:    KindChapter,
			Path:    filepath.ToSlash(rel),
			Content: string(data),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("book: walk %s: %w", d.root, err)
	}
	return out, nil
}
