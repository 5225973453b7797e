// Package resolver classifies raw markdown link destinations as remote URLs
// or local paths, and resolves local ones against a base directory.
package resolver

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/starford/fehu/internal/apperr"
)

// Kind discriminates the two Link variants.
type Kind int

const (
	// KindLocal marks a link interpreted as a filesystem path.
	KindLocal Kind = iota
	// KindRemote marks a link that parsed as an absolute URL.
	KindRemote
)

// Link is the classification of a raw markdown destination. Raw always
// carries the original string; URL is set only for KindRemote.
type Link struct {
	Kind Kind
	URL  *url.URL
	Raw  string
}

// Classify attempts to parse raw as an absolute URL (non-empty scheme).
// Success yields a Remote link; anything else falls back to Local with the
// original string retained unchanged. Classification never fails: a string
// that is neither a URL nor a valid path simply fails local resolution later
// with a not-found error.
func Classify(raw string) Link {
	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return Link{Kind: KindRemote, URL: u, Raw: raw}
	}
	return Link{Kind: KindLocal, Raw: raw}
}

// ResolveLocal joins raw with parentDir (the directory of the chapter that
// referenced it) and canonicalizes the result. The target must exist.
func ResolveLocal(raw, parentDir string) (string, error) {
	joined := filepath.Join(parentDir, raw)
	canonical, err := Canonicalize(joined)
	if err != nil {
		return "", fmt.Errorf("%w: link %q: canonicalize %s: %v", apperr.ErrNotFound, raw, joined, err)
	}
	return canonical, nil
}

// Canonicalize resolves path to an absolute, symlink- and ..-free form. It
// fails when the target does not exist.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// EnsureFile verifies that path names an existing regular file. Local
// resolution and the remote cache share this post-condition: a directory or
// any other non-file target fails the whole resolution.
func EnsureFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat asset %s: %v", apperr.ErrNotFound, path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: asset %s", apperr.ErrNotAFile, path)
	}
	return nil
}
