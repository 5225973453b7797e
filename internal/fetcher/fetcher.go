// Package fetcher downloads remote assets into a content-addressed on-disk
// cache so that a given URL is fetched at most once per cache directory.
//
// The cache protocol is the filesystem itself: a file at
// <cacheDir>/<sha256-hex of the URL string><ext> is the cache entry for that
// URL, with no index or metadata beside it. Entries persist across runs and
// are never evicted here.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/starford/fehu/internal/apperr"
	"github.com/starford/fehu/internal/checksum"
	"github.com/starford/fehu/internal/resolver"
)

// Fetcher resolves remote URLs to files in a cache directory.
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher. A nil client falls back to http.DefaultClient, so
// timeout behavior is inherited unmodified from the transport defaults.
func New(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// CachePath returns the deterministic cache location for u:
// cacheDir/<hash><ext>, where hash is the hex-encoded SHA-256 digest of the
// URL's full string representation and ext is the filename extension of the
// URL's last path segment (empty when the URL has no path segments or no
// extension — a legitimate case, not an error).
//
// SHA-256/hex is the versioned cache-key algorithm. Changing it orphans
// every existing cache entry, so it must stay fixed.
func CachePath(cacheDir string, u *url.URL) string {
	name := checksum.SumString(u.String())
	// path.Base("") is "." and path.Ext(".") is "." again; neither is a real
	// extension, so an empty or trailing-dot segment keeps the bare hash.
	if ext := path.Ext(path.Base(u.Path)); ext != "" && ext != "." {
		name += ext
	}
	return filepath.Join(cacheDir, name)
}

// FetchOrCache returns the canonical cache path for u, fetching the resource
// on a cache miss. A hit (the cache file already exists) performs no fetch
// at all, which makes repeated calls for the same URL idempotent for the
// lifetime of the cache directory. file URLs copy the referenced local
// file's bytes; every other scheme issues a blocking GET.
func (f *Fetcher) FetchOrCache(ctx context.Context, u *url.URL, cacheDir string) (string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create cache dir %s: %v", apperr.ErrCacheWrite, cacheDir, err)
	}

	destination := CachePath(cacheDir, u)

	// A hit is an existing regular file; anything else squatting on the
	// cache path must not be handed back as the fetched asset.
	info, statErr := os.Stat(destination)
	switch {
	case statErr == nil && info.Mode().IsRegular():
		// hit, nothing to fetch
	case statErr == nil:
		return "", fmt.Errorf("%w: cache entry %s is not a regular file", apperr.ErrCacheWrite, destination)
	default:
		if err := f.fetch(ctx, u, cacheDir, destination); err != nil {
			return "", err
		}
	}

	canonical, err := resolver.Canonicalize(destination)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalize cache path %s: %v", apperr.ErrCacheWrite, destination, err)
	}
	return canonical, nil
}

// fetch materializes u at destination. The bytes are streamed to a temp file
// in cacheDir and renamed onto destination only after a complete write, so
// an interrupted fetch can never be mistaken for a cache hit on a later run.
func (f *Fetcher) fetch(ctx context.Context, u *url.URL, cacheDir, destination string) error {
	var body io.ReadCloser

	if u.Scheme == "file" {
		src, err := os.Open(u.Path)
		if err != nil {
			return fmt.Errorf("%w: open %s: %v", apperr.ErrFetch, u, err)
		}
		body = src
	} else {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return fmt.Errorf("%w: build request for %s: %v", apperr.ErrFetch, u, err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: get %s: %v", apperr.ErrFetch, u, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return fmt.Errorf("%w: get %s: unexpected status %s", apperr.ErrFetch, u, resp.Status)
		}
		body = resp.Body
	}
	defer body.Close()

	return writeAtomic(cacheDir, destination, body)
}

// writeAtomic streams r to a temp file, fsyncs it, and renames it onto dest.
func writeAtomic(dir, dest string, r io.Reader) error {
	tmp, err := os.CreateTemp(dir, ".fehu-tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp in %s: %v", apperr.ErrCacheWrite, dir, err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return fmt.Errorf("%w: write %s: %v", apperr.ErrCacheWrite, dest, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: fsync %s: %v", apperr.ErrCacheWrite, dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp for %s: %v", apperr.ErrCacheWrite, dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("%w: finalize %s: %v", apperr.ErrCacheWrite, dest, err)
	}
	success = true
	return nil
}
