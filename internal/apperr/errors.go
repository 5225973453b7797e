// Package apperr defines the sentinel error kinds of the asset pipeline.
// Callers wrap them with contextual detail (the offending link, URL, or
// path) via fmt.Errorf and dispatch with errors.Is.
package apperr

import "errors"

var (
	// ErrSourceTree means the book src directory does not exist or cannot
	// be canonicalized. Fatal before any chapter is processed.
	ErrSourceTree = errors.New("source tree missing")
	// ErrNotFound means a local link did not resolve to an existing path.
	ErrNotFound = errors.New("not found")
	// ErrNotAFile means a resolved path exists but is not a regular file.
	ErrNotAFile = errors.New("not a regular file")
	// ErrFetch means a local-file copy or network GET failed.
	ErrFetch = errors.New("fetch failed")
	// ErrCacheWrite means the cache directory or a cache file could not be
	// created or finalized.
	ErrCacheWrite = errors.New("cache write failed")
)
