// Package assets orchestrates the asset resolution pipeline: scan chapters
// for image links, resolve each link to a file on disk (local or fetched
// into the cache), and build the ordered asset manifest.
package assets

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/fehu/internal/apperr"
	"github.com/starford/fehu/internal/book"
	"github.com/starford/fehu/internal/fetcher"
	"github.com/starford/fehu/internal/models"
	"github.com/starford/fehu/internal/resolver"
	"github.com/starford/fehu/internal/scanner"
)

// CacheSubdir is the name of the download cache directory created under the
// destination directory.
const CacheSubdir = "cache"

// Registry resolves every image reference of a book to an asset record.
type Registry struct {
	fetcher *fetcher.Fetcher
	logger  *slog.Logger
}

// NewRegistry creates a Registry. A nil logger falls back to slog.Default.
func NewRegistry(f *fetcher.Fetcher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{fetcher: f, logger: logger}
}

// Find resolves every image link of every chapter, in chapter order then
// within-chapter link order. Chapters are processed strictly in sequence and
// the pass is fail-fast: the first resolution failure aborts the whole call
// with no partial results. Separators and other non-chapter items are
// skipped.
//
// Local links resolve against the directory containing their chapter; remote
// links resolve through the download cache at destDir/cache.
func (r *Registry) Find(ctx context.Context, root, srcSubdir string, items []book.Item, destDir string) ([]models.Asset, error) {
	srcPath := filepath.Join(root, srcSubdir)
	srcDir, err := resolver.Canonicalize(srcPath)
	if err != nil {
		return nil, fmt.Errorf("%w: canonicalize src directory %s: %v", apperr.ErrSourceTree, srcPath, err)
	}

	cacheDir := filepath.Join(destDir, CacheSubdir)

	var out []models.Asset
	for _, item := range items {
		if item.Kind != book.KindChapter {
			continue
		}
		parentDir := filepath.Dir(filepath.Join(srcDir, filepath.FromSlash(item.Path)))
		r.logger.Debug("scanning chapter for assets", slog.String("chapter", item.Path))

		for _, raw := range scanner.Images([]byte(item.Content)) {
			asset, err := r.resolveLink(ctx, raw, parentDir, srcDir, cacheDir)
			if err != nil {
				return nil, fmt.Errorf("chapter %s: %w", item.Path, err)
			}
			r.logger.Debug("asset resolved",
				slog.String("link", raw),
				slog.String("filename", asset.Filename),
				slog.String("mimetype", asset.Mimetype))
			out = append(out, asset)
		}
	}
	return out, nil
}

// resolveLink turns one raw markdown destination into an Asset.
func (r *Registry) resolveLink(ctx context.Context, raw, parentDir, srcDir, cacheDir string) (models.Asset, error) {
	var location string
	var remote bool

	link := resolver.Classify(raw)
	switch link.Kind {
	case resolver.KindRemote:
		r.logger.Info("downloading remote asset", slog.String("url", link.URL.String()))
		p, err := r.fetcher.FetchOrCache(ctx, link.URL, cacheDir)
		if err != nil {
			return models.Asset{}, err
		}
		location = p
		remote = true
	default:
		p, err := resolver.ResolveLocal(raw, parentDir)
		if err != nil {
			return models.Asset{}, err
		}
		location = p
	}

	if err := resolver.EnsureFile(location); err != nil {
		return models.Asset{}, err
	}

	filename, err := logicalFilename(location, srcDir, remote)
	if err != nil {
		return models.Asset{}, err
	}

	return models.Asset{
		LocationOnDisk: location,
		Filename:       filename,
		Mimetype:       guessMimetype(location),
	}, nil
}

// logicalFilename strips the src prefix for local assets. Downloaded assets
// live outside the src tree, so they get the cache-relative analog the
// downstream packager places them under.
func logicalFilename(location, srcDir string, remote bool) (string, error) {
	if remote {
		return path.Join(CacheSubdir, filepath.Base(location)), nil
	}
	rel, err := filepath.Rel(srcDir, location)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: asset %s escapes src directory %s", apperr.ErrNotFound, location, srcDir)
	}
	return filepath.ToSlash(rel), nil
}

// guessMimetype maps the filename extension to a media type. Best-effort:
// unknown extensions fall back to application/octet-stream and never block
// resolution.
func guessMimetype(p string) string {
	if mt := mime.TypeByExtension(filepath.Ext(p)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
