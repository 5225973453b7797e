// Package assetservice coordinates the book source, the asset registry, the
// manifest file, and the manifest index.
package assetservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/fehu/internal/apperr"
	"github.com/starford/fehu/internal/assets"
	"github.com/starford/fehu/internal/book"
	"github.com/starford/fehu/internal/index"
	"github.com/starford/fehu/internal/models"
)

// ManifestName is the manifest file written into the destination directory.
const ManifestName = "manifest.json"

// Service runs the resolution pipeline and answers manifest queries.
type Service struct {
	db       *index.DB
	registry *assets.Registry
	root     string
	src      string
	dest     string
	logger   *slog.Logger
	onEvent  index.EventCallback

	// Resolve runs are serialized: the download cache assumes a single
	// writer, and concurrent passes over the same book gain nothing.
	mu sync.Mutex
}

// New creates a Service. onEvent (may be nil) is invoked for every index
// mutation a resolution pass causes.
func New(db *index.DB, registry *assets.Registry, root, src, dest string, logger *slog.Logger, onEvent index.EventCallback) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:       db,
		registry: registry,
		root:     root,
		src:      src,
		dest:     dest,
		logger:   logger,
		onEvent:  onEvent,
	}
}

// Resolve runs the full pipeline: load the chapter list, resolve every image
// reference, write the manifest, and sync the index. The first failure at
// any stage aborts the pass with no partial results.
func (s *Service) Resolve(ctx context.Context) ([]models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	srcPath := filepath.Join(s.root, s.src)
	source, err := book.NewDir(srcPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrSourceTree, err)
	}
	items, err := source.Items()
	if err != nil {
		return nil, err
	}

	found, err := s.registry.Find(ctx, s.root, s.src, items, s.dest)
	if err != nil {
		return nil, err
	}

	if err := s.writeManifest(found); err != nil {
		return nil, err
	}
	if err := index.Sync(s.db, found, s.logger, s.onEvent); err != nil {
		return nil, err
	}

	s.logger.Info("book resolved",
		slog.Int("chapters", len(items)),
		slog.Int("assets", len(found)))
	return found, nil
}

// writeManifest writes <dest>/manifest.json atomically: tmp file -> fsync ->
// rename, so a crashed run never leaves a truncated manifest for the
// downstream packager.
func (s *Service) writeManifest(found []models.Asset) error {
	if err := os.MkdirAll(s.dest, 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	if found == nil {
		found = []models.Asset{}
	}
	data, err := json.MarshalIndent(found, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	target := filepath.Join(s.dest, ManifestName)
	tmp, err := os.CreateTemp(s.dest, ".fehu-manifest-*")
	if err != nil {
		return fmt.Errorf("create manifest temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close manifest temp: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("finalize manifest: %w", err)
	}
	success = true
	return nil
}

// ManifestPath returns the location of the written manifest file.
func (s *Service) ManifestPath() string {
	return filepath.Join(s.dest, ManifestName)
}

// CacheDir returns the download cache directory of this book.
func (s *Service) CacheDir() string {
	return filepath.Join(s.dest, assets.CacheSubdir)
}

// ListAssets returns indexed assets ordered by filename plus the total count.
func (s *Service) ListAssets(_ context.Context, limit, offset int) ([]index.AssetRow, int, error) {
	return s.db.ListAssets(limit, offset)
}

// GetAsset returns the indexed record for filename.
func (s *Service) GetAsset(_ context.Context, filename string) (*index.AssetRow, error) {
	row, err := s.db.GetAsset(filename)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: asset %s", apperr.ErrNotFound, filename)
	}
	return row, nil
}

// Search returns indexed assets matching query.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.AssetRow, error) {
	return s.db.Search(query, limit)
}

// AssetFilePath returns the on-disk location for filename, verifying the
// file still exists.
func (s *Service) AssetFilePath(ctx context.Context, filename string) (string, error) {
	row, err := s.GetAsset(ctx, filename)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(row.Location); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: asset file %s", apperr.ErrNotFound, row.Location)
		}
		return "", err
	}
	return row.Location, nil
}
