package index

import (
	"log/slog"
	"os"
	"time"

	"github.com/starford/fehu/internal/checksum"
	"github.com/starford/fehu/internal/models"
)

// EventCallback is called after a sync-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, filename string)

// Sync reconciles the index with the latest resolved manifest:
//   - new/changed assets are upserted
//   - assets gone from the manifest are deleted
//
// It calls cb (if non-nil) after each successful index mutation. Read
// failures on individual asset files are logged and skipped so a transient
// problem cannot wedge the index; the manifest itself is the source of truth.
func Sync(db *DB, assets []models.Asset, logger *slog.Logger, cb EventCallback) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	current := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		current[a.Filename] = struct{}{}

		data, err := os.ReadFile(a.LocationOnDisk)
		if err != nil {
			logger.Warn("sync: read failed",
				slog.String("filename", a.Filename),
				slog.String("error", err.Error()))
			continue
		}
		cs := checksum.Sum(data)
		prior, known := checksums[a.Filename]
		if known && prior == cs {
			continue
		}

		row := AssetRow{
			Filename:  a.Filename,
			Location:  a.LocationOnDisk,
			Mimetype:  a.Mimetype,
			Checksum:  cs,
			UpdatedAt: time.Now().UTC(),
		}
		if err := db.UpsertAsset(row); err != nil {
			logger.Warn("sync: upsert failed",
				slog.String("filename", a.Filename),
				slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: indexed", slog.String("filename", a.Filename))
		if cb != nil {
			kind := "updated"
			if !known {
				kind = "created"
			}
			cb(kind, a.Filename)
		}
	}

	// Remove stale entries.
	for f := range checksums {
		if _, ok := current[f]; !ok {
			if err := db.DeleteAsset(f); err != nil {
				logger.Warn("sync: delete failed", slog.String("filename", f), slog.String("error", err.Error()))
				continue
			}
			logger.Debug("sync: removed stale", slog.String("filename", f))
			if cb != nil {
				cb("deleted", f)
			}
		}
	}

	return nil
}
