package index

import (
	"fmt"
	"time"
)

// AssetRow represents a row in the assets table.
type AssetRow struct {
	Filename  string
	Location  string
	Mimetype  string
	Checksum  string
	UpdatedAt time.Time
}

// UpsertAsset inserts or replaces an asset record.
func (db *DB) UpsertAsset(row AssetRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO assets (filename, location, mimetype, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			location   = excluded.location,
			mimetype   = excluded.mimetype,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, row.Filename, row.Location, row.Mimetype, row.Checksum, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert asset: %w", err)
	}
	return nil
}

// DeleteAsset removes an asset record.
func (db *DB) DeleteAsset(filename string) error {
	if _, err := db.conn.Exec(`DELETE FROM assets WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("index: delete asset: %w", err)
	}
	return nil
}

// GetAsset returns the record for filename, or nil when absent.
func (db *DB) GetAsset(filename string) (*AssetRow, error) {
	row := db.conn.QueryRow(`
		SELECT filename, location, mimetype, checksum, updated_at
		FROM assets WHERE filename = ?
	`, filename)
	var a AssetRow
	if err := row.Scan(&a.Filename, &a.Location, &a.Mimetype, &a.Checksum, &a.UpdatedAt); err != nil {
		return nil, nil // not found is not an error here
	}
	return &a, nil
}

// ListAssets returns assets ordered by filename, with the total count.
// limit <= 0 means no limit.
func (db *DB) ListAssets(limit, offset int) ([]AssetRow, int, error) {
	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM assets`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count assets: %w", err)
	}

	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`
		SELECT filename, location, mimetype, checksum, updated_at
		FROM assets ORDER BY filename LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list assets: %w", err)
	}
	defer rows.Close()

	var out []AssetRow
	for rows.Next() {
		var a AssetRow
		if err := rows.Scan(&a.Filename, &a.Location, &a.Mimetype, &a.Checksum, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// Search returns assets whose filename or mimetype contains query
// (case-insensitive substring match).
func (db *DB) Search(query string, limit int) ([]AssetRow, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT filename, location, mimetype, checksum, updated_at
		FROM assets
		WHERE filename LIKE ? OR mimetype LIKE ?
		ORDER BY filename LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []AssetRow
	for rows.Next() {
		var a AssetRow
		if err := rows.Scan(&a.Filename, &a.Location, &a.Mimetype, &a.Checksum, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AllChecksums returns filename -> checksum for every indexed asset.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT filename, checksum FROM assets`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var f, cs string
		if err := rows.Scan(&f, &cs); err != nil {
			return nil, err
		}
		out[f] = cs
	}
	return out, rows.Err()
}
