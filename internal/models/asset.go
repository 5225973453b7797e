// Package models defines the domain types for Fehu.
package models

// Asset is a resolved media file referenced by a chapter, described by its
// physical location, its logical name, and its media type. An Asset is
// constructed once per resolved link and is immutable afterwards.
type Asset struct {
	// LocationOnDisk is the absolute, canonical path of the resolved file.
	// It names an existing regular file at construction time.
	LocationOnDisk string `json:"location_on_disk"`
	// Filename is the asset's path relative to the book src directory for
	// local assets, or the cache-relative analog (cache/<name>) for
	// downloaded assets. It carries no leading separator and uses forward
	// slashes.
	Filename string `json:"filename"`
	// Mimetype is the media type guessed from the filename extension.
	// Best-effort; unknown extensions fall back to application/octet-stream.
	Mimetype string `json:"mimetype"`
}
