package api

import (
	"time"
)

// AssetDetail is a single indexed asset in API responses.
type AssetDetail struct {
	Filename  string    `json:"filename"`
	Location  string    `json:"location"`
	Mimetype  string    `json:"mimetype"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssetListResponse wraps paginated asset listings.
type AssetListResponse struct {
	Assets []AssetDetail `json:"assets"`
	Total  int           `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []AssetDetail `json:"results"`
}

// ResolveResponse is returned after a resolution pass.
type ResolveResponse struct {
	Assets int `json:"assets"`
}
