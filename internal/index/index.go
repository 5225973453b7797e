package index

// AssetIndex defines the interface for manifest index operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type AssetIndex interface {
	UpsertAsset(row AssetRow) error
	DeleteAsset(filename string) error
	GetAsset(filename string) (*AssetRow, error)
	ListAssets(limit, offset int) ([]AssetRow, int, error)
	Search(query string, limit int) ([]AssetRow, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies AssetIndex at compile time.
var _ AssetIndex = (*DB)(nil)
