package storage

// Storage is a blob store keyed by ad id. One blob per ad holding the
// raw fetched page; re-fetching the same ad overwrites the blob.
// Writes are atomic per key, there are no multi-key transactions: a
// lost blob is always recoverable by re-fetching the page.
type Storage interface {
	// Exists reports whether a blob is stored for the ad id
	Exists(adID int64) bool

	// Get retrieves the stored blob for the ad id
	Get(adID int64) ([]byte, error)

	// Put stores the blob for the ad id, overwriting any previous one
	Put(adID int64, data []byte) error
}
