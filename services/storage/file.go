package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStorage implements Storage on the local filesystem, one file per
// ad id under a single directory.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the storage directory if needed and returns a
// file-backed store.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
	}
	return &FileStorage{dir: dir}, nil
}

func (f *FileStorage) path(adID int64) string {
	return filepath.Join(f.dir, fmt.Sprintf("%d.html", adID))
}

// Exists reports whether a blob is stored for the ad id
func (f *FileStorage) Exists(adID int64) bool {
	_, err := os.Stat(f.path(adID))
	return err == nil
}

// Get retrieves the stored blob for the ad id
func (f *FileStorage) Get(adID int64) ([]byte, error) {
	return os.ReadFile(f.path(adID))
}

// Put stores the blob for the ad id, overwriting any previous one
func (f *FileStorage) Put(adID int64, data []byte) error {
	return os.WriteFile(f.path(adID), data, 0644)
}
