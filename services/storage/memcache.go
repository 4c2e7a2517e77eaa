package storage

import (
	"strconv"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheStorage implements Storage using memcache. Useful when
// several worker hosts should share one page cache; blobs carry no
// expiry and live until evicted.
type MemcacheStorage struct {
	client *memcache.Client
}

// NewMemcacheStorage creates a new memcache-backed store
func NewMemcacheStorage(serverAddr string) *MemcacheStorage {
	return &MemcacheStorage{
		client: memcache.New(serverAddr),
	}
}

func key(adID int64) string {
	return "ad:" + strconv.FormatInt(adID, 10)
}

// Exists reports whether a blob is stored for the ad id
func (m *MemcacheStorage) Exists(adID int64) bool {
	_, err := m.client.Get(key(adID))
	return err == nil
}

// Get retrieves the stored blob for the ad id
func (m *MemcacheStorage) Get(adID int64) ([]byte, error) {
	item, err := m.client.Get(key(adID))
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Put stores the blob for the ad id, overwriting any previous one
func (m *MemcacheStorage) Put(adID int64, data []byte) error {
	return m.client.Set(&memcache.Item{
		Key:   key(adID),
		Value: data,
	})
}
