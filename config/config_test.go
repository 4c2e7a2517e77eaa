package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	cfg := LoadConfig()
	assert.Equal(t, "https://suchen.mobile.de/fahrzeuge/search.html", cfg.SearchURL)
	assert.Equal(t, 50, cfg.MaxPages)
	assert.Equal(t, 3*time.Second, cfg.SearchDelay)
	assert.Equal(t, 1*time.Second, cfg.AdDelay)
	assert.Equal(t, "file", cfg.StorageBackend)
	assert.Equal(t, "cars", cfg.StorageDir)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 50, cfg.MinSamplesLeaf)
	assert.NoError(t, cfg.Validate())

	// Test with environment variables
	os.Setenv("MAX_PAGES", "10")
	os.Setenv("SEARCH_DELAY_SECONDS", "5")
	os.Setenv("STORAGE_BACKEND", "memcache")
	os.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")
	os.Setenv("MAKE_ID", "3500")

	cfg = LoadConfig()
	assert.Equal(t, 10, cfg.MaxPages)
	assert.Equal(t, 5*time.Second, cfg.SearchDelay)
	assert.Equal(t, "memcache", cfg.StorageBackend)
	assert.Equal(t, "memcache.example.com:11211", cfg.MemcacheAddr)
	assert.Equal(t, "3500", cfg.MakeID)
	assert.NoError(t, cfg.Validate())

	// Clean up
	os.Unsetenv("MAX_PAGES")
	os.Unsetenv("SEARCH_DELAY_SECONDS")
	os.Unsetenv("STORAGE_BACKEND")
	os.Unsetenv("MEMCACHE_ADDR")
	os.Unsetenv("MAKE_ID")
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.MaxPages = 0
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.StorageBackend = "s3"
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.SearchDelay = -1 * time.Second
	assert.Error(t, cfg.Validate())
}

func TestSearchParams(t *testing.T) {
	cfg := LoadConfig()
	cfg.MakeID = "3500"
	cfg.ModelGroupID = "20"
	cfg.MaxPrice = 10000
	cfg.MaxMileage = 0

	params := cfg.SearchParams()
	assert.Equal(t, "DE", params.Get("ambitCountry"))
	assert.Equal(t, "NO_DAMAGE_UNREPAIRED", params.Get("damageUnrepaired"))
	assert.Equal(t, "USED", params.Get("usage"))
	assert.Equal(t, "creationTime", params.Get("sortOption.sortBy"))
	assert.Equal(t, "DESCENDING", params.Get("sortOption.sortOrder"))
	assert.Equal(t, "3500", params.Get("makeModelVariant1.makeId"))
	assert.Equal(t, "20", params.Get("makeModelVariant1.modelGroupId"))
	assert.Equal(t, "10000", params.Get("maxPrice"))
	assert.Empty(t, params.Get("maxMileage"))
	// pageNumber is set per request by the crawler
	assert.Empty(t, params.Get("pageNumber"))
}

func TestAdURL(t *testing.T) {
	cfg := LoadConfig()
	assert.Equal(t,
		"https://suchen.mobile.de/fahrzeuge/details.html?id=247503007",
		cfg.AdURL(247503007))
}
