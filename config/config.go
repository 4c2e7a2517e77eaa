package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Search endpoint
	SearchURL string
	DetailURL string

	// Search filters, part of the site's query contract.
	// Make/model ids are passed through verbatim when set.
	AmbitCountry string
	MakeID       string
	ModelGroupID string
	ModelID      string
	MaxPrice     int
	MaxMileage   int

	// Crawler configuration
	MaxPages     int
	SearchDelay  time.Duration
	AdDelay      time.Duration
	SeenSetLimit int

	// Worker loop configuration
	CrawlInterval    time.Duration
	CooldownInterval time.Duration
	MinTrainRecords  int

	// Model configuration
	MinSamplesLeaf int
	MaxTreeDepth   int
	CrossValidate  bool

	// Storage configuration
	StorageBackend string // "file" or "memcache"
	StorageDir     string
	MemcacheAddr   string

	// Redis configuration (cheap-car alert stream)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Optional postgres prediction sink, enabled when set
	DatabaseURL string

	MetricsPort string
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		SearchURL:    getEnv("SEARCH_URL", "https://suchen.mobile.de/fahrzeuge/search.html"),
		DetailURL:    getEnv("DETAIL_URL", "https://suchen.mobile.de/fahrzeuge/details.html"),
		AmbitCountry: getEnv("AMBIT_COUNTRY", "DE"),
		MakeID:       getEnv("MAKE_ID", ""),
		ModelGroupID: getEnv("MODEL_GROUP_ID", ""),
		ModelID:      getEnv("MODEL_ID", ""),
		MaxPrice:     getEnvInt("MAX_PRICE", 25000),
		MaxMileage:   getEnvInt("MAX_MILEAGE", 200000),

		MaxPages:     getEnvInt("MAX_PAGES", 50),
		SearchDelay:  getEnvSeconds("SEARCH_DELAY_SECONDS", 3),
		AdDelay:      getEnvSeconds("AD_DELAY_SECONDS", 1),
		SeenSetLimit: getEnvInt("SEEN_SET_LIMIT", 100000),

		CrawlInterval:    getEnvSeconds("CRAWL_INTERVAL_SECONDS", 300),
		CooldownInterval: getEnvSeconds("COOLDOWN_INTERVAL_SECONDS", 60),
		MinTrainRecords:  getEnvInt("MIN_TRAIN_RECORDS", 100),

		MinSamplesLeaf: getEnvInt("MIN_SAMPLES_LEAF", 50),
		MaxTreeDepth:   getEnvInt("MAX_TREE_DEPTH", 12),
		CrossValidate:  getEnv("CROSS_VALIDATE", "true") == "true",

		StorageBackend: getEnv("STORAGE_BACKEND", "file"),
		StorageDir:     getEnv("STORAGE_DIR", "cars"),
		MemcacheAddr:   getEnv("MEMCACHE_ADDR", "localhost:11211"),

		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "cheapcars"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 500),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		MetricsPort: getEnv("METRICS_PORT", "9090"),
		Environment: getEnv("CARDEAL_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for startup errors. These are the
// only errors allowed to terminate the process.
func (c *Config) Validate() error {
	if c.SearchURL == "" || c.DetailURL == "" {
		return fmt.Errorf("search and detail URLs must be set")
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("MAX_PAGES must be at least 1, got %d", c.MaxPages)
	}
	if c.SearchDelay < 0 || c.AdDelay < 0 {
		return fmt.Errorf("politeness delays must not be negative")
	}
	if c.SeenSetLimit < 1 {
		return fmt.Errorf("SEEN_SET_LIMIT must be at least 1, got %d", c.SeenSetLimit)
	}
	if c.MinSamplesLeaf < 1 {
		return fmt.Errorf("MIN_SAMPLES_LEAF must be at least 1, got %d", c.MinSamplesLeaf)
	}
	switch c.StorageBackend {
	case "file", "memcache":
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	return nil
}

// SearchParams builds the fixed search query parameter set. The caller
// sets pageNumber per request.
func (c *Config) SearchParams() url.Values {
	params := url.Values{}
	params.Set("ambitCountry", c.AmbitCountry)
	params.Set("damageUnrepaired", "NO_DAMAGE_UNREPAIRED")
	params.Set("isSearchRequest", "true")
	params.Set("scopeId", "C")
	params.Set("usage", "USED")
	params.Set("sortOption.sortBy", "creationTime")
	params.Set("sortOption.sortOrder", "DESCENDING")
	if c.MakeID != "" {
		params.Set("makeModelVariant1.makeId", c.MakeID)
	}
	if c.ModelGroupID != "" {
		params.Set("makeModelVariant1.modelGroupId", c.ModelGroupID)
	}
	if c.ModelID != "" {
		params.Set("makeModelVariant1.modelId", c.ModelID)
	}
	if c.MaxPrice > 0 {
		params.Set("maxPrice", strconv.Itoa(c.MaxPrice))
	}
	if c.MaxMileage > 0 {
		params.Set("maxMileage", strconv.Itoa(c.MaxMileage))
	}
	return params
}

// AdURL returns the canonical detail page URL for an ad id
func (c *Config) AdURL(adID int64) string {
	return fmt.Sprintf("%s?id=%d", c.DetailURL, adID)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Second
}
