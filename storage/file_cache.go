package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"grocery-deals/models"
	"grocery-deals/utils"
)

// FileCache persists one aggregation result per normalized postal code as
// a pretty-printed JSON artifact. Entries are overwritten wholesale on
// refresh; there are no partial updates.
type FileCache struct {
	dir    string
	ttl    time.Duration
	logger *utils.Logger
}

// NewFileCache creates the cache directory if needed and returns a ready
// FileCache. An unwritable cache directory is the one fatal storage
// condition in this system.
func NewFileCache(dir string, ttl time.Duration, logger *utils.Logger) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cache: create dir %q: %w", dir, err)
	}
	return &FileCache{dir: dir, ttl: ttl, logger: logger}, nil
}

// Get returns the cached result for the postal code if the artifact exists,
// decodes, and is younger than the TTL. Corrupt or stale artifacts are a
// miss, never an error.
func (c *FileCache) Get(postalCode string) (*models.AggregationResult, bool) {
	data, err := os.ReadFile(c.path(postalCode))
	if err != nil {
		return nil, false
	}

	var result models.AggregationResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("[cache] Corrupt artifact for %s treated as miss: %v", postalCode, err)
		return nil, false
	}

	if time.Since(result.FetchedAt) >= c.ttl {
		c.logger.Debug("[cache] Entry for %s expired (fetched %s)", postalCode, result.FetchedAt.Format(time.RFC3339))
		return nil, false
	}

	return &result, true
}

// Put overwrites the postal code's artifact with the full result.
func (c *FileCache) Put(result *models.AggregationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal result for %s: %w", result.PostalCode, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(c.path(result.PostalCode), data, 0644); err != nil {
		return fmt.Errorf("cache: write artifact for %s: %w", result.PostalCode, err)
	}
	return nil
}

func (c *FileCache) path(postalCode string) string {
	return filepath.Join(c.dir, postalCode+".json")
}
