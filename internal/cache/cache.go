// Package cache stores per-script analysis results on disk, validated by a
// BLAKE3 hash of the script content.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"github.com/panbanda/gdlens/pkg/models"
)

// Cache provides file-based caching for analysis results.
type Cache struct {
	fs      afero.Fs
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

// Entry represents a cached analysis result.
type Entry struct {
	Hash      string          `json:"hash"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New creates a cache rooted at dir on fs. A disabled cache misses every
// lookup and discards every write.
func New(fs afero.Fs, dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{
		fs:      fs,
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
		now:     time.Now,
	}, nil
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Fingerprint is a fast non-cryptographic content fingerprint.
func Fingerprint(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// Key joins the parts identifying a cached result.
func Key(parts ...string) string {
	return strings.Join(parts, "\x00")
}

// Get retrieves a cached entry if it exists, was stored for hash and has
// not expired. Stale entries are removed.
func (c *Cache) Get(key, hash string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.keyPath(key)
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Hash != hash || c.now().Sub(entry.Timestamp) > c.ttl {
		_ = c.Invalidate(key)
		return nil, false
	}
	return entry.Data, true
}

// Set stores data in the cache with a hash for validation.
func (c *Cache) Set(key, hash string, data []byte) error {
	if !c.enabled {
		return nil
	}
	entryData, err := json.Marshal(Entry{
		Hash:      hash,
		Timestamp: c.now(),
		Data:      data,
	})
	if err != nil {
		return err
	}
	return afero.WriteFile(c.fs, c.keyPath(key), entryData, 0o600)
}

// GetScript returns a cached script result.
func (c *Cache) GetScript(key, hash string) (*models.ScriptResult, bool) {
	data, ok := c.Get(key, hash)
	if !ok {
		return nil, false
	}
	var res models.ScriptResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	return &res, true
}

// SetScript stores a script result. Failed results are not cached.
func (c *Cache) SetScript(key, hash string, res *models.ScriptResult) error {
	if !c.enabled || res == nil || res.Failed() {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.Set(key, hash, data)
}

// Invalidate removes a cache entry. A missing entry is not an error.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	if err := c.fs.Remove(c.keyPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return c.fs.RemoveAll(c.dir)
}

// keyPath converts a key to a filesystem path.
func (c *Cache) keyPath(key string) string {
	hash := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := afero.Walk(c.fs, c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = c.now().Sub(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = c.now().Sub(newest)
	}
	return stats, nil
}
