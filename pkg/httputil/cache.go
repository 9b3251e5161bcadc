package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// ErrExpired is returned by [Cache.Get] when a cached entry exists but has
// exceeded its time-to-live (TTL). The entry is still on disk; callers
// should fetch fresh data and overwrite it with [Cache.Set].
var ErrExpired = errors.New("cache entry expired")

const entrySuffix = ".json"

// Cache provides file-based caching of arbitrary JSON-marshalable data.
//
// Entries are written to a temporary file and renamed into place, so several
// processes can share one directory. A single Cache value is not safe for
// concurrent use by multiple goroutines without external synchronization.
//
// Entries expire based on file modification time. A TTL of 0 means entries
// never expire.
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
}

// DefaultDir returns the default response cache directory,
// $XDG_CACHE_HOME/cellar/api.
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, "cellar", "api")
}

// NewCache creates a Cache that stores entries in dir with the given TTL.
// If dir is empty, [DefaultDir] is used. The directory is created with mode
// 0755 if it doesn't exist.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Dir returns the path to the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the time-to-live duration for cache entries.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get retrieves a cached value by key and unmarshals it into v.
//
//   - (true, nil): hit, v holds the value.
//   - (false, nil): miss, v is unchanged.
//   - (false, ErrExpired): the entry is older than the TTL, v is unchanged.
//   - (false, other error): I/O or decoding failure.
func (c *Cache) Get(key string, v any) (bool, error) {
	path := c.keyPath(c.prefix + key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return false, ErrExpired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, v)
}

// Set stores a value in the cache under the given key, replacing any
// existing entry and refreshing its TTL.
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	path := c.keyPath(c.prefix + key)
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the entry for key. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	err := os.Remove(c.keyPath(c.prefix + key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every entry in the cache directory, across all namespaces,
// and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entrySuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Namespace returns a Cache sharing the directory and TTL whose keys are
// prefixed with prefix. Namespaces chain: Namespace("a:").Namespace("b:")
// uses the prefix "a:b:".
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{
		dir:    c.dir,
		ttl:    c.ttl,
		prefix: c.prefix + prefix,
	}
}

func (c *Cache) keyPath(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:])+entrySuffix)
}
