package cache

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const entryExt = ".mp"

// Entry is the on-disk envelope of a cached value. Payload holds the
// msgpack encoding of the value itself.
type Entry struct {
	Key       string    `msgpack:"key"`
	CreatedAt time.Time `msgpack:"createdAt"`
	TTL       int       `msgpack:"ttl"`
	Payload   []byte    `msgpack:"payload"`
}

// Cache stores computed tours on disk, keyed by the hash of their inputs.
type Cache struct {
	mu         sync.RWMutex
	dir        string
	ttlSeconds int
	enabled    bool
}

// New creates a new Cache. If dir is empty, uses the default cache directory.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if dir == "" {
		d, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{
		dir:        dir,
		ttlSeconds: ttlSeconds,
		enabled:    true,
	}, nil
}

// Get decodes the value cached under key into out. It reports a miss for
// absent, expired or undecodable entries.
func (c *Cache) Get(key string, out any) bool {
	if !c.enabled {
		return false
	}
	c.mu.RLock()
	entry, err := c.read(c.entryPath(key))
	c.mu.RUnlock()
	if err != nil {
		return false
	}
	if c.expired(entry) {
		c.mu.Lock()
		os.Remove(c.entryPath(key))
		c.mu.Unlock()
		return false
	}
	return msgpack.Unmarshal(entry.Payload, out) == nil
}

// Put encodes v and stores it under key. The entry file is replaced
// atomically.
func (c *Cache) Put(key string, v any) error {
	if !c.enabled {
		return nil
	}
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache payload: %w", err)
	}
	entry := Entry{
		Key:       HashKey(key),
		CreatedAt: time.Now(),
		TTL:       c.ttlSeconds,
		Payload:   payload,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	f, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	defer os.Remove(f.Name())
	if err := msgpack.NewEncoder(f).Encode(&entry); err != nil {
		f.Close()
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return os.Rename(f.Name(), c.entryPath(key))
}

// Clear removes all cache entries and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	if !c.enabled || c.dir == "" {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	var removed int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == entryExt {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Stats returns cache statistics.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled || c.dir == "" {
		return stats, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != entryExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		entry, err := c.read(filepath.Join(c.dir, e.Name()))
		if err != nil {
			continue
		}
		if c.expired(entry) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// BuildCacheKey creates a cache key from a configuration fingerprint and the
// diff the tour is computed for.
func BuildCacheKey(fingerprint, diff string) string {
	return HashKey(fingerprint + "\x00" + diff)
}

func (c *Cache) read(path string) (Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, err
	}
	defer f.Close()
	var entry Entry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		return Entry{}, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	if entry.Key == "" {
		return Entry{}, errors.New("cache entry without key")
	}
	return entry, nil
}

func (c *Cache) expired(e Entry) bool {
	return c.ttlSeconds > 0 && time.Since(e.CreatedAt) > time.Duration(c.ttlSeconds)*time.Second
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, HashKey(key)+entryExt)
}

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "reviewtour"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "reviewtour"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "reviewtour", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "reviewtour", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "reviewtour"), nil
	}
}
