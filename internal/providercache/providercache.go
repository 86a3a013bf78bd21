// Package providercache is the keyed, TTL-bounded store of successful
// match responses (§4.7): a per-platform on-disk map from ROM identity to
// the Provider record it resolved to. A hit short-circuits the network
// call entirely; only real network calls count against the daily quota.
package providercache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sargunv/curateur/internal/provider"
)

// DefaultTTL bounds how long a cached match response stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is one platform's response cache rooted at a fixed directory
// (<catalog_root>/<platform>/.cache/response_cache). Safe for concurrent
// use: entries are written whole-file and readers tolerate losing a race
// as a miss.
type Cache struct {
	dir string
	ttl time.Duration
}

// New opens (creating if needed) the cache directory. A ttl of zero uses
// DefaultTTL.
func New(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Key derives the cache key for a ROM identity: the content hash when one
// was computed, else the primary filename plus size (§4.7).
func Key(id provider.Identity) string {
	switch {
	case id.SHA1 != "":
		return "sha1:" + strings.ToLower(id.SHA1)
	case id.MD5 != "":
		return "md5:" + strings.ToLower(id.MD5)
	case id.CRC32 != "":
		return "crc32:" + strings.ToLower(id.CRC32)
	default:
		return fmt.Sprintf("name:%s:%d", id.FileName, id.Size)
	}
}

// entry wraps the stored record with its write time for TTL checks.
type entry struct {
	Key       string           `json:"key"`
	CreatedAt time.Time        `json:"created_at"`
	Record    *provider.Record `json:"record"`
}

// Get returns the cached record for the identity, or false on a miss or an
// expired/corrupt entry. Expired entries are removed on read.
func (c *Cache) Get(id provider.Identity) (*provider.Record, bool) {
	key := Key(id)
	path := c.pathFor(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Record == nil {
		os.Remove(path)
		return nil, false
	}
	if time.Since(e.CreatedAt) > c.ttl {
		os.Remove(path)
		return nil, false
	}

	return e.Record, true
}

// Put stores a fresh successful match response (write-through, §4.7).
func (c *Cache) Put(id provider.Identity, rec *provider.Record) error {
	key := Key(id)
	data, err := json.Marshal(entry{Key: key, CreatedAt: time.Now(), Record: rec})
	if err != nil {
		return fmt.Errorf("serialize cache entry: %w", err)
	}
	if err := os.WriteFile(c.pathFor(key), data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Clear wipes the whole cache, the operator's wholesale invalidation.
func (c *Cache) Clear() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return os.MkdirAll(c.dir, 0o755)
}

// pathFor maps a key to a safe filename.
func (c *Cache) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:16])+".json")
}
