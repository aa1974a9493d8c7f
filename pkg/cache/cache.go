// Package cache provides pluggable byte caches for HTTP response caching.
//
// The engine itself holds no cross-run state; callers inject a Cache into
// the external service clients to avoid re-fetching registry and
// vulnerability data between runs. Three backends are provided:
//   - FileCache: directory-backed, for CLI usage
//   - RedisCache: shared cache for server deployments
//   - NullCache: caching disabled
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Cache stores opaque byte values under string keys with per-entry TTLs.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found
	// and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// DefaultDir returns the default cache directory for CLI usage
// (~/.cache/stackaudit, respecting XDG_CACHE_HOME).
func DefaultDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "stackaudit")
	}
	return filepath.Join(os.TempDir(), "stackaudit-cache")
}
