// Package cache stores rendered artifacts between runs.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: shared storage for multi-instance render services
//   - [NullCache]: stores nothing, used with --no-cache
//
// # Keys
//
// Keys are derived from a hash of the deck source plus the options that
// change the output (see [Keyer]). [ScopedKeyer] prefixes keys so several
// tenants can share one backend.
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.ArtifactKey(cache.Hash(src), cache.ArtifactKeyOpts{Format: "pdf"})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the stored value and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// DefaultTTL is the artifact lifetime used by the CLI and the server.
const DefaultTTL = 7 * 24 * time.Hour

// DefaultDir returns the cache directory following XDG:
// $XDG_CACHE_HOME/boxdeck, falling back to ~/.cache/boxdeck.
func DefaultDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "boxdeck"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "boxdeck"), nil
}
