// Package cache provides the byte-level caches used by the pipeline, the
// source client and the sync job.
//
// # Backends
//
//   - [NullCache]: never stores anything (tests, --no-cache)
//   - [FileCache]: one JSON file per entry under a directory (CLI)
//   - [RedisCache]: shared cache for the server and the sync job
//
// Keys are built by a [Keyer] so every component agrees on the layout of the
// key space; [ScopedKeyer] adds a prefix for isolation.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional TTL.
type Cache interface {
	// Get returns the value and true on a hit, or nil and false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per key type.
const (
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
	TTLHTTP     = 15 * time.Minute
	TTLSync     = time.Hour
)
