// Package cache provides byte caches and cache key derivation.
//
// Every backend implements [Cache]: a local [FileCache] for the CLI, a
// process-local [MemoryCache] for the server and tests, and the shared
// [RedisCache] and [MongoCache] backends for deployments where several
// server instances resolve the same models. [NullCache] disables caching.
//
// Keys are derived by a [Keyer] so that every entry that depends on options
// (view mode, split size, layout engine) hashes them into the key;
// [ScopedKeyer] namespaces keys per tenant or origin.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values by key.
//
// Get reports a miss with ok == false and a nil error; errors are reserved
// for backend failures. A ttl of zero means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default TTLs per kind of entry.
const (
	TTLHTTP     = 24 * time.Hour
	TTLManifest = 24 * time.Hour
	TTLChunk    = 7 * 24 * time.Hour
	TTLGraph    = 7 * 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
)
