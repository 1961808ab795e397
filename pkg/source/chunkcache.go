package source

import (
	"context"
	"strconv"
	"time"

	"github.com/matzehuels/unformer/pkg/cache"
	"github.com/matzehuels/unformer/pkg/observability"
)

// ChunkCache stores decompressed chunk bytes per model scope. Invalidate
// bumps the scope's epoch so earlier entries are never read again; they
// expire through the backend's TTL.
type ChunkCache struct {
	store cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewChunkCache wraps store. A nil store disables caching; a nil keyer
// uses [cache.DefaultKeyer].
func NewChunkCache(store cache.Cache, keyer cache.Keyer, ttl time.Duration) *ChunkCache {
	if store == nil {
		store = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &ChunkCache{store: store, keyer: keyer, ttl: ttl}
}

// Get returns the cached bytes for chunk in scope.
func (c *ChunkCache) Get(ctx context.Context, scope, chunk string) ([]byte, bool, error) {
	epoch, err := c.epoch(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	data, ok, err := c.store.Get(ctx, c.keyer.ChunkKey(scope, chunk, epoch))
	if err != nil {
		return nil, false, err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, "chunk")
	} else {
		observability.Cache().OnCacheMiss(ctx, "chunk")
	}
	return data, ok, nil
}

// Put stores data for chunk in scope under the current epoch.
func (c *ChunkCache) Put(ctx context.Context, scope, chunk string, data []byte) error {
	epoch, err := c.epoch(ctx, scope)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.keyer.ChunkKey(scope, chunk, epoch), data, c.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, "chunk", len(data))
	return nil
}

// Invalidate drops every chunk cached for scope.
func (c *ChunkCache) Invalidate(ctx context.Context, scope string) error {
	epoch, err := c.epoch(ctx, scope)
	if err != nil {
		return err
	}
	next := strconv.FormatUint(epoch+1, 10)
	// Epoch keys carry no TTL.
	return c.store.Set(ctx, c.keyer.EpochKey(scope), []byte(next), 0)
}

func (c *ChunkCache) epoch(ctx context.Context, scope string) (uint64, error) {
	data, ok, err := c.store.Get(ctx, c.keyer.EpochKey(scope))
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// GetManifest returns the cached manifest file of model id at origin.
func (c *ChunkCache) GetManifest(ctx context.Context, origin, id string) ([]byte, bool, error) {
	return c.store.Get(ctx, c.keyer.ManifestKey(origin, id))
}

// PutManifest stores the manifest file of model id at origin.
func (c *ChunkCache) PutManifest(ctx context.Context, origin, id string, data []byte) error {
	return c.store.Set(ctx, c.keyer.ManifestKey(origin, id), data, c.ttl)
}

// DeleteManifest drops the cached manifest of model id at origin.
func (c *ChunkCache) DeleteManifest(ctx context.Context, origin, id string) error {
	return c.store.Delete(ctx, c.keyer.ManifestKey(origin, id))
}
