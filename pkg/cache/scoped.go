package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each origin or tenant its
// own cache namespace on a shared backend.
//
// Example usage:
//
//	// Keys for models served from a private bucket
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "origin:internal:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ManifestKey generates a prefixed key for manifest caching.
func (k *ScopedKeyer) ManifestKey(origin, model string) string {
	return k.prefix + k.inner.ManifestKey(origin, model)
}

// ChunkKey generates a prefixed key for chunk caching.
func (k *ScopedKeyer) ChunkKey(scope, chunk string, epoch uint64) string {
	return k.prefix + k.inner.ChunkKey(scope, chunk, epoch)
}

// EpochKey generates a prefixed key for a scope's invalidation counter.
func (k *ScopedKeyer) EpochKey(scope string) string {
	return k.prefix + k.inner.EpochKey(scope)
}

// GraphKey generates a prefixed key for graph caching.
func (k *ScopedKeyer) GraphKey(model string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(model, opts)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}
