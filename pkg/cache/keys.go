package cache

import "strconv"

// Keyer derives cache keys.
type Keyer interface {
	// HTTPKey is the key of a raw response body fetched from an origin.
	HTTPKey(namespace, key string) string
	// ManifestKey is the key of a decoded model manifest.
	ManifestKey(origin, model string) string
	// ChunkKey is the key of a decompressed chunk. scope identifies the
	// resolved model path; epoch is bumped to invalidate all of its chunks.
	ChunkKey(scope, chunk string, epoch uint64) string
	// EpochKey is the key of the invalidation counter for scope.
	EpochKey(scope string) string
	// GraphKey is the key of a built graph.
	GraphKey(model string, opts GraphKeyOpts) string
	// LayoutKey is the key of a positioned graph.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
}

// GraphKeyOpts are the build options that change a graph.
type GraphKeyOpts struct {
	ViewMode  string          `json:"view_mode"`
	AutoDepth int             `json:"auto_depth"`
	SplitSize int             `json:"split_size"`
	Expanded  map[string]bool `json:"expanded,omitempty"`
}

// LayoutKeyOpts are the layout options that change positions.
type LayoutKeyOpts struct {
	Engine string  `json:"engine"`
	Margin float64 `json:"margin"`
}

// DefaultKeyer implements Keyer with SHA-256 hashed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key derivation.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey implements Keyer.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ManifestKey implements Keyer.
func (DefaultKeyer) ManifestKey(origin, model string) string {
	return hashKey("manifest", origin, model)
}

// ChunkKey implements Keyer.
func (DefaultKeyer) ChunkKey(scope, chunk string, epoch uint64) string {
	return hashKey("chunk", scope, chunk, strconv.FormatUint(epoch, 10))
}

// EpochKey implements Keyer.
func (DefaultKeyer) EpochKey(scope string) string {
	return hashKey("epoch", scope)
}

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(model string, opts GraphKeyOpts) string {
	return hashKey("graph", model, opts)
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}
