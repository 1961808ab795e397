package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"path"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/observability"
	"github.com/matzehuels/unformer/pkg/tree"
)

// modelFiles are tried in order when a model is not listed in the index.
var modelFiles = []string{"model.json", "model.json.gz", "model.json.zst"}

// Resolver turns model ids into manifests, chunks and module trees.
type Resolver struct {
	origin Origin
	chunks *ChunkCache
	logger *log.Logger
	group  singleflight.Group
}

// ResolverOption configures a [Resolver].
type ResolverOption func(*Resolver)

// WithChunkCache sets the cache for decoded chunk bytes.
func WithChunkCache(c *ChunkCache) ResolverOption {
	return func(r *Resolver) { r.chunks = c }
}

// WithLogger sets the resolver's logger.
func WithLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver returns a resolver reading from origin.
func NewResolver(origin Origin, opts ...ResolverOption) *Resolver {
	r := &Resolver{origin: origin}
	for _, opt := range opts {
		opt(r)
	}
	if r.chunks == nil {
		r.chunks = NewChunkCache(nil, nil, 0)
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// Origin returns the origin the resolver reads from.
func (r *Resolver) Origin() Origin { return r.origin }

// Index reads the origin's index.json.
func (r *Resolver) Index(ctx context.Context) (*Index, error) {
	data, err := r.origin.Read(ctx, IndexFile)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "origin %s has no index", r.origin)
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read index")
	}
	return ParseIndex(data)
}

// Model is a resolved model: its directory and manifest.
type Model struct {
	ID       string
	Dir      string
	Manifest *Manifest
	// Scope keys the model's chunks in the cache: origin plus directory.
	Scope string
}

// Resolve locates the manifest of model id. The index is consulted first;
// models missing from it are looked up under their safe directory name.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Model, error) {
	if err := errors.ValidateModelID(id); err != nil {
		return nil, err
	}
	v, err, _ := r.group.Do("manifest:"+id, func() (any, error) {
		return r.resolve(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// cachedManifest is what the resolver stores per model: where the
// manifest lives and its decompressed bytes.
type cachedManifest struct {
	Dir  string `json:"dir"`
	Data []byte `json:"data"`
}

func (r *Resolver) resolve(ctx context.Context, id string) (*Model, error) {
	origin := r.origin.String()
	if data, ok, err := r.chunks.GetManifest(ctx, origin, id); err == nil && ok {
		var cm cachedManifest
		if json.Unmarshal(data, &cm) == nil {
			if m, err := ParseManifest(cm.Data); err == nil {
				return r.model(id, cm.Dir, m), nil
			}
		}
	}

	model, data, err := r.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	if enc, err := json.Marshal(cachedManifest{Dir: model.Dir, Data: data}); err == nil {
		if err := r.chunks.PutManifest(ctx, origin, id, enc); err != nil {
			r.logger.Warn("manifest cache write failed", "model", id, "error", err)
		}
	}
	return model, nil
}

func (r *Resolver) locate(ctx context.Context, id string) (*Model, []byte, error) {
	candidates := make([]string, 0, len(modelFiles)+1)
	if idx, err := r.Index(ctx); err == nil {
		if e, ok := idx.Find(id); ok {
			candidates = append(candidates, e.Path)
		}
	} else if !errors.IsNotFound(err) {
		r.logger.Debug("index unavailable", "origin", r.origin, "error", err)
	}
	dir := SafeModelDir(id)
	for _, f := range modelFiles {
		candidates = append(candidates, path.Join(dir, f))
	}

	for _, name := range candidates {
		data, err := r.origin.Read(ctx, name)
		if stderrors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeNetwork, err, "read manifest for %s", id)
		}
		data, err = Decompress(data, Detect(name, data))
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decompress %s", name)
		}
		m, err := ParseManifest(data)
		if err != nil {
			return nil, nil, err
		}
		return r.model(id, path.Dir(name), m), data, nil
	}
	return nil, nil, errors.New(errors.ErrCodeModelNotFound, "model %q not found at %s", id, r.origin)
}

func (r *Resolver) model(id, dir string, m *Manifest) *Model {
	return &Model{ID: id, Dir: dir, Manifest: m, Scope: r.origin.String() + "#" + dir}
}

// Chunk returns the decompressed bytes of chunk key for m. Results are
// cached per model directory; concurrent callers share one fetch.
func (r *Resolver) Chunk(ctx context.Context, m *Model, key string) ([]byte, error) {
	item, ok := m.Manifest.Item(key)
	if !ok || !item.Present {
		return nil, errors.New(errors.ErrCodeChunkNotFound, "model %s has no chunk %q", m.ID, key)
	}
	scope := m.Scope

	if data, ok, err := r.chunks.Get(ctx, scope, key); err == nil && ok {
		return data, nil
	} else if err != nil {
		r.logger.Warn("chunk cache read failed", "chunk", key, "error", err)
	}

	v, err, _ := r.group.Do("chunk:"+scope+":"+key, func() (any, error) {
		name := path.Join(m.Dir, item.Path)
		start := time.Now()
		raw, err := r.origin.Read(ctx, name)
		if err != nil {
			if stderrors.Is(err, ErrNotFound) {
				return nil, errors.Wrap(errors.ErrCodeChunkNotFound, err, "chunk %s", key)
			}
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read chunk %s", key)
		}
		data, err := Decompress(raw, m.Manifest.Chunks.Compression)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decompress chunk %s", key)
		}
		r.logger.Debug("fetched chunk", "model", m.ID, "chunk", key,
			"bytes", len(data), "duration", time.Since(start))
		if err := r.chunks.Put(ctx, scope, key, data); err != nil {
			r.logger.Warn("chunk cache write failed", "chunk", key, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Prefetch loads the given chunks of m concurrently, warming the cache.
// Absent chunks are skipped.
func (r *Resolver) Prefetch(ctx context.Context, m *Model, keys ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, key := range keys {
		if !m.Manifest.Has(key) {
			continue
		}
		g.Go(func() error {
			_, err := r.Chunk(ctx, m, key)
			return err
		})
	}
	return g.Wait()
}

// Tree resolves model id and returns its module tree for the requested
// view. A missing compact tree falls back to the full tree and vice versa.
func (r *Resolver) Tree(ctx context.Context, id string, compact bool) (tree.RawNode, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, id)
	start := time.Now()

	raw, err := r.tree(ctx, id, compact)
	n := 0
	if err == nil {
		n = countNodes(raw)
	}
	hooks.OnLoadComplete(ctx, id, n, time.Since(start), err)
	return raw, err
}

func (r *Resolver) tree(ctx context.Context, id string, compact bool) (tree.RawNode, error) {
	m, err := r.Resolve(ctx, id)
	if err != nil {
		return tree.RawNode{}, err
	}
	if !m.Manifest.Chunked() {
		return m.Manifest.Document.Modules.Select(compact)
	}
	for _, key := range TreeKeys(compact) {
		if !m.Manifest.Has(key) {
			continue
		}
		data, err := r.Chunk(ctx, m, key)
		if err != nil {
			return tree.RawNode{}, err
		}
		raw, err := tree.Decode(data)
		if err != nil {
			return tree.RawNode{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "chunk %s of %s", key, id)
		}
		return raw, nil
	}
	return tree.RawNode{}, errors.New(errors.ErrCodeChunkNotFound,
		"model %s has no module tree chunk", id)
}

// Invalidate drops cached chunks of model id.
func (r *Resolver) Invalidate(ctx context.Context, id string) error {
	m, err := r.Resolve(ctx, id)
	if err != nil {
		return err
	}
	r.group.Forget("manifest:" + id)
	if err := r.chunks.DeleteManifest(ctx, r.origin.String(), id); err != nil {
		return err
	}
	return r.chunks.Invalidate(ctx, m.Scope)
}

func countNodes(n tree.RawNode) int {
	c := 1
	for _, ch := range n.Children {
		c += countNodes(ch)
	}
	return c
}

func (m *Model) String() string {
	return fmt.Sprintf("%s (%s)", m.ID, m.Dir)
}
