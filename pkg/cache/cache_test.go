package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.HTTPKey("hf", "gpt2/manifest.json"); got != "http:hf:gpt2/manifest.json" {
		t.Errorf("HTTPKey unexpected: %s", got)
	}

	if k.ManifestKey("https://a", "gpt2") == k.ManifestKey("https://b", "gpt2") {
		t.Error("ManifestKey should depend on the origin")
	}

	if k.ChunkKey("models/gpt2", "modules.tree", 0) == k.ChunkKey("models/gpt2", "modules.tree", 1) {
		t.Error("ChunkKey should change with the epoch")
	}
	if k.ChunkKey("models/gpt2", "modules.tree", 0) == k.ChunkKey("models/gpt2", "modules.compact_tree", 0) {
		t.Error("ChunkKey should depend on the chunk")
	}

	gk1 := k.GraphKey("gpt2", GraphKeyOpts{ViewMode: "compact", AutoDepth: 1, SplitSize: 8})
	gk2 := k.GraphKey("gpt2", GraphKeyOpts{ViewMode: "compact", AutoDepth: 1, SplitSize: 4})
	if gk1 == gk2 {
		t.Error("Different GraphKeyOpts should produce different keys")
	}
	gk3 := k.GraphKey("gpt2", GraphKeyOpts{ViewMode: "compact", AutoDepth: 1, SplitSize: 8, Expanded: map[string]bool{"a": true, "b": false}})
	gk4 := k.GraphKey("gpt2", GraphKeyOpts{ViewMode: "compact", AutoDepth: 1, SplitSize: 8, Expanded: map[string]bool{"b": false, "a": true}})
	if gk3 != gk4 {
		t.Error("GraphKey should not depend on map insertion order")
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Engine: "layered"})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Engine: "graphviz"})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "origin:1:")

	if got := scoped.HTTPKey("hf", "index.json"); got != "origin:1:http:hf:index.json" {
		t.Errorf("ScopedKeyer HTTPKey unexpected: %s", got)
	}

	keys := []string{
		scoped.ManifestKey("o", "m"),
		scoped.ChunkKey("s", "c", 3),
		scoped.EpochKey("s"),
		scoped.GraphKey("m", GraphKeyOpts{}),
		scoped.LayoutKey("h", LayoutKeyOpts{}),
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, "origin:1:") {
			t.Errorf("ScopedKeyer key should be prefixed: %s", k)
		}
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.HTTPKey("test", "key")
	if key != "prefix:http:test:key" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "value" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}
	if err := c.Set(ctx, "k", []byte("newer"), 0); err != nil {
		t.Fatalf("Set overwrite error: %v", err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != "newer" {
		t.Errorf("Get after overwrite = %q", data)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)

	ctx := context.Background()
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n < 2 {
		t.Errorf("Clear removed %d entries, want at least 2", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestFileCache_Expired(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestFileCache_CorruptEntry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(context.Background(), "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v; want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	exerciseCache(t, c)

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	_ = c.Set(ctx, "ttl", []byte("v"), time.Minute)
	if _, hit, _ := c.Get(ctx, "ttl"); !hit {
		t.Error("entry should be live before its ttl")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "ttl"); hit {
		t.Error("entry should expire after its ttl")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want expired entry evicted", c.Len())
	}

	buf := []byte("abc")
	_ = c.Set(ctx, "copy", buf, 0)
	buf[0] = 'x'
	if data, _, _ := c.Get(ctx, "copy"); string(data) != "abc" {
		t.Errorf("Set should copy its input, got %q", data)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		opts    Options
		check   func(Cache) bool
		wantErr bool
	}{
		{"default memory", Options{}, func(c Cache) bool { _, ok := c.(*MemoryCache); return ok }, false},
		{"default file", Options{Dir: t.TempDir()}, func(c Cache) bool { _, ok := c.(*FileCache); return ok }, false},
		{"none", Options{Backend: BackendNone}, func(c Cache) bool { _, ok := c.(*NullCache); return ok }, false},
		{"file without dir", Options{Backend: BackendFile}, nil, true},
		{"unknown", Options{Backend: "etcd"}, nil, true},
		{"bad redis url", Options{Backend: BackendRedis, RedisURL: "not a url"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(ctx, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				defer c.Close()
				if !tt.check(c) {
					t.Errorf("Open() = %T", c)
				}
			}
		})
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("UNFORMER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("UNFORMER_TEST_REDIS_URL not set")
	}
	c, err := NewRedisCache(context.Background(), url, "unformer-test:")
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)
}

func TestMongoCache(t *testing.T) {
	uri := os.Getenv("UNFORMER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("UNFORMER_TEST_MONGO_URI not set")
	}
	c, err := NewMongoCache(context.Background(), uri, "unformer_test", "cache")
	if err != nil {
		t.Fatalf("NewMongoCache error: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)
}
