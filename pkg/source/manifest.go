package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/tree"
)

// LayoutChunkedV1 is the only chunk layout this package understands.
const LayoutChunkedV1 = "chunked_v1"

// Well-known chunk keys.
const (
	ChunkConfig      = "model.config"
	ChunkTree        = "modules.tree"
	ChunkCompactTree = "modules.compact_tree"
	ChunkFlat        = "modules.flat"
	ChunkFlatCompact = "modules.flat_compact"
	ChunkTrace       = "trace"
)

// Compression names the encoding of chunk files.
type Compression string

const (
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionNone Compression = "none"
)

// Valid reports whether c is a supported compression.
func (c Compression) Valid() bool {
	switch c {
	case CompressionGzip, CompressionZstd, CompressionNone:
		return true
	}
	return false
}

// Suffix returns the file suffix used for chunks with this compression.
func (c Compression) Suffix() string {
	switch c {
	case CompressionGzip:
		return ".json.gz"
	case CompressionZstd:
		return ".json.zst"
	default:
		return ".json"
	}
}

// ChunkFilename returns the file name a chunk key is stored under.
func ChunkFilename(key string, c Compression) string {
	return strings.ReplaceAll(key, "/", "_") + c.Suffix()
}

var unsafeRun = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SafeModelDir maps a model id such as "org/name" to its directory name
// ("org__name").
func SafeModelDir(id string) string {
	s := unsafeRun.ReplaceAllString(strings.TrimSpace(id), "__")
	if s == "" {
		return "model"
	}
	return s
}

// ChunkItem describes one chunk file of a manifest.
type ChunkItem struct {
	Key       string `json:"key"`
	Path      string `json:"path,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Present   bool   `json:"present"`
}

// Chunks is the "chunks" section of a manifest.
type Chunks struct {
	Layout      string              `json:"layout"`
	BaseDir     string              `json:"base_dir"`
	Compression Compression         `json:"compression"`
	Items       []ChunkItem         `json:"items"`
	Groups      map[string][]string `json:"groups,omitempty"`
}

// Manifest is a model.json file. When Chunks is nil the file is a complete
// model document and Document carries its trees.
type Manifest struct {
	SchemaVersion any            `json:"schema_version,omitempty"`
	GeneratedAt   string         `json:"generated_at,omitempty"`
	Status        string         `json:"status,omitempty"`
	Model         map[string]any `json:"model,omitempty"`
	Chunks        *Chunks        `json:"chunks,omitempty"`

	// Document is set for unchunked model files.
	Document *tree.Document `json:"-"`
}

// ParseManifest decodes and validates a model.json file.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode manifest")
	}
	if m.Chunks == nil {
		var doc tree.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode model document")
		}
		if doc.Modules == nil {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "model file has neither chunks nor modules")
		}
		m.Document = &doc
		return &m, nil
	}
	if err := m.Chunks.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Chunks) validate() error {
	if c.Layout != LayoutChunkedV1 {
		return errors.New(errors.ErrCodeInvalidManifest, "unsupported chunk layout %q", c.Layout)
	}
	if c.Compression == "" {
		c.Compression = CompressionNone
	}
	if !c.Compression.Valid() {
		return errors.New(errors.ErrCodeInvalidManifest, "unsupported compression %q", c.Compression)
	}
	for _, it := range c.Items {
		if !it.Present {
			continue
		}
		if it.Path == "" {
			return errors.New(errors.ErrCodeInvalidManifest, "chunk %q is present but has no path", it.Key)
		}
		if err := errors.ValidatePath(it.Path); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidManifest, err, "chunk %q", it.Key)
		}
	}
	return nil
}

// Chunked reports whether the manifest references chunk files.
func (m *Manifest) Chunked() bool { return m.Chunks != nil }

// ModelID returns model.id, or "" when absent.
func (m *Manifest) ModelID() string {
	id, _ := m.Model["id"].(string)
	return id
}

// Item returns the chunk item for key.
func (m *Manifest) Item(key string) (ChunkItem, bool) {
	if m.Chunks == nil {
		return ChunkItem{}, false
	}
	for _, it := range m.Chunks.Items {
		if it.Key == key {
			return it, true
		}
	}
	return ChunkItem{}, false
}

// Has reports whether key is listed and present.
func (m *Manifest) Has(key string) bool {
	it, ok := m.Item(key)
	return ok && it.Present
}

// TreeKeys returns the chunk keys to try for a view, preferred first.
// The compact view falls back to the full tree and vice versa.
func TreeKeys(compact bool) []string {
	if compact {
		return []string{ChunkCompactTree, ChunkTree}
	}
	return []string{ChunkTree, ChunkCompactTree}
}

func (it ChunkItem) String() string {
	if !it.Present {
		return fmt.Sprintf("%s (absent)", it.Key)
	}
	return fmt.Sprintf("%s -> %s (%d bytes)", it.Key, it.Path, it.SizeBytes)
}
