package pipeline

import (
	"context"
	"os"

	"github.com/matzehuels/unformer/pkg/cache"
	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/source"
	"github.com/matzehuels/unformer/pkg/tree"
)

// LoadFile reads a model document or bare tree from path. Gzip and zstd
// files are decompressed. compact selects the compact tree of a document
// when it has one.
func LoadFile(path string, compact bool) (tree.RawNode, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tree.RawNode{}, nil, errors.Wrap(errors.ErrCodeNotFound, err, "read %s", path)
		}
		return tree.RawNode{}, nil, err
	}
	data, err = source.Decompress(data, source.Detect(path, data))
	if err != nil {
		return tree.RawNode{}, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decompress %s", path)
	}
	raw, err := tree.DecodeView(data, compact)
	if err != nil {
		return tree.RawNode{}, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", path)
	}
	return raw, data, nil
}

// Prepare validates and normalizes raw.
func Prepare(raw tree.RawNode) (*tree.Node, error) {
	if err := tree.Validate(raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid module tree")
	}
	return tree.Normalize(raw, 0), nil
}

// load returns the raw tree for opts, from the file when one is set.
func (r *Runner) load(ctx context.Context, opts Options) (tree.RawNode, string, error) {
	if opts.File != "" {
		raw, data, err := LoadFile(opts.File, opts.Compact())
		if err != nil {
			return tree.RawNode{}, "", err
		}
		return raw, "file:" + cache.Hash(data), nil
	}
	if r.Resolver == nil {
		return tree.RawNode{}, "", errors.New(errors.ErrCodeInvalidInput, "no model origin configured")
	}
	raw, err := r.Resolver.Tree(ctx, opts.Model, opts.Compact())
	if err != nil {
		return tree.RawNode{}, "", err
	}
	return raw, r.modelKey(opts), nil
}
