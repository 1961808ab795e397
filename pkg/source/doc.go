// Package source resolves model identifiers to module trees.
//
// Models are published as directories under an origin (a local directory or
// an HTTP base URL). Each model directory holds a model.json that is either
// a complete model document or a chunked manifest:
//
//	<origin>/
//	  index.json                    # optional model listing
//	  org__name/
//	    model.json                  # manifest (chunks.layout = chunked_v1)
//	    chunks/modules.tree.json.gz
//	    chunks/modules.compact_tree.json.gz
//
// A [Resolver] reads the index and manifests, fetches and decompresses
// chunks (gzip, zstd or none), and caches decoded chunk bytes in a
// [ChunkCache]. Concurrent requests for the same chunk share one fetch.
//
// The compiler only sees the result of [Resolver.Tree]: a decoded
// tree.RawNode. Transport, compression and caching stay behind this package.
package source
