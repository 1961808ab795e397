// Package tree defines the module tree of a neural network and the normalizer
// that turns untrusted raw records into canonical tree nodes.
//
// # Overview
//
// A model is described upstream as a nested JSON document: every module has a
// name, a globally unique slash-delimited path, an optional class name, tags,
// parameter and buffer statistics and its child modules. The [RawNode] type
// mirrors that wire shape; [Node] is the canonical in-memory form used by the
// rest of the compiler.
//
// # Decoding and Validation
//
// [Decode] accepts either a bare tree or a full model document and returns the
// root [RawNode]. [Validate] checks identity at the boundary: every path must
// be non-empty and unique across the whole tree. Callers are expected to
// validate before normalizing; [Normalize] itself never fails.
//
//	raw, err := tree.Decode(data)
//	if err != nil {
//	    return err
//	}
//	if err := tree.Validate(raw); err != nil {
//	    return err
//	}
//	root := tree.Normalize(raw, 0)
//
// # Statistics
//
// Parameter and buffer summaries carry a "self" part (owned directly) and a
// "total" part (owned plus all descendants). For well-formed input a node's
// total equals its self plus the totals of its children. [Stats.Add] is the
// element-wise sum used by the collapser in the [transform] subpackage.
//
// # Flattening
//
// [Flatten] produces a flat node and edge listing of the tree, and [Summarize]
// computes aggregate counts for display.
//
// [transform]: github.com/matzehuels/unformer/pkg/tree/transform
package tree
