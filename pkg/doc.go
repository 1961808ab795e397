// Package pkg provides the core libraries of unformer.
//
// # Overview
//
// Unformer turns the module tree of a neural network (as exported by a model
// inspector) into a laid-out diagram. Repeated blocks collapse into stacks,
// sibling modules are classified as sequential or parallel, and every expanded
// module becomes a nested container in the final layout.
//
// # Architecture
//
// The typical data flow:
//
//	Model origin (directory or HTTP)
//	         ↓
//	    [source] package (index, manifests, chunk loading)
//	         ↓
//	    [tree] package (decode + normalize, [tree/transform] for stacks)
//	         ↓
//	    [flow] package (stage and flow-mode classification)
//	         ↓
//	    [graph] package (visible nodes, edges and scopes)
//	         ↓
//	    [layout] package (nested layout over [layout/layered] or [layout/graphviz])
//	         ↓
//	    [render] package (JSON, DOT, SVG)
//
// [pipeline] ties the stages together with caching through [cache].
//
// # Quick Start
//
//	resolver := source.NewResolver(source.NewDirOrigin("./models"))
//	runner := pipeline.NewRunner(resolver, cache.NewMemoryCache(), nil, nil)
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Model:     "openai/gpt2",
//	    AutoDepth: pipeline.Depth(2),
//	    Formats:   []string{"svg"},
//	})
//
// # Supporting Packages
//
// [dag] and [dag/transform] hold the layered graph used by the layered
// engine. [httputil] is the cached, retrying HTTP client for remote origins.
// [watch] reports changes to local model files. [observability] exposes
// pipeline hooks. [errors] defines the coded errors shared by all packages.
// [buildinfo] carries the version stamped at build time.
//
// [source]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/source
// [tree]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/tree
// [tree/transform]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/tree/transform
// [flow]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/flow
// [graph]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/layout
// [layout/layered]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/layout/layered
// [layout/graphviz]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/layout/graphviz
// [render]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/cache
// [dag]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/dag/transform
// [httputil]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/httputil
// [watch]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/watch
// [observability]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/unformer/pkg/buildinfo
package pkg
