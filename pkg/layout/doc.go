// Package layout positions a built [graph.Graph].
//
// The [Adapter] turns the flat node and edge lists plus the containment
// scope of a graph into a nested layout tree, hands it to an [Engine] in a
// single call and maps the engine's parent-relative frames back to global
// coordinates. Each container lays out its own children: flow edges go top
// to bottom for indexed children and left to right for parallel branches.
//
// Edges between a node and one of its structural ancestors are never passed
// to an engine; nesting already expresses them. Every other edge is hosted by
// the lowest container that holds both endpoints.
//
// # Engines
//
// Engines implement [Engine]. Most only know how to lay out a single flat
// level of boxes and arrows; [Nested] lifts such a [FlatFunc] to a full
// engine by laying out containers bottom-up. Two engines ship with the
// module:
//
//   - layered: an in-process Sugiyama layout built on pkg/dag
//   - graphviz: Graphviz dot via WebAssembly
//
// # Asynchronous Layout
//
// Layout may be slow for large graphs. The [Scheduler] runs every request on
// its own goroutine and tags it with a monotonically increasing token from a
// [Tracker]; only the result for the latest token is applied, older ones
// are reported as stale and dropped.
package layout
