// Package graph compiles a module tree into a flat presentation graph.
//
// # Overview
//
// [Build] walks a canonical module tree under an expansion state and emits
// one presentation [Node] per visible module plus two classes of [Edge]:
//
//   - structure edges link a sequential container to each of its children
//   - flow edges link consecutive siblings of a sequential container, or a
//     parallel container to each of its branches (hub and spoke)
//
// Edge IDs have the form "<class>:<source>=><target>" and are unique within
// one build.
//
// # Expansion
//
// A module is expanded when the caller's override map says so; without an
// override, collapsed stacks stay closed and other modules open while their
// depth is below [Options.AutoDepth]. Expanding a collapsed stack replaces it
// in its parent with the parts produced by transform.SplitCollapsed, which
// keeps the rendered graph small even for very deep models.
//
// In compact view the children of every visible container are passed through
// transform.CollapseRepeats before expansion is decided.
//
// # Output
//
// The [Graph] result carries the flat node and edge arrays for renderers, a
// lookup map from node ID to its [NodeData], the flow edges handed to layout
// engines and a [Scope] tree mirroring the visible containment hierarchy.
//
// # Serialization
//
// [WriteGraph] and [ReadGraph] encode the result as JSON using the field
// names renderers consume.
package graph
