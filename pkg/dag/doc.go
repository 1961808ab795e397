// Package dag provides the row-organized directed acyclic graph used by the
// layered layout engine.
//
// # Overview
//
// Layered drawing (the Sugiyama framework) places nodes on horizontal rows
// so that edges point downwards, then orders each row to reduce crossings.
// A [DAG] stores nodes together with their row and keeps, per row, a
// left-to-right order that ordering heuristics rewrite with
// [DAG.SetRowOrder].
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "embed", Width: 120, Height: 44})
//	g.AddNode(dag.Node{ID: "layers", Width: 220, Height: 120})
//	g.AddEdge(dag.Edge{From: "embed", To: "layers"})
//
// All iteration is in insertion order, which keeps layouts reproducible.
//
// # Node Kinds
//
// [NodeKindRegular] nodes stand for boxes in the drawing. [NodeKindSubdivider]
// nodes are zero-size dummies placed on edges that span several rows; once
// positioned they become the bend points of the routed edge.
//
// # Edge Crossings
//
// [CountLayerCrossings] counts crossings between two rows with a Fenwick tree
// in O(E log V); [CountCrossings] sums it over the whole graph and
// [CountPairCrossings] supports adjacent-swap refinement.
//
// # Related Packages
//
// The [transform] subpackage breaks cycles, assigns rows and subdivides long
// edges.
//
// [transform]: github.com/matzehuels/unformer/pkg/dag/transform
package dag
