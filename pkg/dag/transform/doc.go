// Package transform prepares a DAG for layered drawing.
//
// The classic layered pipeline runs, in order:
//
//	transform.BreakCycles(g)  // reverse nothing, drop back edges
//	transform.AssignLayers(g) // longest-path rows
//	transform.Subdivide(g)    // dummy nodes on long edges
//	transform.OrderRows(g, 4) // barycenter sweeps plus adjacent swaps
//
// [Prepare] applies all four.
//
// # Cycle Breaking
//
// [BreakCycles] removes the back edges found by a depth-first search started
// from the sources. Flow graphs produced by the compiler are acyclic, so
// this only guards against hand-written input.
//
// # Layer Assignment
//
// [AssignLayers] puts every node one row below its deepest predecessor using
// Kahn's topological traversal.
//
// # Edge Subdivision
//
// [Subdivide] replaces every edge spanning k>1 rows by a chain of k-1
// zero-size subdivider nodes, so that all edges connect consecutive rows:
//
//	Before: embed (row 0) → head (row 3)
//	After:  embed → embed_sub_1 → embed_sub_2 → head
//
// # Row Ordering
//
// [OrderRows] reduces crossings with alternating down and up barycenter
// sweeps followed by adjacent-swap refinement, keeping the best ordering
// seen according to dag.CountCrossings.
package transform
