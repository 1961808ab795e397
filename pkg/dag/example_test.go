package dag_test

import (
	"fmt"

	"github.com/matzehuels/unformer/pkg/dag"
)

func ExampleDAG_rows() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "embed", Row: 0})
	_ = g.AddNode(dag.Node{ID: "attn", Row: 1})
	_ = g.AddNode(dag.Node{ID: "mlp", Row: 1})
	_ = g.AddEdge(dag.Edge{From: "embed", To: "attn"})
	_ = g.AddEdge(dag.Edge{From: "embed", To: "mlp"})

	fmt.Println("Rows:", g.RowIDs())
	fmt.Println("Row 1:", dag.NodeIDs(g.NodesInRow(1)))
	g.SetRowOrder(1, []string{"mlp", "attn"})
	fmt.Println("Reordered:", dag.NodeIDs(g.NodesInRow(1)))
	fmt.Println("Valid:", g.Validate() == nil)
	// Output:
	// Rows: [0 1]
	// Row 1: [attn mlp]
	// Reordered: [mlp attn]
	// Valid: true
}

func ExampleCountLayerCrossings() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "q", Row: 0})
	_ = g.AddNode(dag.Node{ID: "k", Row: 0})
	_ = g.AddNode(dag.Node{ID: "q_proj", Row: 1})
	_ = g.AddNode(dag.Node{ID: "k_proj", Row: 1})
	_ = g.AddEdge(dag.Edge{From: "q", To: "q_proj"})
	_ = g.AddEdge(dag.Edge{From: "k", To: "k_proj"})

	fmt.Println("Crossings:", dag.CountLayerCrossings(g, []string{"q", "k"}, []string{"k_proj", "q_proj"}))
	fmt.Println("Aligned:", dag.CountLayerCrossings(g, []string{"q", "k"}, []string{"q_proj", "k_proj"}))
	// Output:
	// Crossings: 1
	// Aligned: 0
}
