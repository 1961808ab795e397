package graph_test

import (
	"fmt"

	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/tree"
)

func ExampleBuild() {
	raw, _ := tree.Decode([]byte(`{
		"name": "encoder", "path": "encoder", "class": "BertEncoder",
		"children": [
			{"name": "0", "path": "encoder/0", "class": "BertLayer"},
			{"name": "1", "path": "encoder/1", "class": "BertLayer"},
			{"name": "2", "path": "encoder/2", "class": "BertLayer"}
		]
	}`))
	root := tree.Normalize(raw, 0)

	full := graph.Build(root, graph.Options{AutoDepth: 1, ViewMode: graph.ViewFull})
	for _, e := range full.Edges {
		fmt.Println(e.ID)
	}

	compact := graph.Build(root, graph.Options{AutoDepth: 1, ViewMode: graph.ViewCompact})
	fmt.Println(len(compact.Nodes), compact.Nodes[1].ID)
	// Output:
	// structure:encoder=>encoder/0
	// structure:encoder=>encoder/1
	// flow:encoder/0=>encoder/1
	// structure:encoder=>encoder/2
	// flow:encoder/1=>encoder/2
	// 2 encoder::stack:0..2
}
