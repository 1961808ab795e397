package tree_test

import (
	"fmt"

	"github.com/matzehuels/unformer/pkg/tree"
)

func ExampleNormalize() {
	raw, err := tree.Decode([]byte(`{
		"name": "encoder", "path": "encoder", "class": "BertEncoder",
		"children": [
			{"name": "0", "path": "encoder/0", "class": "BertLayer"},
			{"name": "1", "path": "encoder/1", "class": "BertLayer"}
		]
	}`))
	if err != nil {
		panic(err)
	}
	if err := tree.Validate(raw); err != nil {
		panic(err)
	}

	root := tree.Normalize(raw, 0)
	fmt.Println(root.Kind, len(root.Children))
	fmt.Println(root.Children[1].Kind, *root.Children[1].Index, root.Children[1].Depth)
	// Output:
	// container 2
	// leaf 1 1
}
