package tree

// FlatNode is a tree node without children, annotated with its depth and the
// paths of its direct children.
type FlatNode struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	ClassName string   `json:"class,omitempty"`
	Kind      Kind     `json:"kind"`
	Depth     int      `json:"depth"`
	Tags      []string `json:"tags,omitempty"`
	Params    int64    `json:"parameter_count"`
	ChildIDs  []string `json:"child_ids"`
}

// FlatEdge links a parent path to a child path.
type FlatEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Flat is the flattened form of a tree.
type Flat struct {
	Nodes []FlatNode `json:"nodes"`
	Edges []FlatEdge `json:"edges"`
}

// Flatten lists every node of the tree in depth-first pre-order together with
// one parent-to-child edge per containment relation.
func Flatten(root *Node) Flat {
	var out Flat
	if root == nil {
		return out
	}
	root.Walk(func(n *Node) bool {
		ids := make([]string, len(n.Children))
		for i, c := range n.Children {
			ids[i] = c.Path
			out.Edges = append(out.Edges, FlatEdge{Source: n.Path, Target: c.Path})
		}
		out.Nodes = append(out.Nodes, FlatNode{
			Name:      n.Name,
			Path:      n.Path,
			ClassName: n.ClassName,
			Kind:      n.Kind,
			Depth:     n.Depth,
			Tags:      n.Tags,
			Params:    n.TotalParams(),
			ChildIDs:  ids,
		})
		return true
	})
	return out
}

// TreeSummary holds aggregate counts for a tree.
type TreeSummary struct {
	Modules     int   `json:"module_count"`
	Leaves      int   `json:"leaf_count"`
	Collapsed   int   `json:"collapsed_count"`
	MaxDepth    int   `json:"max_depth"`
	Parameters  Stats `json:"parameters"`
	Buffers     Stats `json:"buffers"`
	RepeatUnits int   `json:"repeat_units"`
}

// Summarize counts the modules of a tree. Parameter and buffer totals are
// taken from the root's total summary.
func Summarize(root *Node) TreeSummary {
	var s TreeSummary
	if root == nil {
		return s
	}
	root.Walk(func(n *Node) bool {
		s.Modules++
		if n.Depth > s.MaxDepth {
			s.MaxDepth = n.Depth
		}
		switch n.Kind {
		case KindLeaf:
			s.Leaves++
		case KindCollapsed:
			s.Collapsed++
			s.RepeatUnits += n.RepeatCount()
		}
		return true
	})
	if root.Parameters != nil && root.Parameters.Total != nil {
		s.Parameters = *root.Parameters.Total
	}
	if root.Buffers != nil && root.Buffers.Total != nil {
		s.Buffers = *root.Buffers.Total
	}
	return s
}
