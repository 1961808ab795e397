package graph

import (
	"math"
	"unicode/utf8"

	"github.com/matzehuels/unformer/pkg/flow"
	"github.com/matzehuels/unformer/pkg/tree"
	"github.com/matzehuels/unformer/pkg/tree/transform"
)

// Build compiles root into a presentation graph. A nil root yields an empty
// graph. Build does not modify the tree.
func Build(root *tree.Node, opts Options) *Graph {
	b := &builder{
		opts:       opts,
		classifier: flow.NewClassifier(),
		seen:       make(map[string]struct{}),
		g:          &Graph{NodeMap: make(map[string]*NodeData)},
	}
	if root != nil {
		b.g.Root = b.visit(root, "")
	}
	return b.g
}

type builder struct {
	opts       Options
	classifier *flow.Classifier
	seen       map[string]struct{}
	g          *Graph
}

// expanded applies the expansion rule: override, then collapsed stays
// closed, then the auto depth.
func (b *builder) expanded(n *tree.Node) bool {
	if v, ok := b.opts.Expanded[n.Path]; ok {
		return v
	}
	if n.IsCollapsed() {
		return false
	}
	return n.Depth < b.opts.AutoDepth
}

// visibleChildren returns the children shown under n, or nil when n is
// closed. Expanded stacks are replaced in place by their split parts.
func (b *builder) visibleChildren(n *tree.Node) []*tree.Node {
	if n.IsCollapsed() || !n.HasChildren() || !b.expanded(n) {
		return nil
	}
	children := n.Children
	if b.opts.ViewMode != ViewFull {
		children = transform.CollapseRepeats(n.Path, children)
	}
	return b.explode(children)
}

func (b *builder) explode(nodes []*tree.Node) []*tree.Node {
	out := make([]*tree.Node, 0, len(nodes))
	for _, c := range nodes {
		if c.IsCollapsed() && b.expanded(c) {
			if parts := transform.SplitCollapsed(c, b.opts.SplitSize); len(parts) > 0 {
				out = append(out, b.explode(parts)...)
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func (b *builder) visit(n *tree.Node, parentID string) *Scope {
	children := b.visibleChildren(n)
	container := len(children) > 0

	data := b.nodeData(n, container)
	node := Node{ID: n.Path, ParentID: parentID, Data: data}
	if container {
		node.Type = TypeContainer
	} else {
		node.Type = TypeModule
	}
	node.Width, node.Height = geometry(data, container)
	b.g.Nodes = append(b.g.Nodes, node)
	b.g.NodeMap[n.Path] = data

	scope := &Scope{ID: n.Path}
	if !container {
		return scope
	}

	res := flow.ResolveFlowMode(n, children)
	scope.Mode = res.Mode
	data.FlowMode = res.Mode

	if res.Mode == flow.ModeParallel {
		for _, c := range res.Order {
			b.addEdge(ClassFlow, n.Path, c.Path)
		}
	} else {
		for i, c := range res.Order {
			b.addEdge(ClassStructure, n.Path, c.Path)
			if i > 0 {
				b.addEdge(ClassFlow, res.Order[i-1].Path, c.Path)
			}
		}
	}

	scope.Children = make([]*Scope, 0, len(res.Order))
	for _, c := range res.Order {
		scope.Children = append(scope.Children, b.visit(c, n.Path))
	}
	return scope
}

func (b *builder) addEdge(class, source, target string) {
	id := EdgeID(class, source, target)
	if _, dup := b.seen[id]; dup {
		return
	}
	b.seen[id] = struct{}{}
	e := Edge{ID: id, Source: source, Target: target, Class: class}
	b.g.Edges = append(b.g.Edges, e)
	if class == ClassFlow {
		b.g.LayoutEdges = append(b.g.LayoutEdges, e)
	}
}

func (b *builder) nodeData(n *tree.Node, container bool) *NodeData {
	d := &NodeData{
		Label:            n.Label(),
		Path:             n.Path,
		ClassName:        n.ClassName,
		Kind:             n.Kind,
		Role:             b.classifier.Stage(n),
		Depth:            n.Depth,
		HasChildren:      n.HasChildren(),
		Expanded:         container,
		Collapsed:        n.IsCollapsed(),
		Synthetic:        n.Synthetic,
		IndexStart:       n.IndexStart,
		IndexEnd:         n.IndexEnd,
		Parameters:       n.Parameters,
		Buffers:          n.Buffers,
		Tags:             n.Tags,
		ParameterDetails: n.ParameterDetails,
		BufferDetails:    n.BufferDetails,
	}
	if n.IsCollapsed() || n.Repeat != nil {
		d.Repeat = n.RepeatCount()
	}
	if n.IsCollapsed() && n.HasRangeIndex() {
		d.HasChildren = true
	}
	return d
}

// geometry sizes a node box from its longest text line.
func geometry(d *NodeData, container bool) (w, h float64) {
	chars := max(utf8.RuneCountInString(d.Label), utf8.RuneCountInString(d.ClassName))
	w = math.Ceil(float64(chars)*charWidth + labelPadding)

	switch {
	case container:
		return max(w, minContainerWidth), minContainerHeight
	case d.Collapsed:
		return max(w, minModuleWidth), collapsedHeight
	default:
		return max(w, minModuleWidth), moduleHeight
	}
}
