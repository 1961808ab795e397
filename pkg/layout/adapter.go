package layout

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/unformer/pkg/flow"
	"github.com/matzehuels/unformer/pkg/graph"
)

// Config holds the adapter's spacing parameters.
type Config struct {
	// Container applies to every container; Direction is overridden by the
	// container's flow mode.
	Container Options
	// Margin is the minimum distance between the drawing and the origin.
	Margin float64
}

// DefaultConfig returns the spacing used by the CLI and the HTTP API.
// Containers reserve room at the top for their header.
func DefaultConfig() Config {
	return Config{
		Container: Options{
			LayerSpacing: 48,
			NodeSpacing:  24,
			Padding:      Padding{Top: 44, Right: 20, Bottom: 20, Left: 20},
		},
		Margin: 20,
	}
}

// Adapter positions built graphs with an [Engine].
type Adapter struct {
	Engine Engine
	Config Config
}

// NewAdapter returns an adapter using engine and [DefaultConfig].
func NewAdapter(engine Engine) *Adapter {
	return &Adapter{Engine: engine, Config: DefaultConfig()}
}

// Layout returns a positioned copy of g; g itself is not modified. The
// engine is invoked exactly once. Nodes the engine did not position are
// passed through with Positioned unset. The returned LayoutEdges are the
// edges that were actually handed to the engine.
func (a *Adapter) Layout(ctx context.Context, g *graph.Graph) (*graph.Graph, error) {
	if a.Engine == nil {
		return nil, ErrNoEngine
	}
	if g == nil || g.Root == nil || g.Empty() {
		return &graph.Graph{NodeMap: make(map[string]*graph.NodeData)}, nil
	}

	nodeIndex := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		nodeIndex[n.ID] = i
	}
	idx := newScopeIndex(g.Root)
	hosted := idx.hostEdges(g.LayoutEdges)
	root := a.nest(g, nodeIndex, g.Root, hosted)

	res, err := a.Engine.Layout(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("%s layout: %w", a.Engine.Name(), err)
	}

	out := copyGraph(g)
	origins := make(map[string]graph.Point)
	var place func(sc *graph.Scope, origin graph.Point)
	place = func(sc *graph.Scope, origin graph.Point) {
		f, ok := res.Frames[sc.ID]
		if !ok {
			return
		}
		at := graph.Point{X: origin.X + f.X, Y: origin.Y + f.Y}
		origins[sc.ID] = at
		if i, ok := nodeIndex[sc.ID]; ok {
			n := &out.Nodes[i]
			n.X, n.Y = at.X, at.Y
			n.Width, n.Height = f.Width, f.Height
			n.Positioned = true
		}
		for _, c := range sc.Children {
			place(c, at)
		}
	}
	place(g.Root, graph.Point{})

	routes := make(map[string][]graph.Point)
	for host, edges := range hosted {
		origin, ok := origins[host]
		if !ok {
			continue
		}
		for _, e := range edges {
			if pts, ok := res.Routes[e.ID]; ok && len(pts) > 0 {
				routes[e.ID] = translate(pts, origin.X, origin.Y)
			}
		}
	}

	out.LayoutEdges = out.LayoutEdges[:0]
	for _, e := range g.LayoutEdges {
		if _, ok := idx.host(e); ok {
			e.Points = routes[e.ID]
			out.LayoutEdges = append(out.LayoutEdges, e)
		}
	}
	for i := range out.Edges {
		out.Edges[i].Points = routes[out.Edges[i].ID]
	}

	normalize(out, a.Config.Margin)
	return out, nil
}

func (a *Adapter) nest(g *graph.Graph, nodeIndex map[string]int, sc *graph.Scope, hosted map[string][]graph.Edge) *Node {
	n := &Node{ID: sc.ID}
	if i, ok := nodeIndex[sc.ID]; ok {
		n.Width, n.Height = g.Nodes[i].Width, g.Nodes[i].Height
	}
	if !sc.IsContainer() {
		return n
	}

	n.Options = a.Config.Container
	n.Options.Direction = DirectionDown
	if sc.Mode == flow.ModeParallel {
		n.Options.Direction = DirectionRight
	}
	for _, e := range hosted[sc.ID] {
		n.Edges = append(n.Edges, Edge{ID: e.ID, Source: e.Source, Target: e.Target})
	}
	n.Children = make([]*Node, len(sc.Children))
	for i, c := range sc.Children {
		n.Children[i] = a.nest(g, nodeIndex, c, hosted)
	}
	return n
}

// scopeIndex answers ancestor queries over the containment scope. It is
// built once per layout call.
type scopeIndex struct {
	parent map[string]string
	depth  map[string]int
}

func newScopeIndex(root *graph.Scope) *scopeIndex {
	idx := &scopeIndex{parent: make(map[string]string), depth: make(map[string]int)}
	root.Walk(func(sc, parent *graph.Scope) {
		if parent == nil {
			idx.depth[sc.ID] = 0
			return
		}
		idx.parent[sc.ID] = parent.ID
		idx.depth[sc.ID] = idx.depth[parent.ID] + 1
	})
	return idx
}

// isAncestor reports whether a is a proper ancestor of b.
func (idx *scopeIndex) isAncestor(a, b string) bool {
	for p, ok := idx.parent[b]; ok; p, ok = idx.parent[p] {
		if p == a {
			return true
		}
	}
	return false
}

// host returns the lowest common ancestor of the edge's endpoints. It fails
// for unknown endpoints, self loops and ancestor-descendant pairs.
func (idx *scopeIndex) host(e graph.Edge) (string, bool) {
	da, okA := idx.depth[e.Source]
	db, okB := idx.depth[e.Target]
	if !okA || !okB || e.Source == e.Target {
		return "", false
	}
	if idx.isAncestor(e.Source, e.Target) || idx.isAncestor(e.Target, e.Source) {
		return "", false
	}
	a, b := e.Source, e.Target
	for ; da > db; da-- {
		a = idx.parent[a]
	}
	for ; db > da; db-- {
		b = idx.parent[b]
	}
	for a != b {
		a, b = idx.parent[a], idx.parent[b]
	}
	return a, true
}

func (idx *scopeIndex) hostEdges(edges []graph.Edge) map[string][]graph.Edge {
	hosted := make(map[string][]graph.Edge)
	for _, e := range edges {
		if h, ok := idx.host(e); ok {
			hosted[h] = append(hosted[h], e)
		}
	}
	return hosted
}

func copyGraph(g *graph.Graph) *graph.Graph {
	out := &graph.Graph{
		Nodes:       append([]graph.Node(nil), g.Nodes...),
		Edges:       append([]graph.Edge(nil), g.Edges...),
		LayoutEdges: append([]graph.Edge(nil), g.LayoutEdges...),
		NodeMap:     make(map[string]*graph.NodeData, len(g.NodeMap)),
		Root:        g.Root,
	}
	for i := range out.Nodes {
		out.Nodes[i].Positioned = false
	}
	for id, d := range g.NodeMap {
		out.NodeMap[id] = d
	}
	return out
}

// normalize shifts the whole drawing by one offset so that no positioned
// node or route point lies closer than margin to the top or left edge.
func normalize(g *graph.Graph, margin float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	for _, n := range g.Nodes {
		if n.Positioned {
			minX, minY = math.Min(minX, n.X), math.Min(minY, n.Y)
		}
	}
	for _, e := range g.Edges {
		for _, p := range e.Points {
			minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return
	}

	dx, dy := max(0, margin-minX), max(0, margin-minY)
	if dx == 0 && dy == 0 {
		return
	}
	for i := range g.Nodes {
		if g.Nodes[i].Positioned {
			g.Nodes[i].X += dx
			g.Nodes[i].Y += dy
		}
	}
	shift := func(edges []graph.Edge) {
		for i := range edges {
			edges[i].Points = translate(edges[i].Points, dx, dy)
		}
	}
	shift(g.Edges)
	shift(g.LayoutEdges)
}
