// Package layered implements an in-process layered (Sugiyama-style) layout
// engine on top of pkg/dag.
//
// Each level of the nested layout tree becomes a DAG: cycles are broken,
// nodes are assigned to rows by longest path, edges spanning several rows
// are subdivided and rows are ordered to reduce crossings. Rows are then
// stacked along the flow direction and centered on the cross axis. Edge
// routes run through the subdivider positions.
package layered

import (
	"context"

	"github.com/matzehuels/unformer/pkg/dag"
	"github.com/matzehuels/unformer/pkg/dag/transform"
	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/layout"
)

// Name identifies the engine in configuration and on the command line.
const Name = "layered"

// DefaultPasses is the number of crossing reduction sweeps.
const DefaultPasses = 4

const linkKey = "links"

// Engine is the layered layout engine. The zero value uses DefaultPasses.
type Engine struct {
	Passes int
}

// New returns an engine with default settings.
func New() *Engine { return &Engine{Passes: DefaultPasses} }

// Name implements layout.Engine.
func (e *Engine) Name() string { return Name }

// Layout implements layout.Engine.
func (e *Engine) Layout(ctx context.Context, root *layout.Node) (*layout.Result, error) {
	return layout.Nested(ctx, root, e.flat)
}

func (e *Engine) flat(ctx context.Context, blocks []layout.Block, links []layout.Link, opts layout.Options) (*layout.Placement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	passes := e.Passes
	if passes < 1 {
		passes = DefaultPasses
	}
	horizontal := opts.Direction.Horizontal()

	g := dag.New(nil)
	for _, b := range blocks {
		along, across := b.Width, b.Height
		if horizontal {
			along, across = b.Height, b.Width
		}
		if err := g.AddNode(dag.Node{ID: b.ID, Width: along, Height: across}); err != nil {
			return nil, err
		}
	}

	// Parallel links between the same blocks share one DAG edge. The link
	// list lives in the edge's metadata map, which the graph shares.
	pairs := make(map[[2]string]*dag.Edge)
	for _, l := range links {
		key := [2]string{l.Source, l.Target}
		if e, ok := pairs[key]; ok {
			if l.Direct {
				e.Meta[linkKey] = append(e.Meta[linkKey].([]string), l.ID)
			}
			continue
		}
		ids := []string{}
		if l.Direct {
			ids = append(ids, l.ID)
		}
		e := dag.Edge{From: l.Source, To: l.Target, Meta: dag.Metadata{linkKey: ids}}
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
		pairs[key] = &e
	}

	transform.Prepare(g, passes)

	p := place(g, opts)
	p.Routes = route(g, p.centers, horizontal)
	return p.Placement, nil
}

type placement struct {
	*layout.Placement
	centers map[string]graph.Point
}

// place assigns coordinates in (along, across) space and maps them to (x, y).
// Along runs within a row, across runs from row to row.
func place(g *dag.DAG, opts layout.Options) placement {
	horizontal := opts.Direction.Horizontal()
	rows := g.RowIDs()

	thickness := make([]float64, len(rows))
	widths := make([]float64, len(rows))
	var maxWidth float64
	for i, r := range rows {
		nodes := g.NodesInRow(r)
		for j, n := range nodes {
			thickness[i] = max(thickness[i], n.Height)
			widths[i] += n.Width
			if j > 0 {
				widths[i] += opts.NodeSpacing
			}
		}
		maxWidth = max(maxWidth, widths[i])
	}

	p := placement{
		Placement: &layout.Placement{Positions: make(map[string]graph.Point)},
		centers:   make(map[string]graph.Point),
	}
	var across float64
	for i, r := range rows {
		along := (maxWidth - widths[i]) / 2
		for _, n := range g.NodesInRow(r) {
			a := along
			c := across + (thickness[i]-n.Height)/2
			along += n.Width + opts.NodeSpacing

			var pos, center graph.Point
			if horizontal {
				pos = graph.Point{X: c, Y: a}
				center = graph.Point{X: c + n.Height/2, Y: a + n.Width/2}
			} else {
				pos = graph.Point{X: a, Y: c}
				center = graph.Point{X: a + n.Width/2, Y: c + n.Height/2}
			}
			p.centers[n.ID] = center
			if !n.IsSubdivider() {
				p.Positions[n.ID] = pos
			}
		}
		across += thickness[i]
		if i+1 < len(rows) {
			across += opts.LayerSpacing
		}
	}

	if horizontal {
		p.Width, p.Height = across, maxWidth
	} else {
		p.Width, p.Height = maxWidth, across
	}
	return p
}

// route follows every subdivided chain from its real source to its real
// target. Points run from the source's exit side through the subdividers to
// the target's entry side.
func route(g *dag.DAG, centers map[string]graph.Point, horizontal bool) map[string][]graph.Point {
	routes := make(map[string][]graph.Point)
	for _, e := range g.Edges() {
		src, _ := g.Node(e.From)
		if src.IsSubdivider() {
			continue
		}
		ids, _ := e.Meta[linkKey].([]string)
		if len(ids) == 0 {
			continue
		}

		pts := []graph.Point{exit(src, centers[src.ID], horizontal)}
		to := e.To
		for {
			n, _ := g.Node(to)
			if !n.IsSubdivider() {
				pts = append(pts, entry(n, centers[n.ID], horizontal))
				break
			}
			pts = append(pts, centers[n.ID])
			children := g.Children(n.ID)
			if len(children) == 0 {
				break
			}
			to = children[0]
		}
		for _, id := range ids {
			routes[id] = pts
		}
	}
	return routes
}

func exit(n *dag.Node, c graph.Point, horizontal bool) graph.Point {
	if horizontal {
		return graph.Point{X: c.X + n.Height/2, Y: c.Y}
	}
	return graph.Point{X: c.X, Y: c.Y + n.Height/2}
}

func entry(n *dag.Node, c graph.Point, horizontal bool) graph.Point {
	if horizontal {
		return graph.Point{X: c.X - n.Height/2, Y: c.Y}
	}
	return graph.Point{X: c.X, Y: c.Y - n.Height/2}
}
