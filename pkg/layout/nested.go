package layout

import (
	"context"

	"github.com/matzehuels/unformer/pkg/graph"
)

// Block is a box at a single layout level.
type Block struct {
	ID     string
	Width  float64
	Height float64
}

// Link is an edge at a single layout level. Source and Target are block IDs.
// Direct is false when the edge was projected onto the blocks containing its
// real endpoints; such links constrain the arrangement but get no route.
type Link struct {
	ID     string
	Source string
	Target string
	Direct bool
}

// Placement is the result of a [FlatFunc]. Positions are top-left corners
// relative to the content origin.
type Placement struct {
	Positions map[string]graph.Point
	Routes    map[string][]graph.Point
	Width     float64
	Height    float64
}

// FlatFunc lays out one connected level of blocks. Blocks missing from the
// returned positions stay unpositioned.
type FlatFunc func(ctx context.Context, blocks []Block, links []Link, opts Options) (*Placement, error)

// Nested lays out root bottom-up with flat. Children of every container are
// split into connected components; each component is laid out on its own
// and components are packed one after another along the flow direction,
// centered on the cross axis.
func Nested(ctx context.Context, root *Node, flat FlatFunc) (*Result, error) {
	res := &Result{
		Frames: make(map[string]Frame),
		Routes: make(map[string][]graph.Point),
	}
	w, h, err := nest(ctx, root, flat, res)
	if err != nil {
		return nil, err
	}
	res.Frames[root.ID] = Frame{Width: w, Height: h}
	return res, nil
}

func nest(ctx context.Context, n *Node, flat FlatFunc, res *Result) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if len(n.Children) == 0 {
		return n.Width, n.Height, nil
	}

	blocks := make([]Block, len(n.Children))
	owner := make(map[string]string)
	for i, c := range n.Children {
		w, h, err := nest(ctx, c, flat, res)
		if err != nil {
			return 0, 0, err
		}
		blocks[i] = Block{ID: c.ID, Width: w, Height: h}
		claim(c, c.ID, owner)
	}

	var links []Link
	for _, e := range n.Edges {
		src, okS := owner[e.Source]
		dst, okD := owner[e.Target]
		if !okS || !okD || src == dst {
			continue
		}
		links = append(links, Link{
			ID:     e.ID,
			Source: src,
			Target: dst,
			Direct: src == e.Source && dst == e.Target,
		})
	}

	opts := n.Options
	pad := opts.Padding
	var (
		placed    []*Placement
		comps     [][]Block
		totalMain float64
		maxCross  float64
	)
	for _, comp := range components(blocks, links) {
		p, err := flat(ctx, comp.blocks, comp.links, opts)
		if err != nil {
			return 0, 0, err
		}
		main, cross := p.Height, p.Width
		if opts.Direction.Horizontal() {
			main, cross = p.Width, p.Height
		}
		if len(placed) > 0 {
			totalMain += opts.LayerSpacing
		}
		totalMain += main
		maxCross = max(maxCross, cross)
		placed = append(placed, p)
		comps = append(comps, comp.blocks)
	}

	var cursor float64
	for i, p := range placed {
		var dx, dy float64
		if opts.Direction.Horizontal() {
			dx, dy = cursor, (maxCross-p.Height)/2
			cursor += p.Width + opts.LayerSpacing
		} else {
			dx, dy = (maxCross-p.Width)/2, cursor
			cursor += p.Height + opts.LayerSpacing
		}
		dx += pad.Left
		dy += pad.Top

		for _, b := range comps[i] {
			pos, ok := p.Positions[b.ID]
			if !ok {
				continue
			}
			res.Frames[b.ID] = Frame{X: pos.X + dx, Y: pos.Y + dy, Width: b.Width, Height: b.Height}
		}
		for id, pts := range p.Routes {
			res.Routes[id] = translate(pts, dx, dy)
		}
	}

	contentW, contentH := maxCross, totalMain
	if opts.Direction.Horizontal() {
		contentW, contentH = totalMain, maxCross
	}
	w := max(n.Width, contentW+pad.Left+pad.Right)
	h := max(n.Height, contentH+pad.Top+pad.Bottom)
	return w, h, nil
}

func claim(n *Node, id string, owner map[string]string) {
	owner[n.ID] = id
	for _, c := range n.Children {
		claim(c, id, owner)
	}
}

type component struct {
	blocks []Block
	links  []Link
}

// components groups blocks into weakly connected components, ordered by the
// first block of each component.
func components(blocks []Block, links []Link) []component {
	parent := make(map[string]string, len(blocks))
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for _, b := range blocks {
		parent[b.ID] = b.ID
	}
	for _, l := range links {
		if ra, rb := find(l.Source), find(l.Target); ra != rb {
			parent[rb] = ra
		}
	}

	index := make(map[string]int)
	var comps []component
	for _, b := range blocks {
		r := find(b.ID)
		i, ok := index[r]
		if !ok {
			i = len(comps)
			index[r] = i
			comps = append(comps, component{})
		}
		comps[i].blocks = append(comps[i].blocks, b)
	}
	for _, l := range links {
		i := index[find(l.Source)]
		comps[i].links = append(comps[i].links, l)
	}
	return comps
}

func translate(pts []graph.Point, dx, dy float64) []graph.Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]graph.Point, len(pts))
	for i, p := range pts {
		out[i] = graph.Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}
