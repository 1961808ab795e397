// Package graphviz lays out graphs with Graphviz dot, compiled to
// WebAssembly by github.com/goccy/go-graphviz.
//
// Every level of the nested layout tree is written as a DOT document with
// fixed-size boxes, rendered to positioned DOT, and read back with the gonum
// DOT parser. Graphviz works in points with the origin at the bottom left;
// one pixel is mapped to one point and the y axis is flipped.
package graphviz

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"

	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/layout"
)

// Name identifies the engine in configuration and on the command line.
const Name = "graphviz"

const pointsPerInch = 72.0

// Engine is the Graphviz layout engine.
type Engine struct{}

// New returns a Graphviz engine.
func New() *Engine { return &Engine{} }

// Name implements layout.Engine.
func (e *Engine) Name() string { return Name }

// Layout implements layout.Engine. A single Graphviz instance serves all
// levels of one call.
func (e *Engine) Layout(ctx context.Context, root *layout.Node) (*layout.Result, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	return layout.Nested(ctx, root, func(ctx context.Context, blocks []layout.Block, links []layout.Link, opts layout.Options) (*layout.Placement, error) {
		src, names := writeDOT(blocks, links, opts)

		g, err := graphviz.ParseBytes(src)
		if err != nil {
			return nil, fmt.Errorf("parse DOT: %w", err)
		}
		defer g.Close()

		var buf bytes.Buffer
		if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		return readPlacement(buf.Bytes(), names)
	})
}

// writeDOT emits one level as DOT. Node and edge IDs are replaced by short
// generated names so arbitrary module paths never need escaping; names maps
// them back.
func writeDOT(blocks []layout.Block, links []layout.Link, opts layout.Options) ([]byte, map[string]string) {
	names := make(map[string]string, len(blocks)+len(links))
	nodeName := make(map[string]string, len(blocks))

	var b strings.Builder
	b.WriteString("digraph G {\n")
	rankdir := "TB"
	if opts.Direction.Horizontal() {
		rankdir = "LR"
	}
	fmt.Fprintf(&b, "  graph [rankdir=%s, ranksep=%s, nodesep=%s, splines=spline];\n",
		rankdir, inches(opts.LayerSpacing), inches(opts.NodeSpacing))
	b.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")

	for i, blk := range blocks {
		name := "n" + strconv.Itoa(i)
		names[name] = blk.ID
		nodeName[blk.ID] = name
		fmt.Fprintf(&b, "  %s [width=%s, height=%s];\n", name, inches(blk.Width), inches(blk.Height))
	}
	for i, l := range links {
		name := "e" + strconv.Itoa(i)
		if l.Direct {
			names[name] = l.ID
		}
		fmt.Fprintf(&b, "  %s -> %s [id=%s];\n", nodeName[l.Source], nodeName[l.Target], name)
	}
	b.WriteString("}\n")
	return []byte(b.String()), names
}

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', 4, 64)
}

// readPlacement converts positioned DOT back into a placement. Positions are
// top-left corners with the y axis pointing down.
func readPlacement(src []byte, names map[string]string) (*layout.Placement, error) {
	file, err := dot.ParseBytes(src)
	if err != nil {
		return nil, fmt.Errorf("read graphviz output: %w", err)
	}
	if len(file.Graphs) == 0 {
		return nil, fmt.Errorf("read graphviz output: no graph")
	}

	p := &layout.Placement{
		Positions: make(map[string]graph.Point),
		Routes:    make(map[string][]graph.Point),
	}
	var bb [4]float64
	boxes := make(map[string]box)
	routes := make(map[string][]graph.Point)

	for _, stmt := range file.Graphs[0].Stmts {
		switch s := stmt.(type) {
		case *ast.Attr:
			if s.Key == "bb" {
				bb, err = parseBB(s.Val)
			}
		case *ast.AttrStmt:
			if s.Kind == ast.GraphKind {
				if v, ok := attr(s.Attrs, "bb"); ok {
					bb, err = parseBB(v)
				}
			}
		case *ast.NodeStmt:
			id, ok := names[unquote(s.Node.ID)]
			if !ok {
				continue
			}
			var bx box
			bx, err = parseBox(s.Attrs)
			boxes[id] = bx
		case *ast.EdgeStmt:
			v, ok := attr(s.Attrs, "id")
			if !ok {
				continue
			}
			id, ok := names[v]
			if !ok {
				continue
			}
			var pts []graph.Point
			pts, err = parseSpline(mustAttr(s.Attrs, "pos"))
			routes[id] = pts
		}
		if err != nil {
			return nil, fmt.Errorf("read graphviz output: %w", err)
		}
	}

	top := bb[3]
	for id, bx := range boxes {
		p.Positions[id] = graph.Point{X: bx.cx - bx.w/2 - bb[0], Y: top - bx.cy - bx.h/2}
	}
	for id, pts := range routes {
		flipped := make([]graph.Point, len(pts))
		for i, pt := range pts {
			flipped[i] = graph.Point{X: pt.X - bb[0], Y: top - pt.Y}
		}
		p.Routes[id] = flipped
	}
	p.Width, p.Height = bb[2]-bb[0], bb[3]-bb[1]
	return p, nil
}

type box struct{ cx, cy, w, h float64 }

func parseBox(attrs []*ast.Attr) (box, error) {
	x, y, err := parsePoint(mustAttr(attrs, "pos"))
	if err != nil {
		return box{}, err
	}
	w, err := strconv.ParseFloat(mustAttr(attrs, "width"), 64)
	if err != nil {
		return box{}, fmt.Errorf("bad width: %w", err)
	}
	h, err := strconv.ParseFloat(mustAttr(attrs, "height"), 64)
	if err != nil {
		return box{}, fmt.Errorf("bad height: %w", err)
	}
	return box{x, y, w * pointsPerInch, h * pointsPerInch}, nil
}

func attr(attrs []*ast.Attr, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return unquote(a.Val), true
		}
	}
	return "", false
}

func mustAttr(attrs []*ast.Attr, key string) string {
	v, _ := attr(attrs, key)
	return v
}

// unquote strips DOT string quotes and line continuations.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "\\\r\n", "")
	s = strings.ReplaceAll(s, "\\\n", "")
	return strings.ReplaceAll(s, `\"`, `"`)
}

func parseBB(v string) ([4]float64, error) {
	var bb [4]float64
	parts := strings.Split(unquote(v), ",")
	if len(parts) != 4 {
		return bb, fmt.Errorf("bad bounding box %q", v)
	}
	for i, s := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return bb, fmt.Errorf("bad bounding box %q: %w", v, err)
		}
		bb[i] = f
	}
	return bb, nil
}

func parsePoint(v string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(v), ",")
	if !ok {
		return 0, 0, fmt.Errorf("bad point %q", v)
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad point %q: %w", v, err)
	}
	// A trailing "!" pins the point; it carries no coordinate.
	y, err := strconv.ParseFloat(strings.TrimSuffix(ys, "!"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad point %q: %w", v, err)
	}
	return x, y, nil
}

// parseSpline reads an edge pos attribute of the form
// "[s,x,y ][e,x,y ]x1,y1 x2,y2 ...". The start point, if any, comes first and
// the end point, if any, last.
func parseSpline(v string) ([]graph.Point, error) {
	var start, end *graph.Point
	var pts []graph.Point
	for _, f := range strings.Fields(v) {
		marker := ""
		if strings.HasPrefix(f, "s,") || strings.HasPrefix(f, "e,") {
			marker, f = f[:1], f[2:]
		}
		x, y, err := parsePoint(f)
		if err != nil {
			return nil, err
		}
		pt := graph.Point{X: x, Y: y}
		switch marker {
		case "s":
			start = &pt
		case "e":
			end = &pt
		default:
			pts = append(pts, pt)
		}
	}
	if start != nil {
		pts = append([]graph.Point{*start}, pts...)
	}
	if end != nil {
		pts = append(pts, *end)
	}
	return pts, nil
}
