package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/unformer/pkg/graph"
)

// ToDOT converts g to Graphviz DOT. Positioned graphs are written with
// pinned node positions (inputscale=72, y flipped for Graphviz); otherwise
// containers become nested clusters. Structure edges and any edge whose
// endpoints nest inside one another are implied by containment and
// omitted.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("  edge [color=\"#64748b\", arrowsize=0.7];\n")
	if g == nil || g.Root == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	d := &dotWriter{buf: &buf, g: g, opts: opts, parent: map[string]string{}}
	g.Root.Walk(func(sc, p *graph.Scope) {
		if p != nil {
			d.parent[sc.ID] = p.ID
		}
	})
	if pinned(g, opts) {
		d.writePinned()
	} else {
		d.writeClusters()
	}
	buf.WriteString("}\n")
	return buf.String()
}

type dotWriter struct {
	buf    *bytes.Buffer
	g      *graph.Graph
	opts   Options
	parent map[string]string
}

func (d *dotWriter) ancestor(a, b string) bool {
	for p, ok := d.parent[b]; ok; p, ok = d.parent[p] {
		if p == a {
			return true
		}
	}
	return false
}

// drawn returns the edges that are not implied by containment.
func (d *dotWriter) drawn() []graph.Edge {
	var out []graph.Edge
	for _, e := range d.g.Edges {
		if e.Class == graph.ClassStructure || e.Source == e.Target {
			continue
		}
		if d.ancestor(e.Source, e.Target) || d.ancestor(e.Target, e.Source) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (d *dotWriter) label(n *graph.Node) string {
	if n.Data == nil {
		return n.ID
	}
	l := n.Data.Label
	if !d.opts.Detailed {
		return l
	}
	var parts []string
	if n.Data.ClassName != "" && n.Data.ClassName != l {
		parts = append(parts, n.Data.ClassName)
	}
	if n.Data.Repeat > 1 {
		parts = append(parts, fmt.Sprintf("x%d", n.Data.Repeat))
	}
	if p := n.Data.Parameters; p != nil && p.Total != nil && p.Total.Count > 0 {
		parts = append(parts, FormatCount(p.Total.Count)+" params")
	}
	if len(parts) == 0 {
		return l
	}
	return l + "\n" + strings.Join(parts, "\n")
}

func (d *dotWriter) nodeAttrs(n *graph.Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", d.label(n))}
	if n.Data != nil && n.Data.Collapsed {
		attrs = append(attrs, `style="rounded,filled,dashed"`, `fillcolor="#f1f5f9"`)
	}
	return attrs
}

func (d *dotWriter) writeClusters() {
	ids := 0
	var visit func(sc *graph.Scope, indent string)
	visit = func(sc *graph.Scope, indent string) {
		n, ok := d.g.Node(sc.ID)
		if !ok {
			return
		}
		if !sc.IsContainer() {
			fmt.Fprintf(d.buf, "%s%q [%s];\n", indent, sc.ID, strings.Join(d.nodeAttrs(n), ", "))
			return
		}
		fmt.Fprintf(d.buf, "%ssubgraph cluster_%d {\n", indent, ids)
		ids++
		fmt.Fprintf(d.buf, "%s  label=%q;\n", indent, d.label(n))
		fmt.Fprintf(d.buf, "%s  style=\"rounded,dashed\";\n", indent)
		if sc.Mode != "" {
			fmt.Fprintf(d.buf, "%s  tooltip=%q;\n", indent, string(sc.Mode))
		}
		// Edges attached to a container attach to this anchor.
		fmt.Fprintf(d.buf, "%s  %q [shape=point, style=invis, width=0, height=0, label=\"\"];\n", indent, sc.ID)
		for _, c := range sc.Children {
			visit(c, indent+"  ")
		}
		fmt.Fprintf(d.buf, "%s}\n", indent)
	}
	visit(d.g.Root, "  ")

	for _, e := range d.drawn() {
		fmt.Fprintf(d.buf, "  %q -> %q [id=%q];\n", e.Source, e.Target, e.ID)
	}
}

func (d *dotWriter) writePinned() {
	buf := d.buf
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")

	var height float64
	for _, n := range d.g.Nodes {
		height = max(height, n.Y+n.Height)
	}

	// Containers first so that they are drawn beneath their children.
	var order []*graph.Node
	d.g.Root.Walk(func(sc, _ *graph.Scope) {
		if n, ok := d.g.Node(sc.ID); ok {
			order = append(order, n)
		}
	})
	for _, n := range order {
		cx := n.X + n.Width/2
		cy := height - (n.Y + n.Height/2)
		attrs := d.nodeAttrs(n)
		if n.IsContainer() {
			attrs = []string{
				fmt.Sprintf("label=%q", d.label(n)),
				`style="rounded,dashed"`,
				"labelloc=t",
			}
		}
		attrs = append(attrs,
			fmt.Sprintf(`pos="%.2f,%.2f!"`, cx, cy),
			fmt.Sprintf("width=%.4f", n.Width/72),
			fmt.Sprintf("height=%.4f", n.Height/72),
			"fixedsize=true",
		)
		fmt.Fprintf(buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}
	for _, e := range d.drawn() {
		fmt.Fprintf(buf, "  %q -> %q [id=%q];\n", e.Source, e.Target, e.ID)
	}
}

// FormatCount abbreviates a parameter count ("1.5M").
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1e9)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1e6)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1e3)
	}
	return fmt.Sprintf("%d", n)
}
