package render

import (
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/layout"
	"github.com/matzehuels/unformer/pkg/layout/layered"
	"github.com/matzehuels/unformer/pkg/tree"
)

func leaf(path, name string) *tree.Node {
	return &tree.Node{Name: name, Path: path, ClassName: "Linear", Kind: tree.KindLeaf, Depth: 1}
}

func built(t *testing.T) *graph.Graph {
	t.Helper()
	root := &tree.Node{Name: "net", Path: "net", Kind: tree.KindContainer, Children: []*tree.Node{
		leaf("net.embed", "embed"),
		leaf("net.norm", "norm"),
		leaf("net.head", "head"),
	}}
	return graph.Build(root, graph.Options{AutoDepth: 1, ViewMode: graph.ViewCompact, SplitSize: 8})
}

func laidOut(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := layout.NewAdapter(layered.New()).Layout(context.Background(), built(t))
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	return g
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"json", "dot", "svg"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	for _, f := range []string{"", "png", "SVG"} {
		if err := ValidateFormat(f); err == nil {
			t.Errorf("ValidateFormat(%q) should fail", f)
		}
	}
}

func TestToDOT_Clusters(t *testing.T) {
	dot := ToDOT(built(t), Options{})
	for _, want := range []string{
		"subgraph cluster_0 {",
		`label="net";`,
		`"net.embed" [label="embed"];`,
		`"net.embed" -> "net.norm"`,
		`"net.norm" -> "net.head"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"net" -> `) {
		t.Errorf("containment edges should be omitted:\n%s", dot)
	}
	if strings.Contains(dot, "pos=") {
		t.Error("unpositioned graph should not be pinned")
	}
}

func TestToDOT_Pinned(t *testing.T) {
	g := laidOut(t)
	dot := ToDOT(g, Options{})
	if !strings.Contains(dot, "inputscale=72;") || !strings.Contains(dot, `!"`) {
		t.Errorf("expected pinned positions:\n%s", dot)
	}
	// The container is emitted before its children.
	if strings.Index(dot, `"net" [`) > strings.Index(dot, `"net.embed" [`) {
		t.Errorf("container should precede children:\n%s", dot)
	}

	unpinned := ToDOT(g, Options{Unpinned: true})
	if strings.Contains(unpinned, "pos=") {
		t.Error("Unpinned should drop positions")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	root := &tree.Node{Name: "blocks", Path: "blocks", ClassName: "ModuleList", Kind: tree.KindContainer,
		Parameters: &tree.Summary{Total: &tree.Stats{Count: 1_500_000}}}
	g := graph.Build(root, graph.Options{})
	dot := ToDOT(g, Options{Detailed: true})
	if !strings.Contains(dot, `ModuleList\n1.5M params`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}

func TestToDOT_Empty(t *testing.T) {
	dot := ToDOT(&graph.Graph{}, Options{})
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("unexpected DOT: %q", dot)
	}
}

func TestJSON(t *testing.T) {
	g := laidOut(t)
	data, err := JSON(g)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var v View
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(v.Nodes) != len(g.Nodes) || len(v.Edges) != len(g.Edges) {
		t.Errorf("got %d nodes %d edges, want %d %d", len(v.Nodes), len(v.Edges), len(g.Nodes), len(g.Edges))
	}
	for _, n := range g.Nodes {
		if v.NodeMap[n.ID] == nil {
			t.Errorf("node map missing %s", n.ID)
		}
	}
	root, _ := g.Node("net")
	if v.Width != root.X+root.Width || v.Height != root.Y+root.Height {
		t.Errorf("bounds = %vx%v, want %vx%v", v.Width, v.Height, root.X+root.Width, root.Y+root.Height)
	}

	empty := NewView(nil)
	if empty.Nodes == nil || empty.Edges == nil || empty.NodeMap == nil {
		t.Error("empty view should have non-nil collections")
	}
}

func TestRenderAll(t *testing.T) {
	g := laidOut(t)
	out, err := RenderAll(context.Background(), g, []string{FormatJSON, FormatDOT, FormatSVG}, Options{})
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if !strings.Contains(string(out[FormatSVG]), "<svg") {
		t.Error("SVG output missing svg element")
	}
	if !strings.Contains(string(out[FormatSVG]), `viewBox="0 0 `) {
		t.Error("SVG viewBox not normalized")
	}
	if _, err := RenderAll(context.Background(), g, []string{"png"}, Options{}); err == nil {
		t.Error("expected error for png")
	}
}
