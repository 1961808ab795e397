package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/unformer/pkg/dag"
)

func build(t *testing.T, nodes []string, edges [][2]string) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range nodes {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return g
}

func TestBreakCycles(t *testing.T) {
	tests := []struct {
		name        string
		nodes       []string
		edges       [][2]string
		wantRemoved int
		wantEdges   int
	}{
		{"acyclic", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}}, 0, 2},
		{"two-cycle", []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}}, 1, 1},
		{"triangle", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}, 1, 2},
		{"self loop", []string{"a"}, [][2]string{{"a", "a"}}, 1, 0},
		{"cycle below source", []string{"s", "a", "b"}, [][2]string{{"s", "a"}, {"a", "b"}, {"b", "a"}}, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.nodes, tt.edges)
			if got := BreakCycles(g); got != tt.wantRemoved {
				t.Errorf("BreakCycles() = %d, want %d", got, tt.wantRemoved)
			}
			if got := g.EdgeCount(); got != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", got, tt.wantEdges)
			}
			AssignLayers(g)
			Subdivide(g)
			if err := g.Validate(); err != nil {
				t.Errorf("Validate() after breaking cycles: %v", err)
			}
		})
	}
}

func TestAssignLayers(t *testing.T) {
	g := build(t,
		[]string{"embed", "attn", "mlp", "norm", "head"},
		[][2]string{{"embed", "attn"}, {"attn", "mlp"}, {"mlp", "norm"}, {"embed", "norm"}, {"norm", "head"}},
	)
	AssignLayers(g)

	want := map[string]int{"embed": 0, "attn": 1, "mlp": 2, "norm": 3, "head": 4}
	got := map[string]int{}
	for _, n := range g.Nodes() {
		got[n.ID] = n.Row
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSubdivide(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}})
	AssignLayers(g)
	Subdivide(g)

	if got := g.NodeCount(); got != 4 {
		t.Fatalf("NodeCount() = %d, want 4", got)
	}
	sub, ok := g.Node("a_sub_1")
	if !ok {
		t.Fatal("subdivider a_sub_1 missing")
	}
	if !sub.IsSubdivider() || sub.MasterID != "a" || sub.Row != 1 {
		t.Errorf("subdivider = %+v", sub)
	}
	if sub.Width != 0 || sub.Height != 0 {
		t.Errorf("subdivider size = %vx%v, want 0x0", sub.Width, sub.Height)
	}
	if diff := cmp.Diff([]string{"c"}, g.Children("a_sub_1")); diff != "" {
		t.Errorf("Children(a_sub_1) mismatch (-want +got):\n%s", diff)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestSubdivide_IDCollision(t *testing.T) {
	g := build(t, []string{"a", "a_sub_1", "x", "y"}, [][2]string{{"a", "a_sub_1"}, {"a_sub_1", "x"}, {"a", "y"}, {"x", "y"}})
	AssignLayers(g)
	Subdivide(g)

	if _, ok := g.Node("a_sub_1__1"); !ok {
		t.Errorf("expected suffixed subdivider, nodes = %v", dag.NodeIDs(g.Nodes()))
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestOrderRows(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "d"}, {"b", "c"}})
	AssignLayers(g)
	if got := dag.CountCrossings(g); got != 1 {
		t.Fatalf("initial crossings = %d, want 1", got)
	}

	OrderRows(g, 4)

	if got := dag.CountCrossings(g); got != 0 {
		t.Errorf("crossings after OrderRows = %d, want 0", got)
	}
	if diff := cmp.Diff([]string{"d", "c"}, dag.NodeIDs(g.NodesInRow(1))); diff != "" {
		t.Errorf("row 1 mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderRows_NeverWorse(t *testing.T) {
	g := build(t,
		[]string{"r", "a", "b", "c", "x", "y", "z"},
		[][2]string{{"r", "a"}, {"r", "b"}, {"r", "c"}, {"a", "z"}, {"b", "y"}, {"c", "x"}, {"a", "x"}},
	)
	AssignLayers(g)
	before := dag.CountCrossings(g)
	OrderRows(g, 2)
	if after := dag.CountCrossings(g); after > before {
		t.Errorf("crossings grew from %d to %d", before, after)
	}
	if got := len(g.NodesInRow(2)); got != 3 {
		t.Errorf("row 2 has %d nodes, want 3", got)
	}
}

func TestPrepare(t *testing.T) {
	g := build(t,
		[]string{"embed", "block", "norm", "head"},
		[][2]string{{"embed", "block"}, {"block", "norm"}, {"norm", "head"}, {"embed", "head"}, {"head", "embed"}},
	)
	if removed := Prepare(g, 4); removed != 1 {
		t.Errorf("Prepare() removed %d edges, want 1", removed)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if got := g.RowCount(); got != 4 {
		t.Errorf("RowCount() = %d, want 4", got)
	}
}
