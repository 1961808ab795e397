package dag

import (
	"errors"
	"testing"
)

func TestDAG_AddNodeErrors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want %v", err, ErrInvalidNodeID)
	}
	_ = g.AddNode(Node{ID: "a"})
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want %v", err, ErrDuplicateNodeID)
	}
	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(unknown from) = %v", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(unknown to) = %v", err)
	}
}

func TestDAG_InsertionOrder(t *testing.T) {
	g := New(nil)
	ids := []string{"z", "b", "m", "a"}
	for _, id := range ids {
		_ = g.AddNode(Node{ID: id})
	}
	g.SetRows(map[string]int{"b": 1, "a": 1})

	if got := NodeIDs(g.Nodes()); !equalIDs(got, ids) {
		t.Errorf("Nodes() = %v, want %v", got, ids)
	}
	if got := NodeIDs(g.NodesInRow(0)); !equalIDs(got, []string{"z", "m"}) {
		t.Errorf("row 0 = %v", got)
	}
	if got := NodeIDs(g.NodesInRow(1)); !equalIDs(got, []string{"b", "a"}) {
		t.Errorf("row 1 = %v", got)
	}
}

func TestDAG_RemoveEdge(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	_ = g.AddEdge(Edge{From: "a", To: "b"})

	g.RemoveEdge("a", "b")
	if g.EdgeCount() != 1 || g.OutDegree("a") != 1 || g.InDegree("b") != 1 {
		t.Errorf("after one RemoveEdge: edges=%d out=%d in=%d", g.EdgeCount(), g.OutDegree("a"), g.InDegree("b"))
	}
	g.RemoveEdge("a", "b")
	g.RemoveEdge("a", "b")
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
}

func TestDAG_Validate(t *testing.T) {
	tests := []struct {
		name  string
		rows  map[string]int
		edges [][2]string
		want  error
	}{
		{"consecutive", map[string]int{"a": 0, "b": 1}, [][2]string{{"a", "b"}}, nil},
		{"skips a row", map[string]int{"a": 0, "b": 2}, [][2]string{{"a", "b"}}, ErrNonConsecutiveRows},
		{"upwards", map[string]int{"a": 1, "b": 0}, [][2]string{{"a", "b"}}, ErrNonConsecutiveRows},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(nil)
			for _, id := range []string{"a", "b"} {
				_ = g.AddNode(Node{ID: id, Row: tt.rows[id]})
			}
			for _, e := range tt.edges {
				_ = g.AddEdge(Edge{From: e[0], To: e[1]})
			}
			if err := g.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCountCrossings(t *testing.T) {
	g := New(nil)
	for _, n := range []Node{{ID: "a"}, {ID: "b"}, {ID: "c", Row: 1}, {ID: "d", Row: 1}, {ID: "e", Row: 2}} {
		_ = g.AddNode(n)
	}
	_ = g.AddEdge(Edge{From: "a", To: "d"})
	_ = g.AddEdge(Edge{From: "b", To: "c"})
	_ = g.AddEdge(Edge{From: "c", To: "e"})
	_ = g.AddEdge(Edge{From: "d", To: "e"})

	if got := CountCrossings(g); got != 1 {
		t.Errorf("CountCrossings() = %d, want 1", got)
	}
	pos := PosMap([]string{"c", "d"})
	if got := CountPairCrossings(g, "a", "b", pos, false); got != 1 {
		t.Errorf("CountPairCrossings(a, b) = %d, want 1", got)
	}
	if got := CountPairCrossings(g, "b", "a", pos, false); got != 0 {
		t.Errorf("CountPairCrossings(b, a) = %d, want 0", got)
	}

	g.SetRowOrder(1, []string{"d", "c"})
	if got := CountCrossings(g); got != 0 {
		t.Errorf("after reorder CountCrossings() = %d, want 0", got)
	}
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
