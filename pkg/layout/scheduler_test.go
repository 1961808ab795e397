package layout_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/unformer/pkg/graph"
	"github.com/matzehuels/unformer/pkg/layout"
	"github.com/matzehuels/unformer/pkg/tree"
)

// gated blocks each layout until the gate for its root ID is closed.
type gated struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGated(ids ...string) *gated {
	g := &gated{gates: make(map[string]chan struct{})}
	for _, id := range ids {
		g.gates[id] = make(chan struct{})
	}
	return g
}

func (g *gated) open(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[id])
}

func (g *gated) Name() string { return "gated" }

func (g *gated) Layout(ctx context.Context, root *layout.Node) (*layout.Result, error) {
	g.mu.Lock()
	gate := g.gates[root.ID]
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if root.ID == "bad" {
		return nil, errors.New("engine rejected graph")
	}
	return &layout.Result{Frames: map[string]layout.Frame{root.ID: {Width: 100, Height: 40}}}, nil
}

func single(id string) *graph.Graph {
	return graph.Build(&tree.Node{Name: id, Path: id, Kind: tree.KindLeaf}, graph.Options{})
}

func quiet() *log.Logger { return log.New(io.Discard) }

func TestTracker(t *testing.T) {
	var tr layout.Tracker
	a := tr.Next()
	if !tr.IsCurrent(a) {
		t.Error("first token should be current")
	}
	b := tr.Next()
	if tr.IsCurrent(a) || !tr.IsCurrent(b) {
		t.Errorf("after Next: IsCurrent(%d) = %v, IsCurrent(%d) = %v", a, tr.IsCurrent(a), b, tr.IsCurrent(b))
	}
	if b <= a {
		t.Errorf("tokens not increasing: %d then %d", a, b)
	}
}

func TestScheduler_DropsStaleResult(t *testing.T) {
	engine := newGated("first", "second")
	s := layout.NewScheduler(layout.NewAdapter(engine), quiet())
	ctx := context.Background()

	first := s.Submit(ctx, single("first"))
	second := s.Submit(ctx, single("second"))

	engine.open("second")
	o2 := <-second
	engine.open("first")
	o1 := <-first

	if !o1.Stale || o1.Graph != nil {
		t.Errorf("first outcome = %+v, want stale without graph", o1)
	}
	if o2.Stale || o2.Err != nil || o2.Graph == nil {
		t.Fatalf("second outcome = %+v, want applied graph", o2)
	}
	if got := s.Latest(); got != o2.Graph {
		t.Error("Latest() is not the second result")
	}
	if n, _ := s.Latest().Node("second"); n == nil || !n.Positioned {
		t.Error("applied graph does not hold the second layout")
	}
	if o1.Token >= o2.Token || s.Token() != o2.Token {
		t.Errorf("tokens: first %d, second %d, current %d", o1.Token, o2.Token, s.Token())
	}
}

func TestScheduler_FailureKeepsPrevious(t *testing.T) {
	s := layout.NewScheduler(layout.NewAdapter(newGated()), quiet())
	ctx := context.Background()

	ok := <-s.Submit(ctx, single("good"))
	if ok.Err != nil || ok.Graph == nil {
		t.Fatalf("first outcome = %+v", ok)
	}

	bad := <-s.Submit(ctx, single("bad"))
	if bad.Err == nil {
		t.Fatal("expected an error for the rejected graph")
	}
	if bad.Graph != ok.Graph {
		t.Error("failed layout should fall back to the previous result")
	}
	if s.Latest() != ok.Graph {
		t.Error("Latest() changed after a failed layout")
	}
}

func TestScheduler_FailureWithoutPrevious(t *testing.T) {
	s := layout.NewScheduler(layout.NewAdapter(newGated()), quiet())
	out := <-s.Submit(context.Background(), single("bad"))
	if out.Err == nil || out.Graph != nil {
		t.Errorf("outcome = %+v, want error and no graph", out)
	}
}
