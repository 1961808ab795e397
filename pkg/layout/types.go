package layout

import (
	"context"
	"errors"

	"github.com/matzehuels/unformer/pkg/graph"
)

// ErrNoEngine is returned by [Adapter.Layout] when no engine is configured.
var ErrNoEngine = errors.New("layout: no engine configured")

// Direction is the direction in which flow edges point inside a container.
type Direction string

const (
	DirectionDown  Direction = "DOWN"
	DirectionRight Direction = "RIGHT"
)

// Horizontal reports whether layers progress left to right.
func (d Direction) Horizontal() bool { return d == DirectionRight }

// Padding is the space between a container's border and its content.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// Options are the per-container layout parameters.
type Options struct {
	Direction Direction
	// LayerSpacing separates consecutive layers and packed components.
	LayerSpacing float64
	// NodeSpacing separates boxes within a layer.
	NodeSpacing float64
	Padding     Padding
}

// Node is a box in the nested layout tree. Leaves are sized by the caller.
// For nodes with children, Width and Height are minimum sizes and Options
// describe how the children are arranged.
type Node struct {
	ID       string
	Width    float64
	Height   float64
	Options  Options
	Children []*Node
	// Edges are the edges whose lowest common container is this node.
	Edges []Edge
}

// Edge connects two descendants of the node hosting it.
type Edge struct {
	ID     string
	Source string
	Target string
}

// Frame is a laid-out box. X and Y are relative to the top-left corner of
// the parent's frame.
type Frame struct {
	X, Y          float64
	Width, Height float64
}

// Result is the output of an [Engine].
type Result struct {
	// Frames holds one frame per positioned node, keyed by node ID. The
	// root's frame is at the origin.
	Frames map[string]Frame
	// Routes holds bend points per edge ID, relative to the frame of the
	// node hosting the edge. Edges without a route are drawn straight.
	Routes map[string][]graph.Point
}

// Engine lays out a nested layout tree in one invocation.
type Engine interface {
	Name() string
	Layout(ctx context.Context, root *Node) (*Result, error)
}
