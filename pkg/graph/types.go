package graph

import (
	"github.com/matzehuels/unformer/pkg/flow"
	"github.com/matzehuels/unformer/pkg/tree"
)

// =============================================================================
// Constants
// =============================================================================

// View modes.
const (
	ViewCompact = "compact"
	ViewFull    = "full"
)

// Node types.
const (
	TypeContainer = "container"
	TypeModule    = "module"
)

// Edge classes.
const (
	ClassStructure = "structure"
	ClassFlow      = "flow"
)

// Geometry hints for node boxes, in pixels.
const (
	charWidth          = 7.5
	labelPadding       = 32.0
	minModuleWidth     = 120.0
	moduleHeight       = 44.0
	collapsedHeight    = 52.0
	minContainerWidth  = 220.0
	minContainerHeight = 120.0
)

// =============================================================================
// Options
// =============================================================================

// Options control which modules are visible.
type Options struct {
	// Expanded overrides the default expansion of individual modules by path.
	Expanded map[string]bool `json:"expanded,omitempty"`
	// AutoDepth expands modules shallower than this depth by default.
	AutoDepth int `json:"auto_depth"`
	// ViewMode is ViewCompact or ViewFull.
	ViewMode string `json:"view_mode"`
	// SplitSize caps the number of elements a collapsed stack explodes into
	// before it is segmented into sub-ranges instead.
	SplitSize int `json:"split_size"`
}

// =============================================================================
// Graph
// =============================================================================

// Graph is the result of [Build].
type Graph struct {
	Nodes       []Node               `json:"nodes" bson:"nodes"`
	Edges       []Edge               `json:"edges" bson:"edges"`
	LayoutEdges []Edge               `json:"layout_edges" bson:"layout_edges"`
	NodeMap     map[string]*NodeData `json:"-" bson:"-"`
	Root        *Scope               `json:"root,omitempty" bson:"root,omitempty"`
}

// Empty reports whether the graph has no nodes.
func (g *Graph) Empty() bool { return len(g.Nodes) == 0 }

// Node returns the presentation node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Scope mirrors the visible containment hierarchy. Only containers have
// children; Mode is the flow mode of those children.
type Scope struct {
	ID       string    `json:"id" bson:"id"`
	Mode     flow.Mode `json:"mode,omitempty" bson:"mode,omitempty"`
	Children []*Scope  `json:"children,omitempty" bson:"children,omitempty"`
}

// IsContainer reports whether the scope hosts nested nodes.
func (s *Scope) IsContainer() bool { return len(s.Children) > 0 }

// Walk visits s and its descendants in pre-order, passing each scope's parent
// (nil for s itself).
func (s *Scope) Walk(fn func(sc, parent *Scope)) {
	var walk func(sc, parent *Scope)
	walk = func(sc, parent *Scope) {
		fn(sc, parent)
		for _, c := range sc.Children {
			walk(c, sc)
		}
	}
	if s != nil {
		walk(s, nil)
	}
}

// =============================================================================
// Node
// =============================================================================

// Node is a presentation node. Width and Height are sizing hints from the
// builder; X and Y are filled in by the layout stage.
type Node struct {
	ID         string    `json:"id" bson:"id"`
	Type       string    `json:"type" bson:"type"`
	ParentID   string    `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	X          float64   `json:"x" bson:"x"`
	Y          float64   `json:"y" bson:"y"`
	Width      float64   `json:"width" bson:"width"`
	Height     float64   `json:"height" bson:"height"`
	Positioned bool      `json:"positioned" bson:"positioned"`
	Data       *NodeData `json:"data" bson:"data"`
}

// IsContainer reports whether the node hosts nested nodes.
func (n *Node) IsContainer() bool { return n.Type == TypeContainer }

// NodeData is the presentation payload of a node, carried through from the
// tree node it was derived from.
type NodeData struct {
	Label       string        `json:"label" bson:"label"`
	Path        string        `json:"path" bson:"path"`
	ClassName   string        `json:"class,omitempty" bson:"class,omitempty"`
	Kind        tree.Kind     `json:"kind" bson:"kind"`
	Role        flow.Stage    `json:"role" bson:"role"`
	Depth       int           `json:"depth" bson:"depth"`
	HasChildren bool          `json:"has_children" bson:"has_children"`
	Expanded    bool          `json:"expanded" bson:"expanded"`
	Collapsed   bool          `json:"collapsed" bson:"collapsed"`
	Synthetic   bool          `json:"synthetic,omitempty" bson:"synthetic,omitempty"`
	FlowMode    flow.Mode     `json:"flow_mode,omitempty" bson:"flow_mode,omitempty"`
	Repeat      int           `json:"repeat,omitempty" bson:"repeat,omitempty"`
	IndexStart  *int          `json:"index_start,omitempty" bson:"index_start,omitempty"`
	IndexEnd    *int          `json:"index_end,omitempty" bson:"index_end,omitempty"`
	Parameters  *tree.Summary `json:"parameters,omitempty" bson:"parameters,omitempty"`
	Buffers     *tree.Summary `json:"buffers,omitempty" bson:"buffers,omitempty"`
	Tags        []string      `json:"tags,omitempty" bson:"tags,omitempty"`

	ParameterDetails []tree.Detail `json:"parameter_details,omitempty" bson:"parameter_details,omitempty"`
	BufferDetails    []tree.Detail `json:"buffer_details,omitempty" bson:"buffer_details,omitempty"`
}

// =============================================================================
// Edge
// =============================================================================

// Point is a position in layout coordinates.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Edge is a directed edge between two presentation nodes. Points holds the
// routing points assigned by the layout stage, if any.
type Edge struct {
	ID     string  `json:"id" bson:"id"`
	Source string  `json:"source" bson:"source"`
	Target string  `json:"target" bson:"target"`
	Class  string  `json:"class" bson:"class"`
	Points []Point `json:"points,omitempty" bson:"points,omitempty"`
}

// EdgeID formats the identity of an edge.
func EdgeID(class, source, target string) string {
	return class + ":" + source + "=>" + target
}
