package render

import (
	"github.com/goccy/go-json"

	"github.com/matzehuels/unformer/pkg/graph"
)

// View is the payload handed to the rendering layer.
type View struct {
	Nodes   []graph.Node               `json:"nodes"`
	Edges   []graph.Edge               `json:"edges"`
	NodeMap map[string]*graph.NodeData `json:"node_map"`
	Width   float64                    `json:"width"`
	Height  float64                    `json:"height"`
}

// NewView flattens g into a View. Width and Height bound all positioned
// nodes; they are zero when nothing is positioned.
func NewView(g *graph.Graph) View {
	v := View{
		Nodes:   []graph.Node{},
		Edges:   []graph.Edge{},
		NodeMap: map[string]*graph.NodeData{},
	}
	if g == nil {
		return v
	}
	v.Nodes = append(v.Nodes, g.Nodes...)
	v.Edges = append(v.Edges, g.Edges...)
	for _, n := range g.Nodes {
		v.NodeMap[n.ID] = n.Data
		if n.Positioned {
			v.Width = max(v.Width, n.X+n.Width)
			v.Height = max(v.Height, n.Y+n.Height)
		}
	}
	return v
}

// JSON encodes the View of g.
func JSON(g *graph.Graph) ([]byte, error) {
	return json.MarshalIndent(NewView(g), "", "  ")
}
