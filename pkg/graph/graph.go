package graph

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	// ErrDuplicateEdge is returned by [Graph.Validate] when two edges share an ID.
	ErrDuplicateEdge = errors.New("duplicate edge id")

	// ErrDuplicateNode is returned by [Graph.Validate] when two nodes share an ID.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrUnknownEndpoint is returned by [Graph.Validate] when an edge references
	// a node that is not part of the graph.
	ErrUnknownEndpoint = errors.New("edge endpoint not in graph")

	// ErrFlowCycle is returned by [Graph.Validate] when the flow edges contain
	// a directed cycle.
	ErrFlowCycle = errors.New("flow edges contain a cycle")
)

// =============================================================================
// Validation
// =============================================================================

// Validate checks the structural invariants of a built graph: node and edge
// IDs are unique, every edge connects two nodes of the graph, and the flow
// edges form a DAG.
func (g *Graph) Validate() error {
	index := make(map[string]int64, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, dup := index[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		index[n.ID] = int64(i)
	}

	seen := make(map[string]struct{}, len(g.Edges))
	flow := simple.NewDirectedGraph()
	for _, id := range index {
		flow.AddNode(simple.Node(id))
	}
	for _, e := range g.Edges {
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEdge, e.ID)
		}
		seen[e.ID] = struct{}{}

		from, okF := index[e.Source]
		to, okT := index[e.Target]
		if !okF || !okT {
			return fmt.Errorf("%w: %s", ErrUnknownEndpoint, e.ID)
		}
		if e.Class != ClassFlow {
			continue
		}
		if from == to {
			return fmt.Errorf("%w: self loop %s", ErrFlowCycle, e.ID)
		}
		flow.SetEdge(flow.NewEdge(simple.Node(from), simple.Node(to)))
	}

	if _, err := topo.Sort(flow); err != nil {
		return fmt.Errorf("%w: %v", ErrFlowCycle, err)
	}
	return nil
}

// =============================================================================
// Serialization
// =============================================================================

// MarshalGraph encodes g as indented JSON.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes g as indented JSON to w.
func WriteGraph(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteGraphFile writes g as JSON to path.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

// ReadGraph decodes a graph written by [WriteGraph] and rebuilds its node map.
func ReadGraph(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	g.NodeMap = make(map[string]*NodeData, len(g.Nodes))
	for _, n := range g.Nodes {
		g.NodeMap[n.ID] = n.Data
	}
	return &g, nil
}
