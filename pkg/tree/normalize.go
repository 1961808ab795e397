package tree

import (
	"slices"
	"strconv"
)

// Normalize converts a raw record and its descendants into canonical nodes.
// The depth argument is the depth assigned to raw (0 for the root).
//
// Normalize is pure and never fails. Malformed optional fields are dropped:
// a half-open or inverted index range, a non-positive repeat and empty tags
// are all treated as absent. A node whose name is a non-negative integer and
// that carries no explicit index gets that integer as its index. The kind is
// "collapsed" when the input says so, otherwise "container" if the node has
// children and "leaf" if not.
func Normalize(raw RawNode, depth int) *Node {
	n := &Node{
		Name:             raw.Name,
		Path:             raw.Path,
		ClassName:        raw.Class,
		Depth:            depth,
		Index:            cloneInt(raw.Index),
		Repeat:           cloneInt(raw.Repeat),
		Parameters:       raw.Parameters.Clone(),
		Buffers:          raw.Buffers.Clone(),
		ParameterDetails: cloneDetails(raw.ParameterDetails),
		BufferDetails:    cloneDetails(raw.BufferDetails),
		Tags:             normalizeTags(raw.Tags),
	}

	if raw.IndexStart != nil && raw.IndexEnd != nil && *raw.IndexEnd >= *raw.IndexStart {
		n.IndexStart = cloneInt(raw.IndexStart)
		n.IndexEnd = cloneInt(raw.IndexEnd)
	}
	if n.Index == nil {
		if v, err := strconv.Atoi(raw.Name); err == nil && v >= 0 {
			n.Index = Int(v)
		}
	}
	if n.Repeat != nil && *n.Repeat <= 0 {
		n.Repeat = nil
	}

	if len(raw.Children) > 0 {
		n.Children = make([]*Node, len(raw.Children))
		for i, c := range raw.Children {
			n.Children[i] = Normalize(c, depth+1)
		}
	}

	switch {
	case Kind(raw.Kind) == KindCollapsed:
		n.Kind = KindCollapsed
	case len(n.Children) > 0:
		n.Kind = KindContainer
	default:
		n.Kind = KindLeaf
	}
	return n
}

// ToRaw converts a canonical node back into the wire shape. Normalizing the
// result reproduces n for any node that came out of [Normalize].
func ToRaw(n *Node) RawNode {
	raw := RawNode{
		Name:             n.Name,
		Path:             n.Path,
		Class:            n.ClassName,
		Kind:             string(n.Kind),
		Index:            cloneInt(n.Index),
		IndexStart:       cloneInt(n.IndexStart),
		IndexEnd:         cloneInt(n.IndexEnd),
		Repeat:           cloneInt(n.Repeat),
		Tags:             slices.Clone(n.Tags),
		Parameters:       n.Parameters.Clone(),
		Buffers:          n.Buffers.Clone(),
		ParameterDetails: cloneDetails(n.ParameterDetails),
		BufferDetails:    cloneDetails(n.BufferDetails),
	}
	if len(n.Children) > 0 {
		raw.Children = make([]RawNode, len(n.Children))
		for i, c := range n.Children {
			raw.Children[i] = ToRaw(c)
		}
	}
	return raw
}

func normalizeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func cloneDetails(d []Detail) []Detail {
	if len(d) == 0 {
		return nil
	}
	out := make([]Detail, len(d))
	for i, v := range d {
		v.Shape = slices.Clone(v.Shape)
		out[i] = v
	}
	return out
}
