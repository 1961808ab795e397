package transform

import (
	"slices"
	"strconv"

	"github.com/matzehuels/unformer/pkg/tree"
)

// SplitCollapsed derives the children shown when a collapsed node is
// expanded. A span of at most splitSize indices explodes into one leaf per
// index; a longer span into contiguous collapsed segments of splitSize indices
// (the last one may be shorter). Statistics are apportioned so that the parts
// add up to the node's own statistics.
//
// A node without a resolvable index range yields nil. A splitSize below 1 is
// treated as 1.
func SplitCollapsed(n *tree.Node, splitSize int) []*tree.Node {
	start, end, ok := n.Range()
	if !ok {
		return nil
	}
	if splitSize < 1 {
		splitSize = 1
	}
	span := end - start + 1

	if span <= splitSize {
		out := make([]*tree.Node, 0, span)
		for i := 0; i < span; i++ {
			idx := start + i
			out = append(out, &tree.Node{
				Name:       strconv.Itoa(idx),
				Path:       n.Path + "/" + strconv.Itoa(idx),
				ClassName:  n.ClassName,
				Kind:       tree.KindLeaf,
				Depth:      n.Depth,
				Index:      tree.Int(idx),
				Repeat:     tree.Int(1),
				Tags:       slices.Clone(n.Tags),
				Parameters: portion(n.Parameters, i, i+1, span),
				Buffers:    portion(n.Buffers, i, i+1, span),
				Synthetic:  true,
			})
		}
		return out
	}

	out := make([]*tree.Node, 0, (span+splitSize-1)/splitSize)
	for lo := 0; lo < span; lo += splitSize {
		hi := min(lo+splitSize, span)
		s, e := start+lo, start+hi-1
		label := tree.RangeLabel(s, e)
		out = append(out, &tree.Node{
			Name:       label,
			Path:       n.Path + "/" + label,
			ClassName:  n.ClassName,
			Kind:       tree.KindCollapsed,
			Depth:      n.Depth,
			IndexStart: tree.Int(s),
			IndexEnd:   tree.Int(e),
			Repeat:     tree.Int(hi - lo),
			Tags:       slices.Clone(n.Tags),
			Parameters: portion(n.Parameters, lo, hi, span),
			Buffers:    portion(n.Buffers, lo, hi, span),
			Synthetic:  true,
		})
	}
	return out
}

func portion(s *tree.Summary, lo, hi, n int) *tree.Summary {
	if s == nil {
		return nil
	}
	out := &tree.Summary{}
	if s.Self != nil {
		v := s.Self.Portion(lo, hi, n)
		out.Self = &v
	}
	if s.Total != nil {
		v := s.Total.Portion(lo, hi, n)
		out.Total = &v
	}
	return out
}
