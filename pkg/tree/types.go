package tree

import (
	"strconv"
)

// =============================================================================
// Kinds
// =============================================================================

// Kind classifies a tree node.
type Kind string

const (
	// KindContainer is a module with child modules.
	KindContainer Kind = "container"
	// KindLeaf is a module without child modules.
	KindLeaf Kind = "leaf"
	// KindCollapsed is an aggregate standing in for a run of repeated siblings.
	KindCollapsed Kind = "collapsed"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindContainer, KindLeaf, KindCollapsed:
		return true
	}
	return false
}

// =============================================================================
// Statistics
// =============================================================================

// Stats is a parameter or buffer count summary.
type Stats struct {
	Count     int64 `json:"count" bson:"count"`
	Trainable int64 `json:"trainable" bson:"trainable"`
	SizeBytes int64 `json:"size_bytes" bson:"size_bytes"`
}

// Add returns the element-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Count:     s.Count + o.Count,
		Trainable: s.Trainable + o.Trainable,
		SizeBytes: s.SizeBytes + o.SizeBytes,
	}
}

// Portion returns the share of s attributed to the half-open element range
// [lo, hi) out of n equal elements. Shares of adjacent ranges add up exactly,
// so splitting s into consecutive portions preserves the sum. A non-positive
// n returns s unchanged.
func (s Stats) Portion(lo, hi, n int) Stats {
	if n <= 0 {
		return s
	}
	share := func(v int64) int64 {
		return v*int64(hi)/int64(n) - v*int64(lo)/int64(n)
	}
	return Stats{
		Count:     share(s.Count),
		Trainable: share(s.Trainable),
		SizeBytes: share(s.SizeBytes),
	}
}

// Summary holds the self and total statistics of a node. Either part may be
// absent in the input.
type Summary struct {
	Self  *Stats `json:"self,omitempty" bson:"self,omitempty"`
	Total *Stats `json:"total,omitempty" bson:"total,omitempty"`
}

// Clone returns a deep copy of s. A nil summary clones to nil.
func (s *Summary) Clone() *Summary {
	if s == nil {
		return nil
	}
	out := &Summary{}
	if s.Self != nil {
		v := *s.Self
		out.Self = &v
	}
	if s.Total != nil {
		v := *s.Total
		out.Total = &v
	}
	return out
}

// Detail describes a single named parameter or buffer tensor.
type Detail struct {
	Name      string `json:"name" bson:"name"`
	Shape     []int  `json:"shape,omitempty" bson:"shape,omitempty"`
	Numel     int64  `json:"numel" bson:"numel"`
	DType     string `json:"dtype,omitempty" bson:"dtype,omitempty"`
	Trainable bool   `json:"trainable,omitempty" bson:"trainable,omitempty"`
}

// =============================================================================
// RawNode - Wire Format
// =============================================================================

// RawNode is one module record as produced upstream. Optional integer fields
// are pointers so that absence is distinguishable from zero.
type RawNode struct {
	Name             string    `json:"name"`
	Path             string    `json:"path"`
	Class            string    `json:"class,omitempty"`
	Kind             string    `json:"kind,omitempty"`
	Index            *int      `json:"index,omitempty"`
	IndexStart       *int      `json:"index_start,omitempty"`
	IndexEnd         *int      `json:"index_end,omitempty"`
	Repeat           *int      `json:"repeat,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	Parameters       *Summary  `json:"parameters,omitempty"`
	Buffers          *Summary  `json:"buffers,omitempty"`
	ParameterDetails []Detail  `json:"parameter_details,omitempty"`
	BufferDetails    []Detail  `json:"buffer_details,omitempty"`
	Children         []RawNode `json:"children,omitempty"`
}

// =============================================================================
// Node - Canonical Tree Node
// =============================================================================

// Node is the canonical tree node. Its identity is Path.
//
// Synthetic is true only for nodes created by the repeat collapser or by
// splitting a collapsed node; such nodes have no counterpart in the input.
type Node struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	ClassName string `json:"class,omitempty"`
	Kind      Kind   `json:"kind"`
	Depth     int    `json:"depth"`

	Index      *int `json:"index,omitempty"`
	IndexStart *int `json:"index_start,omitempty"`
	IndexEnd   *int `json:"index_end,omitempty"`
	Repeat     *int `json:"repeat,omitempty"`

	Parameters       *Summary `json:"parameters,omitempty"`
	Buffers          *Summary `json:"buffers,omitempty"`
	ParameterDetails []Detail `json:"parameter_details,omitempty"`
	BufferDetails    []Detail `json:"buffer_details,omitempty"`

	Tags      []string `json:"tags,omitempty"`
	Children  []*Node  `json:"children,omitempty"`
	Synthetic bool     `json:"synthetic,omitempty"`
}

// HasChildren reports whether the node has at least one child.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// IsCollapsed reports whether the node is a collapsed aggregate.
func (n *Node) IsCollapsed() bool { return n.Kind == KindCollapsed }

// Label returns the display label: the name, falling back to the class name
// and finally the path.
func (n *Node) Label() string {
	switch {
	case n.Name != "":
		return n.Name
	case n.ClassName != "":
		return n.ClassName
	default:
		return n.Path
	}
}

// OrderIndex returns the node's position hint among its siblings: the explicit
// index, else the start of its index range.
func (n *Node) OrderIndex() (int, bool) {
	if n.Index != nil {
		return *n.Index, true
	}
	if n.IndexStart != nil {
		return *n.IndexStart, true
	}
	return 0, false
}

// Range returns the inclusive index range the node covers. A node with only
// an explicit index covers the single-element range [index, index].
func (n *Node) Range() (start, end int, ok bool) {
	if n.IndexStart != nil && n.IndexEnd != nil && *n.IndexEnd >= *n.IndexStart {
		return *n.IndexStart, *n.IndexEnd, true
	}
	if n.Index != nil {
		return *n.Index, *n.Index, true
	}
	return 0, 0, false
}

// HasRangeIndex reports whether the node exposes an explicit index or an
// explicit index range.
func (n *Node) HasRangeIndex() bool {
	_, _, ok := n.Range()
	return ok
}

// RepeatCount returns the number of repetitions the node stands for: the
// explicit repeat if positive, else the span of its index range, else 1.
func (n *Node) RepeatCount() int {
	if n.Repeat != nil && *n.Repeat > 0 {
		return *n.Repeat
	}
	if n.IndexStart != nil && n.IndexEnd != nil && *n.IndexEnd >= *n.IndexStart {
		return *n.IndexEnd - *n.IndexStart + 1
	}
	return 1
}

// TotalParams returns the total parameter count, falling back to the self
// count when no total is present.
func (n *Node) TotalParams() int64 {
	if n.Parameters == nil {
		return 0
	}
	if n.Parameters.Total != nil {
		return n.Parameters.Total.Count
	}
	if n.Parameters.Self != nil {
		return n.Parameters.Self.Count
	}
	return 0
}

// Walk calls fn for n and every descendant in depth-first pre-order. If fn
// returns false the node's children are skipped.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// RangeLabel formats an inclusive index range as "start..end".
func RangeLabel(start, end int) string {
	return strconv.Itoa(start) + ".." + strconv.Itoa(end)
}

// Int returns a pointer to v, for building optional index fields.
func Int(v int) *int { return &v }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	return Int(*p)
}
