package transform

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/unformer/pkg/tree"
)

// StackMarker separates a parent path from the label of a synthetic stack.
const StackMarker = "::stack:"

// signature is the shallow structural fingerprint of a node.
type signature struct {
	label  string
	tags   string
	perRep int64
}

func shallowSignature(n *tree.Node) signature {
	label := n.ClassName
	if label == "" {
		label = n.Name
	}
	tags := slices.Clone(n.Tags)
	slices.Sort(tags)
	tags = slices.Compact(tags)

	perRep := int64(math.Round(float64(n.TotalParams()) / float64(n.RepeatCount())))
	return signature{label: label, tags: strings.Join(tags, "\x00"), perRep: perRep}
}

func deepSignature(n *tree.Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(c.ClassName)
		b.WriteByte('|')
		b.WriteString(string(c.Kind))
		b.WriteByte(';')
	}
	return b.String()
}

// Compatible reports whether b may join a run of repeated siblings headed by a.
func Compatible(a, b *tree.Node) bool {
	if shallowSignature(a) != shallowSignature(b) {
		return false
	}
	if !a.HasRangeIndex() || !b.HasRangeIndex() {
		return false
	}
	if a.HasChildren() && b.HasChildren() {
		return deepSignature(a) == deepSignature(b)
	}
	return true
}

// CollapseRepeats groups runs of compatible siblings into synthetic stack
// nodes. parentPath is the path of the siblings' parent and prefixes the path
// of every synthetic node. Runs of length one pass through unchanged; the
// input slice and its nodes are not modified.
func CollapseRepeats(parentPath string, siblings []*tree.Node) []*tree.Node {
	if len(siblings) < 2 {
		return slices.Clone(siblings)
	}

	out := make([]*tree.Node, 0, len(siblings))
	used := make(map[string]int)
	for _, s := range siblings {
		used[s.Path]++
	}

	flush := func(run []*tree.Node) {
		if len(run) == 1 {
			out = append(out, run[0])
			return
		}
		out = append(out, stackNode(parentPath, run, used))
	}

	start := 0
	for i := 1; i < len(siblings); i++ {
		if !Compatible(siblings[start], siblings[i]) {
			flush(siblings[start:i])
			start = i
		}
	}
	flush(siblings[start:])
	return out
}

// CollapseTree returns a copy of root in which [CollapseRepeats] has been
// applied to the children of every node, deepest levels first.
func CollapseTree(root *tree.Node) *tree.Node {
	if root == nil {
		return nil
	}
	cp := *root
	if len(root.Children) > 0 {
		children := make([]*tree.Node, len(root.Children))
		for i, c := range root.Children {
			children[i] = CollapseTree(c)
		}
		cp.Children = CollapseRepeats(root.Path, children)
	}
	return &cp
}

func stackNode(parentPath string, run []*tree.Node, used map[string]int) *tree.Node {
	first := run[0]
	n := &tree.Node{
		ClassName:  first.ClassName,
		Kind:       tree.KindCollapsed,
		Depth:      first.Depth,
		Tags:       unionTags(run),
		Parameters: sumSummaries(run, func(m *tree.Node) *tree.Summary { return m.Parameters }),
		Buffers:    sumSummaries(run, func(m *tree.Node) *tree.Summary { return m.Buffers }),
		Synthetic:  true,
	}

	repeat := 0
	for _, m := range run {
		repeat += m.RepeatCount()
	}
	n.Repeat = tree.Int(repeat)

	label := first.Name
	if start, end, ok := contiguousRange(run); ok {
		label = tree.RangeLabel(start, end)
		n.IndexStart = tree.Int(start)
		n.IndexEnd = tree.Int(end)
	}
	if label == "" {
		label = first.Label()
	}
	n.Name = label
	n.Path = uniquePath(parentPath+StackMarker+label, used)
	return n
}

// contiguousRange reports the covered range when every member's range starts
// right after the previous member's range ends.
func contiguousRange(run []*tree.Node) (start, end int, ok bool) {
	for i, m := range run {
		s, e, has := m.Range()
		if !has {
			return 0, 0, false
		}
		if i == 0 {
			start = s
		} else if s != end+1 {
			return 0, 0, false
		}
		end = e
	}
	return start, end, true
}

func uniquePath(path string, used map[string]int) string {
	used[path]++
	if used[path] == 1 {
		return path
	}
	for i := used[path]; ; i++ {
		candidate := path + "~" + strconv.Itoa(i)
		if used[candidate] == 0 {
			used[candidate] = 1
			return candidate
		}
	}
}

func unionTags(run []*tree.Node) []string {
	var tags []string
	for _, m := range run {
		tags = append(tags, m.Tags...)
	}
	if len(tags) == 0 {
		return nil
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}

// sumSummaries adds up the self and total parts of the members' summaries.
// The result is nil when no member has a summary; a part is present when at
// least one member has it.
func sumSummaries(run []*tree.Node, get func(*tree.Node) *tree.Summary) *tree.Summary {
	var out *tree.Summary
	for _, m := range run {
		s := get(m)
		if s == nil {
			continue
		}
		if out == nil {
			out = &tree.Summary{}
		}
		out.Self = addStats(out.Self, s.Self)
		out.Total = addStats(out.Total, s.Total)
	}
	return out
}

func addStats(acc, v *tree.Stats) *tree.Stats {
	if v == nil {
		return acc
	}
	if acc == nil {
		cp := *v
		return &cp
	}
	sum := acc.Add(*v)
	return &sum
}
