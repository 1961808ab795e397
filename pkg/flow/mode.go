package flow

import (
	"slices"

	"github.com/matzehuels/unformer/pkg/tree"
)

// Mode is the execution structure of a sibling set.
type Mode string

const (
	// ModeIndexed means the siblings run one after another.
	ModeIndexed Mode = "indexed"
	// ModeParallel means the siblings are independent branches.
	ModeParallel Mode = "parallel"
)

// Result is the outcome of [ResolveFlowMode]. Order is the execution order
// for indexed sets and the input order for parallel sets.
type Result struct {
	Mode  Mode
	Order []*tree.Node
}

// ResolveFlowMode classifies the children of parent. The first matching rule
// wins:
//
//  1. Fewer than two children: indexed, order unchanged.
//  2. The parent is a mixture-of-experts or router: parallel.
//  3. At least two distinct modality branches among the children and no
//     branchless child is a connector: parallel.
//  4. Otherwise indexed, sorted by order index when every child has one.
//
// The result is deterministic and children is never modified.
func ResolveFlowMode(parent *tree.Node, children []*tree.Node) Result {
	if len(children) < 2 {
		return Result{Mode: ModeIndexed, Order: slices.Clone(children)}
	}
	if parent != nil && IsMixture(parent) {
		return Result{Mode: ModeParallel, Order: slices.Clone(children)}
	}
	if isBranching(children) {
		return Result{Mode: ModeParallel, Order: slices.Clone(children)}
	}
	return Result{Mode: ModeIndexed, Order: orderByIndex(children)}
}

func isBranching(children []*tree.Node) bool {
	keys := make(map[string]struct{}, len(branchVocab))
	for _, c := range children {
		key := BranchKey(c)
		if key == "" {
			if IsConnector(c) {
				return false
			}
			continue
		}
		keys[key] = struct{}{}
	}
	return len(keys) >= 2
}

// orderByIndex sorts by order index only when every node has one; the sort is
// stable so equal indices keep their input order.
func orderByIndex(children []*tree.Node) []*tree.Node {
	out := slices.Clone(children)
	for _, c := range children {
		if _, ok := c.OrderIndex(); !ok {
			return out
		}
	}
	slices.SortStableFunc(out, func(a, b *tree.Node) int {
		ai, _ := a.OrderIndex()
		bi, _ := b.OrderIndex()
		return ai - bi
	})
	return out
}
