package transform

import (
	"slices"

	"github.com/matzehuels/unformer/pkg/dag"
)

// OrderRows reorders nodes within rows to reduce edge crossings.
//
// Each pass sweeps down (ordering every row by the barycenter of its parents)
// and then up (by the barycenter of its children), followed by adjacent-swap
// refinement. Nodes without neighbors in the reference row keep their
// position. The best ordering seen is kept, so the result never has more
// crossings than the input. Ties keep the incoming order, which makes the
// outcome deterministic.
func OrderRows(g *dag.DAG, passes int) {
	rows := g.RowIDs()
	if len(rows) < 2 {
		return
	}
	if passes < 1 {
		passes = 1
	}

	best := snapshot(g, rows)
	bestCrossings := dag.CountCrossings(g)

	for pass := 0; pass < passes && bestCrossings > 0; pass++ {
		for i := 1; i < len(rows); i++ {
			reorderByBarycenter(g, rows[i], rows[i-1], true)
		}
		for i := len(rows) - 2; i >= 0; i-- {
			reorderByBarycenter(g, rows[i], rows[i+1], false)
		}
		refineSwaps(g, rows)

		if c := dag.CountCrossings(g); c < bestCrossings {
			bestCrossings = c
			best = snapshot(g, rows)
		}
	}

	for _, r := range rows {
		g.SetRowOrder(r, best[r])
	}
}

func snapshot(g *dag.DAG, rows []int) map[int][]string {
	s := make(map[int][]string, len(rows))
	for _, r := range rows {
		s[r] = dag.NodeIDs(g.NodesInRow(r))
	}
	return s
}

func reorderByBarycenter(g *dag.DAG, row, ref int, useParents bool) {
	ids := dag.NodeIDs(g.NodesInRow(row))
	refPos := dag.PosMap(dag.NodeIDs(g.NodesInRow(ref)))

	type entry struct {
		id    string
		value float64
	}
	entries := make([]entry, len(ids))
	for i, id := range ids {
		neighbors := g.Children(id)
		if useParents {
			neighbors = g.Parents(id)
		}
		sum, n := 0.0, 0
		for _, nb := range neighbors {
			if p, ok := refPos[nb]; ok {
				sum += float64(p)
				n++
			}
		}
		value := float64(i)
		if n > 0 {
			value = sum / float64(n)
		}
		entries[i] = entry{id, value}
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.value < b.value:
			return -1
		case a.value > b.value:
			return 1
		}
		return 0
	})

	ordered := make([]string, len(entries))
	for i, e := range entries {
		ordered[i] = e.id
	}
	g.SetRowOrder(row, ordered)
}

// refineSwaps exchanges neighbors within a row while doing so strictly lowers
// the crossings against both adjacent rows.
func refineSwaps(g *dag.DAG, rows []int) {
	for improved := true; improved; {
		improved = false
		for i, r := range rows {
			ids := dag.NodeIDs(g.NodesInRow(r))
			var above, below map[string]int
			if i > 0 {
				above = dag.PosMap(dag.NodeIDs(g.NodesInRow(rows[i-1])))
			}
			if i+1 < len(rows) {
				below = dag.PosMap(dag.NodeIDs(g.NodesInRow(rows[i+1])))
			}

			changed := false
			for j := 0; j+1 < len(ids); j++ {
				a, b := ids[j], ids[j+1]
				before := pairCrossings(g, a, b, above, below)
				after := pairCrossings(g, b, a, above, below)
				if after < before {
					ids[j], ids[j+1] = b, a
					changed = true
				}
			}
			if changed {
				g.SetRowOrder(r, ids)
				improved = true
			}
		}
	}
}

func pairCrossings(g *dag.DAG, left, right string, above, below map[string]int) int {
	c := 0
	if above != nil {
		c += dag.CountPairCrossings(g, left, right, above, true)
	}
	if below != nil {
		c += dag.CountPairCrossings(g, left, right, below, false)
	}
	return c
}

// Prepare runs the full layered preprocessing: cycle breaking, layering,
// subdivision of long edges and crossing reduction. It returns the number of
// edges removed to break cycles.
func Prepare(g *dag.DAG, passes int) int {
	removed := BreakCycles(g)
	AssignLayers(g)
	Subdivide(g)
	OrderRows(g, passes)
	return removed
}
