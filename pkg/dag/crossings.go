package dag

import "slices"

// CountCrossings returns the number of edge crossings of the graph in its
// current row order, summed over every pair of consecutive rows.
func CountCrossings(g *DAG) int {
	rows := g.RowIDs()
	crossings := 0
	for i := 0; i+1 < len(rows); i++ {
		upper := NodeIDs(g.NodesInRow(rows[i]))
		lower := NodeIDs(g.NodesInRow(rows[i+1]))
		crossings += CountLayerCrossings(g, upper, lower)
	}
	return crossings
}

// CountLayerCrossings counts crossings between two adjacent rows given their
// left-to-right orders. Edges (u1,v1) and (u2,v2) cross when u1 is left of
// u2 and v1 is right of v2; counting them is an inversion count over target
// positions, done with a Fenwick tree in O(E log V).
func CountLayerCrossings(g *DAG, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	lowerPos := PosMap(lower)

	type edge struct{ upper, lower int }
	edges := make([]edge, 0, len(upper)*2)
	for i, id := range upper {
		for _, child := range g.Children(id) {
			if pos, ok := lowerPos[child]; ok {
				edges = append(edges, edge{i, pos})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}

// CountPairCrossings counts the crossings between the edges of two nodes of
// the same row, left before right, against an adjacent row whose positions
// are given by adjPos. With useParents the row above is used, otherwise the
// row below. Comparing the count for (a, b) with the count for (b, a) tells
// whether swapping the two nodes helps.
func CountPairCrossings(g *DAG, left, right string, adjPos map[string]int, useParents bool) int {
	var lnbr, rnbr []string
	if useParents {
		lnbr, rnbr = g.Parents(left), g.Parents(right)
	} else {
		lnbr, rnbr = g.Children(left), g.Children(right)
	}

	crossings := 0
	for _, ln := range lnbr {
		lp, ok := adjPos[ln]
		if !ok {
			continue
		}
		for _, rn := range rnbr {
			if rp, ok := adjPos[rn]; ok && lp > rp {
				crossings++
			}
		}
	}
	return crossings
}
