package topology

import "sort"

// RouteRow is one row of a routing table: the shortest-known route from Src
// to Dst, the next hop to take, and its total cost (spec.md §3).
type RouteRow struct {
	Src     int
	Dst     int
	NextHop int
	Cost    Cost
}

// ComputeRoutingTable produces the controller's full routing table: for
// every live src and every dst in [0,N), the shortest path in the subgraph
// induced by live minus declared failed links (spec.md §4.4).
//
// live maps switch id → liveness; only keys with value true are considered
// live. The returned rows are ordered by (Src, Dst) ascending for
// deterministic logging and testing.
func ComputeRoutingTable(g *Graph, live map[int]bool, failed *FailedLinks) []RouteRow {
	srcs := make([]int, 0, len(live))
	for id, alive := range live {
		if alive {
			srcs = append(srcs, id)
		}
	}
	sort.Ints(srcs)

	rows := make([]RouteRow, 0, len(srcs)*g.N)
	for _, src := range srcs {
		for dst := 0; dst < g.N; dst++ {
			rows = append(rows, routeRow(g, src, dst, live, failed))
		}
	}
	return rows
}

// routeRow computes a single (src,dst) row following the rules in
// spec.md §4.4: self row, unreachable row, or next-hop row.
func routeRow(g *Graph, src, dst int, live map[int]bool, failed *FailedLinks) RouteRow {
	if src == dst {
		return RouteRow{Src: src, Dst: dst, NextHop: src, Cost: 0}
	}

	path, cost := shortestPath(g, src, dst, live, failed)
	if path == nil {
		return RouteRow{Src: src, Dst: dst, NextHop: -1, Cost: Inf}
	}

	nextHop := dst
	if len(path) >= 2 {
		nextHop = path[1]
	}
	return RouteRow{Src: src, Dst: dst, NextHop: nextHop, Cost: cost}
}

// RowsFrom filters rows to those originating at src — the rows the
// controller ships in a Routing_Update to that switch (spec.md §3, §4.1).
// The Cost column is kept; the caller drops it when building the
// switch-view entries.
func RowsFrom(rows []RouteRow, src int) []RouteRow {
	out := make([]RouteRow, 0, len(rows))
	for _, r := range rows {
		if r.Src == src {
			out = append(out, r)
		}
	}
	return out
}
