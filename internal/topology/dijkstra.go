package topology

import "container/heap"

// shortestPath runs Dijkstra from src over the subgraph induced by
// liveSwitches (src is always treated as live regardless of the set passed
// in — the caller only invokes this for switches already in the live set),
// skipping declared failed links (spec.md §4.4). It returns the full
// ordered path from src to dst and its cost; if dst is unreachable, path is
// nil and cost is Inf.
//
// Vertices not in live are "absent": they are never relaxed into (so they
// can never appear as an intermediate hop or as a reachable destination),
// matching the spec's "popped vertices not in the live set are skipped;
// edges to/from them are ignored."
//
// Tie-breaking is deterministic: equal-cost relaxations are pushed with a
// strictly increasing sequence number, and the priority queue returns the
// earliest-inserted entry first among equal costs (spec.md §4.4).
func shortestPath(g *Graph, src, dst int, live map[int]bool, failed *FailedLinks) ([]int, Cost) {
	dist := make([]Cost, g.N)
	pred := make([]int, g.N)
	for i := range dist {
		dist[i] = Inf
		pred[i] = -1
	}
	dist[src] = 0

	pq := &priorityQueue{}
	heap.Init(pq)
	var seq int
	heap.Push(pq, &pqItem{node: src, cost: 0, seq: seq})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		u := item.node

		if item.cost > dist[u] {
			continue // stale entry
		}

		for v := 0; v < g.N; v++ {
			if v == u {
				continue
			}
			if v != src && !live[v] {
				continue // absent vertex: never a hop, never a destination
			}
			c := g.Cost(u, v)
			if c >= Inf {
				continue // no edge
			}
			if failed.Has(u, v) {
				continue // declared failed link, treated as weight Inf
			}
			alt := dist[u] + c
			if alt < dist[v] {
				dist[v] = alt
				pred[v] = u
				seq++
				heap.Push(pq, &pqItem{node: v, cost: alt, seq: seq})
			}
		}
	}

	if dist[dst] >= Inf {
		return nil, Inf
	}

	// Reconstruct the full path by walking predecessors back to src, then
	// reverse. Materializing the whole path (rather than just the
	// predecessor array) keeps nextHop extraction a one-liner below.
	path := []int{dst}
	for at := dst; at != src; {
		at = pred[at]
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, dist[dst]
}

type pqItem struct {
	node  int
	cost  Cost
	seq   int
	index int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].cost != pq[j].cost {
		return pq[i].cost < pq[j].cost
	}
	return pq[i].seq < pq[j].seq
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}
