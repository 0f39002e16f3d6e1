// Package topology holds the static cost matrix, the declared failed-link
// set, and the Dijkstra-based route computation shared by the controller
// and the switch.
package topology

// Cost is the strongly-typed edge weight used throughout the graph and
// the routing table.
type Cost int

// Inf is the sentinel distance meaning "no edge" / "unreachable".
const Inf Cost = 9999
