// Package controller implements the centralized SDN controller: the
// authoritative topology graph, the live-switch set, per-switch
// last-heard timestamps, and shortest-path routing computed over them
// (spec.md §4.2). A single receive/dispatch loop owns all mutation;
// recomputation runs inline on that same goroutine, matching spec.md §5's
// "one receive/dispatch task; recomputation runs inline" design.
package controller

import (
	"net"
	"sync"
	"time"

	"github.com/okdaichi/sdnctl/internal/topology"
)

// State holds every piece of mutable controller data guarded by one
// mutex, per spec.md §5: "a single per-process lock is sufficient."
type State struct {
	mu sync.Mutex

	graph     *topology.Graph
	failed    *topology.FailedLinks
	n         int
	live      map[int]bool
	lastHeard map[int]time.Time
	addrs     map[int]*net.UDPAddr
	routes    []topology.RouteRow
}

// NewState creates controller state for a topology of n switches over
// graph. failed is the aggregate symmetrized failed-link set collected
// during registration (spec.md §9 open question).
func NewState(graph *topology.Graph, failed *topology.FailedLinks, n int) *State {
	return &State{
		graph:     graph,
		failed:    failed,
		n:         n,
		live:      make(map[int]bool, n),
		lastHeard: make(map[int]time.Time, n),
		addrs:     make(map[int]*net.UDPAddr, n),
	}
}

// N returns the configured switch count.
func (s *State) N() int { return s.n }

// RegisteredCount returns how many distinct switches have ever sent a
// Register_Request (used to detect when registration phase completes).
func (s *State) RegisteredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.addrs)
}

// Register records switch id's endpoint and marks it live, refreshing its
// last-heard clock. Returns true if this is the first time id has
// registered; the registration phase itself tracks completion through
// RegisteredCount. Calling Register again for an already-known id is
// idempotent for the directory (spec.md §8 "Scenario E — duplicate
// registration": count advances by one only).
func (s *State) Register(id int, addr *net.UDPAddr, now time.Time) (firstTime bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, known := s.addrs[id]
	s.addrs[id] = addr
	s.live[id] = true
	s.lastHeard[id] = now
	return !known
}

// Resurrect re-adds an already-known switch to the live set (it had
// previously timed out) and refreshes its last-heard clock. Returns true
// if the switch was not already live, i.e. this is a genuine
// dead→alive transition (spec.md §4.2 "Register_Request from a
// previously-dead switch").
func (s *State) Resurrect(id int, addr *net.UDPAddr, now time.Time) (transitioned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasLive := s.live[id]
	s.addrs[id] = addr
	s.live[id] = true
	s.lastHeard[id] = now
	return !wasLive
}

// Touch refreshes id's last-heard clock without altering liveness.
func (s *State) Touch(id int, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, known := s.addrs[id]; known {
		s.lastHeard[id] = now
	}
}

// MarkDead removes id from the live set. Returns true if it was live
// immediately prior (so the caller only logs/recomputes on a genuine
// transition).
func (s *State) MarkDead(id int) (transitioned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasLive := s.live[id]
	s.live[id] = false
	return wasLive
}

// ScanTimeouts returns the ids of every currently-live switch whose
// last-heard time is older than now.Add(-timeout), without mutating
// state — the caller decides whether/how to mark them dead (spec.md
// §4.2: "After every receive, scan the last-heard map").
func (s *State) ScanTimeouts(now time.Time, timeout time.Duration) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dead []int
	for id, alive := range s.live {
		if !alive {
			continue
		}
		if now.Sub(s.lastHeard[id]) > timeout {
			dead = append(dead, id)
		}
	}
	return dead
}

// LiveSnapshot returns a copy of the live-switch map, safe to range over
// after the lock is released (spec.md §5: "copy the iteration set under
// the lock and release before transmitting").
func (s *State) LiveSnapshot() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]bool, len(s.live))
	for id, alive := range s.live {
		out[id] = alive
	}
	return out
}

// AddrSnapshot returns a copy of the switch-id-to-endpoint directory.
func (s *State) AddrSnapshot() map[int]*net.UDPAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]*net.UDPAddr, len(s.addrs))
	for id, a := range s.addrs {
		out[id] = a
	}
	return out
}

// LiveCount returns the number of currently-live switches.
func (s *State) LiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, alive := range s.live {
		if alive {
			n++
		}
	}
	return n
}

// Recompute runs the shortest-path engine over the current live set and
// failed-link set, stores the result, and returns it (spec.md §4.4). The
// caller is expected to hold no lock when calling this — Recompute takes
// its own snapshot internally.
func (s *State) Recompute() []topology.RouteRow {
	live := s.LiveSnapshot()
	rows := topology.ComputeRoutingTable(s.graph, live, s.failed)

	s.mu.Lock()
	s.routes = rows
	s.mu.Unlock()
	return rows
}

// Routes returns the most recently computed routing table.
func (s *State) Routes() []topology.RouteRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routes
}

// FailedLinks exposes the aggregate failed-link set. The server adds each
// switch's `-f` declaration to it and reads it when building a
// Register_Response payload.
func (s *State) FailedLinks() *topology.FailedLinks {
	return s.failed
}

// Snapshot is a JSON-friendly view of the controller's current state,
// exposed by the admin /topology debug endpoint (SPEC_FULL.md §4
// "Supplemented Features").
type Snapshot struct {
	N           int                 `json:"n"`
	Live        map[int]bool        `json:"live"`
	Routes      []topology.RouteRow `json:"routes"`
	FailedLinks [][2]int            `json:"failed_links"`
}

// Snapshot returns a point-in-time copy of the controller's state for
// debug/inspection purposes.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		N:           s.N(),
		Live:        s.LiveSnapshot(),
		Routes:      s.Routes(),
		FailedLinks: s.failed.Pairs(),
	}
}
