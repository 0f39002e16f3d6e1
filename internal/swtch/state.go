// Package swtch implements the switch side of the protocol: registration
// with the controller, neighbor keep-alive probing, topology reporting,
// and installed-route bookkeeping (spec.md §4.3). Named swtch (not
// switch) because the latter is a Go keyword.
package swtch

import (
	"sync"
	"time"

	"github.com/okdaichi/sdnctl/internal/topology"
	"github.com/okdaichi/sdnctl/internal/wire"
)

// Neighbor tracks one configured neighbor's liveness and last-heard time
// (spec.md §3 "Neighbor-state map").
type Neighbor struct {
	Alive     bool
	LastHeard time.Time
}

// State holds every piece of mutable switch data guarded by one mutex,
// per spec.md §5.
type State struct {
	mu sync.Mutex

	selfID  int
	failed  *topology.FailedLinks // declared failures touching selfID
	connected map[int]wire.DirectoryEntry // full directory from Register_Response
	neighbors map[int]*Neighbor // candidate neighbors: every other switch in the directory, not only adjacent ones
	routes    []wire.RouteEntry
}

// NewState creates switch state for selfID with an empty directory and no
// failed links yet (populated once Register_Response arrives).
func NewState(selfID int) *State {
	return &State{
		selfID:    selfID,
		failed:    topology.NewFailedLinks(),
		connected: make(map[int]wire.DirectoryEntry),
		neighbors: make(map[int]*Neighbor),
	}
}

// SelfID returns this switch's id.
func (s *State) SelfID() int { return s.selfID }

// InstallDirectory replaces the connected-switch directory and
// failed-link set from a Register_Response, and (re)initializes the
// neighbor-liveness map: every other switch starts as a live candidate
// neighbor except those whose link to selfID is declared failed
// (spec.md §4.3: "except any pair present in the failed-link map, which
// is excluded from liveNeighbors from the start"). Idempotent, so a late
// or duplicate Register_Response is safe to apply again (spec.md §4.3
// "accept and reset directory (idempotent)").
func (s *State) InstallDirectory(directory []wire.DirectoryEntry, failedPairs [][2]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failed = topology.NewFailedLinks()
	s.failed.Merge(failedPairs)

	s.connected = make(map[int]wire.DirectoryEntry, len(directory))
	for _, d := range directory {
		s.connected[d.ID] = d
	}

	now := time.Now()
	s.neighbors = make(map[int]*Neighbor, len(directory))
	for _, d := range directory {
		if d.ID == s.selfID {
			continue
		}
		if s.failed.Has(s.selfID, d.ID) {
			continue
		}
		s.neighbors[d.ID] = &Neighbor{Alive: true, LastHeard: now}
	}
}

// Connected returns a snapshot of the full switch directory.
func (s *State) Connected() map[int]wire.DirectoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]wire.DirectoryEntry, len(s.connected))
	for id, d := range s.connected {
		out[id] = d
	}
	return out
}

// IsFailed reports whether the link (selfID, n) is declared failed.
func (s *State) IsFailed(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed.Has(s.selfID, n)
}

// LiveNeighbors returns a snapshot of the ids of currently-live
// candidate neighbors (spec.md §5: copy under the lock before use).
func (s *State) LiveNeighbors() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.neighbors))
	for id, nb := range s.neighbors {
		if nb.Alive {
			out = append(out, id)
		}
	}
	return out
}

// TouchNeighbor refreshes n's last-heard time. If n was dead, it is
// revived (Alive=true) and the return value reports the transition so
// the caller can log Neighbor Alive and trigger an unscheduled topology
// report (spec.md §4.3 Keep_Alive handling).
func (s *State) TouchNeighbor(n int, now time.Time) (revived bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, ok := s.neighbors[n]
	if !ok {
		nb = &Neighbor{}
		s.neighbors[n] = nb
	}
	wasAlive := nb.Alive
	nb.Alive = true
	nb.LastHeard = now
	return !wasAlive
}

// TouchSelf refreshes this switch's own entry in the neighbor-last-heard
// map (spec.md §4.3 keep-alive task: "also refreshes self's entry in
// neighborLastHeard").
func (s *State) TouchSelf(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, ok := s.neighbors[s.selfID]
	if !ok {
		nb = &Neighbor{}
		s.neighbors[s.selfID] = nb
	}
	nb.Alive = true
	nb.LastHeard = now
}

// ExpireNeighbors scans for live neighbors whose link is not declared
// failed and whose last-heard is older than now-timeout, marks them
// dead, and returns their ids (spec.md §4.3 timeout task).
func (s *State) ExpireNeighbors(now time.Time, timeout time.Duration) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dead []int
	for id, nb := range s.neighbors {
		if !nb.Alive || id == s.selfID {
			continue
		}
		if s.failed.Has(s.selfID, id) {
			continue
		}
		if now.Sub(nb.LastHeard) > timeout {
			nb.Alive = false
			dead = append(dead, id)
		}
	}
	return dead
}

// NeighborStateSnapshot returns the liveness and last-heard time of every
// tracked neighbor (including self), for a Topology_Update payload
// (spec.md §4.1).
func (s *State) NeighborStateSnapshot() (map[int]bool, map[int]time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := make(map[int]bool, len(s.neighbors))
	lastHeard := make(map[int]time.Time, len(s.neighbors))
	for id, nb := range s.neighbors {
		state[id] = nb.Alive
		lastHeard[id] = nb.LastHeard
	}
	return state, lastHeard
}

// InstallRoutes replaces the locally-installed routing table (spec.md
// §4.3 "replace local routing table").
func (s *State) InstallRoutes(rows []wire.RouteEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = rows
}

// Routes returns the currently-installed routing table.
func (s *State) Routes() []wire.RouteEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.RouteEntry, len(s.routes))
	copy(out, s.routes)
	return out
}
