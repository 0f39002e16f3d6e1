package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/okdaichi/sdnctl/internal/eventlog"
	"github.com/okdaichi/sdnctl/internal/topology"
	"github.com/okdaichi/sdnctl/internal/wire"
	"github.com/okdaichi/sdnctl/observability"
)

// K is the keep-alive period; TIMEOUT is the liveness timeout, both fixed
// by spec.md §5.
const (
	K       = 2 * time.Second
	Timeout = 3 * K
)

// Server runs the controller's registration phase followed by its
// steady-state receive/dispatch loop (spec.md §4.2).
type Server struct {
	sock  *wire.Socket
	state *State
	log   *eventlog.Logger
	rec   *observability.Recorder
}

// New creates a Server bound to sock, with state seeded from graph/n and
// writing events to evLog.
func New(sock *wire.Socket, graph *topology.Graph, n int, evLog *eventlog.Logger) *Server {
	return &Server{
		sock:  sock,
		state: NewState(graph, topology.NewFailedLinks(), n),
		log:   evLog,
		rec:   observability.NewRecorder("controller"),
	}
}

// State exposes the controller's state for read-only inspection (used by
// the admin /topology debug endpoint).
func (srv *Server) State() *State { return srv.state }

// AwaitRegistrations blocks until every switch in [0,N) has sent a
// Register_Request, aggregating their declared failed-link flags, then
// broadcasts Register_Response and the initial routing tables. This
// satisfies spec.md §4.2's registration phase and §8's duplicate
// registration (Scenario E) and self-route (Scenario F) properties.
func (srv *Server) AwaitRegistrations() error {
	for srv.state.RegisteredCount() < srv.state.N() {
		tag, payload, addr, err := srv.sock.Receive()
		if err != nil {
			if addr != nil && !errors.Is(err, wire.ErrUnknownTag) {
				continue // undecodable datagram: dropped silently
			}
			slog.Warn("controller: receive error during registration", "error", err)
			continue
		}
		if tag != wire.TagRegisterRequest {
			// Anything other than Register_Request is ignored during
			// registration phase (spec.md §4.2 only documents
			// Register_Request handling here).
			continue
		}
		req, err := wire.DecodeRegisterRequest(payload)
		if err != nil {
			slog.Warn("controller: malformed register request", "error", err)
			continue
		}

		if req.FailedNeighbor != nil {
			srv.state.FailedLinks().Add(req.SwitchID, *req.FailedNeighbor)
		}
		srv.state.Register(req.SwitchID, addr, time.Now())
		srv.log.RegisterRequest(req.SwitchID)
		srv.rec.RegisterReceived()
	}

	if err := srv.broadcastRegisterResponse(); err != nil {
		return err
	}
	srv.recomputeAndDistribute()
	return nil
}

func (srv *Server) broadcastRegisterResponse() error {
	addrs := srv.state.AddrSnapshot()

	directory := make([]wire.DirectoryEntry, 0, len(addrs))
	for id, addr := range addrs {
		directory = append(directory, wire.DirectoryEntry{
			ID:   id,
			Host: addr.IP.String(),
			Port: addr.Port,
		})
	}
	failedPairs := srv.state.FailedLinks().Pairs()

	for id, addr := range addrs {
		resp := wire.RegisterResponse{Directory: directory, FailedLinks: failedPairs}
		if err := srv.sock.Send(addr, wire.TagRegisterResponse, resp); err != nil {
			return fmt.Errorf("controller: broadcast register response to %d: %w", id, err)
		}
		srv.log.RegisterResponse(id)
	}
	return nil
}

// Serve runs the steady-state receive/dispatch loop forever (spec.md
// §4.2). It returns only on an unrecoverable socket error.
func (srv *Server) Serve() error {
	for {
		tag, payload, addr, err := srv.sock.Receive()
		if err != nil {
			if addr == nil {
				return fmt.Errorf("controller: receive: %w", err)
			}
			// The datagram arrived but did not decode: drop it, warning
			// only for an unknown tag.
			if errors.Is(err, wire.ErrUnknownTag) {
				slog.Warn("controller: unknown tag", "tag", tag, "from", addr)
			}
			continue
		}
		srv.dispatch(tag, payload, addr)
		srv.scanTimeouts()
	}
}

func (srv *Server) dispatch(tag wire.Tag, payload []byte, addr *net.UDPAddr) {
	switch tag {
	case wire.TagRegisterRequest:
		srv.handleRegisterRequest(payload, addr)
	case wire.TagTopologyUpdate:
		srv.handleTopologyUpdate(payload)
	case wire.TagKeepAlive, wire.TagRoutingUpdate, wire.TagRegisterResponse:
		// Not controller-bound in steady state; ignored (spec.md §4.2
		// "Any other tag: ignore").
	default:
		slog.Warn("controller: unknown tag", "tag", tag)
	}
}

func (srv *Server) handleRegisterRequest(payload []byte, addr *net.UDPAddr) {
	req, err := wire.DecodeRegisterRequest(payload)
	if err != nil {
		slog.Warn("controller: malformed register request", "error", err)
		return
	}
	if req.FailedNeighbor != nil {
		srv.state.FailedLinks().Add(req.SwitchID, *req.FailedNeighbor)
	}

	transitioned := srv.state.Resurrect(req.SwitchID, addr, time.Now())
	srv.rec.RegisterReceived()
	if transitioned {
		srv.log.SwitchAlive(req.SwitchID)
		srv.rec.NeighborAlive()
		srv.recomputeAndDistribute()
	}
}

func (srv *Server) handleTopologyUpdate(payload []byte) {
	upd, err := wire.DecodeTopologyUpdate(payload)
	if err != nil {
		slog.Warn("controller: malformed topology update", "error", err)
		return
	}
	srv.state.Touch(upd.SwitchID, time.Now())

	recompute := false
	for n, alive := range upd.NeighborState {
		if alive {
			srv.state.Touch(n, time.Now())
			continue
		}
		if srv.state.MarkDead(n) {
			srv.log.SwitchDead(n)
			srv.rec.NeighborDead()
			recompute = true
		}
	}
	if recompute {
		srv.recomputeAndDistribute()
	}
}

func (srv *Server) scanTimeouts() {
	dead := srv.state.ScanTimeouts(time.Now(), Timeout)
	if len(dead) == 0 {
		return
	}
	recompute := false
	for _, id := range dead {
		if srv.state.MarkDead(id) {
			srv.log.SwitchDead(id)
			srv.rec.NeighborDead()
			recompute = true
		}
	}
	if recompute {
		srv.recomputeAndDistribute()
	}
}

// recomputeAndDistribute runs the shortest-path engine and sends each
// live switch its projected rows (spec.md §4.2 "Route distribution").
func (srv *Server) recomputeAndDistribute() {
	start := time.Now()
	rows := srv.state.Recompute()
	srv.rec.RouteRecompute(time.Since(start))
	observability.SetLiveSwitches(srv.state.LiveCount())

	srv.logRoutingUpdate(rows)
	srv.distribute(rows)
}

func (srv *Server) logRoutingUpdate(rows []topology.RouteRow) {
	crows := make([]eventlog.ControllerRow, 0, len(rows))
	for _, r := range rows {
		crows = append(crows, eventlog.ControllerRow{
			Src: r.Src, Dst: r.Dst, NextHop: r.NextHop, Cost: int(r.Cost),
		})
	}
	srv.log.RoutingUpdateController(crows)
}

func (srv *Server) distribute(rows []topology.RouteRow) {
	addrs := srv.state.AddrSnapshot()
	live := srv.state.LiveSnapshot()

	for id, alive := range live {
		if !alive {
			continue
		}
		addr, ok := addrs[id]
		if !ok {
			continue
		}
		entries := make([]wire.RouteEntry, 0, srv.state.N())
		for _, r := range topology.RowsFrom(rows, id) {
			entries = append(entries, wire.RouteEntry{Src: r.Src, Dst: r.Dst, NextHop: r.NextHop})
		}
		upd := wire.RoutingUpdate{Rows: entries}
		if err := srv.sock.Send(addr, wire.TagRoutingUpdate, upd); err != nil {
			slog.Warn("controller: send routing update failed", "switch_id", id, "error", err)
		}
	}
}
