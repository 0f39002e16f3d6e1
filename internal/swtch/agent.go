package swtch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/okdaichi/sdnctl/internal/eventlog"
	"github.com/okdaichi/sdnctl/internal/wire"
	"github.com/okdaichi/sdnctl/observability"
)

// K is the keep-alive period; Timeout is the liveness timeout, both fixed
// by spec.md §5.
const (
	K       = 2 * time.Second
	Timeout = 3 * K
)

// Agent runs one switch's registration handshake and its four concurrent
// steady-state tasks (spec.md §4.3).
type Agent struct {
	sock           *wire.Socket
	state          *State
	controllerAddr *net.UDPAddr
	log            *eventlog.Logger
	rec            *observability.Recorder

	failedNeighbor *int // optional -f declaration from CLI
}

// New creates an Agent for selfID, talking to controllerAddr over sock,
// logging to evLog. failedNeighbor is the optional -f <neighborId> CLI
// flag (spec.md §6).
func New(sock *wire.Socket, selfID int, controllerAddr *net.UDPAddr, evLog *eventlog.Logger, failedNeighbor *int) *Agent {
	return &Agent{
		sock:           sock,
		state:          NewState(selfID),
		controllerAddr: controllerAddr,
		log:            evLog,
		rec:            observability.NewRecorder(fmt.Sprintf("switch-%d", selfID)),
		failedNeighbor: failedNeighbor,
	}
}

// Register sends Register_Request (retransmitting every K seconds until
// a response arrives, since the transport is best-effort per spec.md
// §4.1) and blocks for the controller's Register_Response, installing
// the resulting directory and failed-link set.
func (a *Agent) Register(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go a.retransmitRegister(stop)

	for {
		tag, payload, _, err := a.sock.Receive()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			slog.Warn("switch: receive error during registration", "error", err)
			continue
		}
		if tag != wire.TagRegisterResponse {
			continue
		}
		resp, err := wire.DecodeRegisterResponse(payload)
		if err != nil {
			slog.Warn("switch: malformed register response", "error", err)
			continue
		}
		a.state.InstallDirectory(resp.Directory, resp.FailedLinks)
		a.log.RegisterResponseReceived()
		return nil
	}
}

func (a *Agent) retransmitRegister(stop <-chan struct{}) {
	a.sendRegisterRequest()
	ticker := time.NewTicker(K)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.sendRegisterRequest()
		}
	}
}

func (a *Agent) sendRegisterRequest() {
	req := wire.RegisterRequest{SwitchID: a.state.SelfID(), FailedNeighbor: a.failedNeighbor}
	if err := a.sock.Send(a.controllerAddr, wire.TagRegisterRequest, req); err != nil {
		slog.Warn("switch: send register request failed", "error", err)
		return
	}
	a.log.RegisterRequestSent()
}

// Run starts the four concurrent steady-state tasks (spec.md §4.3) and
// blocks until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) {
	reportNow := make(chan struct{}, 1)

	go a.receiveTask(ctx, reportNow)
	go a.keepAliveTask(ctx)
	go a.topologyReportTask(ctx, reportNow)
	go a.timeoutTask(ctx, reportNow)

	<-ctx.Done()
}

// receiveTask consumes datagrams forever, dispatching by tag (spec.md
// §4.3 "Receive-task dispatch").
func (a *Agent) receiveTask(ctx context.Context, reportNow chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		tag, payload, addr, err := a.sock.Receive()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if addr != nil && !errors.Is(err, wire.ErrUnknownTag) {
				continue // undecodable datagram: dropped silently
			}
			slog.Warn("switch: receive error", "error", err)
			continue
		}
		a.dispatch(tag, payload, addr, reportNow)
	}
}

func (a *Agent) dispatch(tag wire.Tag, payload []byte, addr *net.UDPAddr, reportNow chan<- struct{}) {
	switch tag {
	case wire.TagRegisterResponse:
		resp, err := wire.DecodeRegisterResponse(payload)
		if err != nil {
			slog.Warn("switch: malformed register response", "error", err)
			return
		}
		a.state.InstallDirectory(resp.Directory, resp.FailedLinks)
		a.log.RegisterResponseReceived()

	case wire.TagRoutingUpdate:
		upd, err := wire.DecodeRoutingUpdate(payload)
		if err != nil {
			slog.Warn("switch: malformed routing update", "error", err)
			return
		}
		a.state.InstallRoutes(upd.Rows)
		a.logRoutingUpdate(upd.Rows)

	case wire.TagKeepAlive:
		ka, err := wire.DecodeKeepAlive(payload)
		if err != nil {
			slog.Warn("switch: malformed keep alive", "error", err)
			return
		}
		a.rec.KeepAliveReceived()
		if a.state.IsFailed(ka.SwitchID) {
			return
		}
		revived := a.state.TouchNeighbor(ka.SwitchID, time.Now())
		if revived {
			a.log.NeighborAlive(ka.SwitchID)
			a.rec.NeighborAlive()
			triggerReport(reportNow)
		}

	default:
		slog.Warn("switch: unknown tag", "tag", tag)
	}
}

func (a *Agent) logRoutingUpdate(rows []wire.RouteEntry) {
	srows := make([]eventlog.SwitchRow, 0, len(rows))
	for _, r := range rows {
		srows = append(srows, eventlog.SwitchRow{Src: r.Src, Dst: r.Dst, NextHop: r.NextHop})
	}
	a.log.RoutingUpdateSwitch(srows)
}

// keepAliveTask sends Keep_Alive to every live, non-failed neighbor every
// K seconds and refreshes this switch's own last-heard entry (spec.md
// §4.3 task 2).
func (a *Agent) keepAliveTask(ctx context.Context) {
	ticker := time.NewTicker(K)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sendKeepAlives()
		}
	}
}

func (a *Agent) sendKeepAlives() {
	a.state.TouchSelf(time.Now())
	connected := a.state.Connected()
	ka := wire.KeepAlive{SwitchID: a.state.SelfID()}
	for _, n := range a.state.LiveNeighbors() {
		if n == a.state.SelfID() {
			continue // self is tracked for last-heard only, not probed
		}
		d, ok := connected[n]
		if !ok {
			continue
		}
		addr, err := wire.ResolveAddr(d.Host, d.Port)
		if err != nil {
			slog.Warn("switch: resolve neighbor addr failed", "neighbor_id", n, "error", err)
			continue
		}
		if err := a.sock.Send(addr, wire.TagKeepAlive, ka); err != nil {
			slog.Warn("switch: send keep alive failed", "neighbor_id", n, "error", err)
			continue
		}
		a.rec.KeepAliveSent()
	}
}

// topologyReportTask sends one Topology_Update to the controller every K
// seconds, or immediately when signalled via reportNow (spec.md §4.3
// task 3, §9 "signal the topology-report task to send one extra report
// immediately").
func (a *Agent) topologyReportTask(ctx context.Context, reportNow <-chan struct{}) {
	ticker := time.NewTicker(K)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sendTopologyUpdate()
		case <-reportNow:
			a.sendTopologyUpdate()
		}
	}
}

func (a *Agent) sendTopologyUpdate() {
	state, lastHeard := a.state.NeighborStateSnapshot()
	lh := make(map[int]string, len(lastHeard))
	for id, t := range lastHeard {
		lh[id] = t.Format(time.RFC3339Nano)
	}
	upd := wire.TopologyUpdate{SwitchID: a.state.SelfID(), NeighborState: state, NeighborLastHeard: lh}
	if err := a.sock.Send(a.controllerAddr, wire.TagTopologyUpdate, upd); err != nil {
		slog.Warn("switch: send topology update failed", "error", err)
	}
}

// timeoutTask expires stale neighbors every Timeout seconds and triggers
// an unscheduled topology report on any transition (spec.md §4.3 task 4).
func (a *Agent) timeoutTask(ctx context.Context, reportNow chan<- struct{}) {
	ticker := time.NewTicker(Timeout)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dead := a.state.ExpireNeighbors(time.Now(), Timeout)
			for _, id := range dead {
				a.log.NeighborDead(id)
				a.rec.NeighborDead()
			}
			if len(dead) > 0 {
				triggerReport(reportNow)
			}
		}
	}
}

// triggerReport signals the topology-report task without blocking if a
// signal is already pending.
func triggerReport(reportNow chan<- struct{}) {
	select {
	case reportNow <- struct{}{}:
	default:
	}
}
