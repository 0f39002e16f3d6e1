package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sdnctl_registrations_total",
		Help: "Register_Request messages processed, by component.",
	}, []string{"component"})

	keepAlivesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sdnctl_keepalives_sent_total",
		Help: "Keep_Alive messages sent, by component.",
	}, []string{"component"})

	keepAlivesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sdnctl_keepalives_received_total",
		Help: "Keep_Alive messages received, by component.",
	}, []string{"component"})

	neighborTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sdnctl_neighbor_transitions_total",
		Help: "Neighbor/switch liveness transitions, by component and new state.",
	}, []string{"component", "state"})

	routeRecomputeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sdnctl_route_recompute_seconds",
		Help:    "Time spent recomputing the routing table.",
		Buckets: prometheus.DefBuckets,
	}, []string{"component"})

	liveSwitches = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sdnctl_live_switches",
		Help: "Current size of the controller's live-switch set.",
	})
)

func registerCollectors() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			registrations,
			keepAlivesSent,
			keepAlivesReceived,
			neighborTransitions,
			routeRecomputeDuration,
			liveSwitches,
		)
	})
}

// Recorder emits Prometheus metrics for one component instance (e.g.
// "controller" or "switch-2"). Every method is a safe no-op when metrics
// are disabled (MetricsEnabled() == false), so call sites never need to
// branch on whether observability.Setup was called.
type Recorder struct {
	component string
}

// NewRecorder creates a Recorder labeled with component.
func NewRecorder(component string) *Recorder {
	registerCollectors()
	return &Recorder{component: component}
}

func (r *Recorder) enabled() bool {
	return MetricsEnabled()
}

// RegisterReceived records a processed Register_Request.
func (r *Recorder) RegisterReceived() {
	if !r.enabled() {
		return
	}
	registrations.WithLabelValues(r.component).Inc()
}

// KeepAliveSent records an outbound Keep_Alive.
func (r *Recorder) KeepAliveSent() {
	if !r.enabled() {
		return
	}
	keepAlivesSent.WithLabelValues(r.component).Inc()
}

// KeepAliveReceived records an inbound Keep_Alive.
func (r *Recorder) KeepAliveReceived() {
	if !r.enabled() {
		return
	}
	keepAlivesReceived.WithLabelValues(r.component).Inc()
}

// NeighborAlive records a dead→alive liveness transition.
func (r *Recorder) NeighborAlive() {
	if !r.enabled() {
		return
	}
	neighborTransitions.WithLabelValues(r.component, "alive").Inc()
}

// NeighborDead records an alive→dead liveness transition.
func (r *Recorder) NeighborDead() {
	if !r.enabled() {
		return
	}
	neighborTransitions.WithLabelValues(r.component, "dead").Inc()
}

// RouteRecompute records how long a routing-table recomputation took.
func (r *Recorder) RouteRecompute(d time.Duration) {
	if !r.enabled() {
		return
	}
	routeRecomputeDuration.WithLabelValues(r.component).Observe(d.Seconds())
}

// LatencyObs exposes this component's route-recompute histogram observer,
// or nil when metrics are disabled; op is not used as a label, so every op
// shares that one histogram. Callers can cheaply no-op a `defer` without
// branching: `if obs := rec.LatencyObs("recompute"); obs != nil { ... }`.
func (r *Recorder) LatencyObs(op string) prometheus.Observer {
	if !r.enabled() {
		return nil
	}
	return routeRecomputeDuration.WithLabelValues(r.component)
}

// SetLiveSwitches sets the controller-wide live-switch gauge. Unlike the
// per-component counters above, this is a single process-wide value.
func SetLiveSwitches(n int) {
	if !MetricsEnabled() {
		return
	}
	registerCollectors()
	liveSwitches.Set(float64(n))
}
