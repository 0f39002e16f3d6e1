// Package observability wires optional OpenTelemetry tracing/logging and
// Prometheus metrics for the controller and switch processes. It is pure
// ambient infrastructure: the protocol in internal/controller and
// internal/swtch works identically with Setup never called (Config{} is a
// no-op), matching spec.md's instruction to carry logging/metrics
// regardless of the spec's non-goals around observability.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otlploggrpc "go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	otlptracegrpc "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config controls which observability backends Setup wires up. The zero
// value disables everything (noop tracer, no metrics).
type Config struct {
	// Service names this process in traces/logs/resource attributes
	// ("controller", "switch-0", ...).
	Service string

	// TraceAddr is an OTLP/gRPC collector endpoint for spans. Empty
	// disables tracing.
	TraceAddr string

	// LogAddr is an OTLP/gRPC collector endpoint that slog records are
	// bridged to via otelslog. Empty leaves slog's default handler alone.
	LogAddr string

	// Metrics enables the Prometheus recorder (see metrics.go). When
	// false, Recorder methods are safe no-ops.
	Metrics bool
}

var (
	mu             sync.Mutex
	tracer         trace.Tracer
	tracingEnabled bool
	metricsEnabled bool
	tracerProvider *sdktrace.TracerProvider
	loggerProvider *sdklog.LoggerProvider
)

// Setup configures tracing, log bridging, and metrics per cfg. It is safe
// to call with a zero Config (everything stays disabled). Call Shutdown
// when the process exits to flush pending spans/log records.
func Setup(ctx context.Context, cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if cfg.TraceAddr != "" {
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.TraceAddr), otlptracegrpc.WithInsecure())
		if err != nil {
			return fmt.Errorf("observability: trace exporter: %w", err)
		}
		tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tracerProvider)
		tracer = tracerProvider.Tracer(cfg.Service)
		tracingEnabled = true
	} else {
		tracer = nil
		tracingEnabled = false
	}

	if cfg.LogAddr != "" {
		exp, err := otlploggrpc.New(ctx, otlploggrpc.WithEndpoint(cfg.LogAddr), otlploggrpc.WithInsecure())
		if err != nil {
			return fmt.Errorf("observability: log exporter: %w", err)
		}
		loggerProvider = sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)))
		handler := otelslog.NewHandler(cfg.Service, otelslog.WithLoggerProvider(loggerProvider))
		slog.SetDefault(slog.New(handler))
	}

	metricsEnabled = cfg.Metrics
	return nil
}

// Shutdown flushes and releases any tracing/logging providers started by
// Setup. Safe to call even if Setup was never called or was a no-op.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	var firstErr error
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("observability: shutdown tracer: %w", err)
		}
		tracerProvider = nil
	}
	if loggerProvider != nil {
		if err := loggerProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("observability: shutdown logger: %w", err)
		}
		loggerProvider = nil
	}
	tracer = nil
	tracingEnabled = false
	metricsEnabled = false
	return firstErr
}

// Enabled reports whether tracing is currently configured.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return tracingEnabled
}

// MetricsEnabled reports whether the Prometheus recorder is active.
func MetricsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return metricsEnabled
}

// Span wraps an OTel span; it is always non-nil and its methods are safe
// to call even when tracing is disabled (they become no-ops against the
// global noop tracer).
type Span struct {
	span trace.Span
}

// Start begins a span named name, or a no-op span if tracing is disabled.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	return StartWith(ctx, name)
}

// StartOption configures StartWith.
type StartOption func(*startOptions)

type startOptions struct {
	attrs  []attribute.KeyValue
	onCall func()
	onDone func()
}

// Attrs sets the initial span attributes.
func Attrs(attrs ...attribute.KeyValue) StartOption {
	return func(o *startOptions) { o.attrs = append(o.attrs, attrs...) }
}

// OnStart runs fn synchronously right after the span starts.
func OnStart(fn func()) StartOption {
	return func(o *startOptions) { o.onCall = fn }
}

// OnEnd stores fn in the start options. Neither StartWith nor Span.End
// calls it.
func OnEnd(fn func()) StartOption {
	return func(o *startOptions) { o.onDone = fn }
}

// StartWith begins a span with the given options applied.
func StartWith(ctx context.Context, name string, opts ...StartOption) (context.Context, *Span) {
	var o startOptions
	for _, opt := range opts {
		opt(&o)
	}

	mu.Lock()
	t := tracer
	mu.Unlock()
	if t == nil {
		t = otel.Tracer("noop")
	}

	ctx2, raw := t.Start(ctx, name)
	if len(o.attrs) > 0 {
		raw.SetAttributes(o.attrs...)
	}
	if o.onCall != nil {
		o.onCall()
	}

	return ctx2, &Span{span: raw}
}

// End completes the span.
func (s *Span) End() {
	if s == nil || s.span == nil {
		return
	}
	s.span.End()
}

// Error records err on the span (a nil err is a safe no-op).
func (s *Span) Error(err error, msg string) {
	if s == nil || s.span == nil || err == nil {
		return
	}
	s.span.RecordError(err, trace.WithAttributes(attribute.String("message", msg)))
}

// Event adds a named event with attributes to the span.
func (s *Span) Event(name string, attrs ...attribute.KeyValue) {
	if s == nil || s.span == nil {
		return
	}
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Set adds attributes to the span.
func (s *Span) Set(attrs ...attribute.KeyValue) {
	if s == nil || s.span == nil {
		return
	}
	s.span.SetAttributes(attrs...)
}

// --- domain attribute helpers ---

func SwitchID(id int) attribute.KeyValue     { return attribute.Int("sdn.switch_id", id) }
func NeighborID(id int) attribute.KeyValue   { return attribute.Int("sdn.neighbor_id", id) }
func RouteCost(cost int) attribute.KeyValue  { return attribute.Int("sdn.route_cost", cost) }
func LiveCount(count int) attribute.KeyValue { return attribute.Int("sdn.live_count", count) }

// Str and Num are generic escape hatches for call sites that need an
// attribute key not covered by the domain helpers above.
func Str(key, value string) attribute.KeyValue { return attribute.String(key, value) }
func Num(key string, value int64) attribute.KeyValue { return attribute.Int64(key, value) }
