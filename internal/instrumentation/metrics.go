package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
	attrPurpose   = "purpose"
	attrModel     = "model"
	attrKind      = "kind"
	attrState     = "state"
	attrSize      = "size"
	attrEvent     = "event"
)

// timed pairs a call counter with its latency histogram.
type timed struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
}

func (t timed) record(ctx context.Context, d time.Duration, kv ...attribute.KeyValue) {
	if t.count == nil || t.duration == nil {
		return
	}
	attrs := metric.WithAttributes(kv...)
	t.count.Add(ctx, 1, attrs)
	t.duration.Record(ctx, d.Seconds(), attrs)
}

// Metrics records smartinbox metrics.
//
// A nil *Metrics, or one returned by a disabled Provider, is a valid no-op
// recorder, so callers never need to guard their calls.
type Metrics struct {
	http       timed
	gmail      timed
	completion timed
	tool       timed

	mutationTransitions metric.Int64Counter
	sessionEvents       metric.Int64Counter
	sessionActive       metric.Int64UpDownCounter

	// detailedLabels attaches the completion model and bulk size bucket.
	detailedLabels bool
}

// instrumentBuilder creates instruments on meter and keeps the first error.
type instrumentBuilder struct {
	meter metric.Meter
	err   error
}

func (b *instrumentBuilder) fail(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("failed to create %s: %w", name, err)
	}
}

func (b *instrumentBuilder) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.fail(name, err)
	return c
}

func (b *instrumentBuilder) gauge(name, desc, unit string) metric.Int64UpDownCounter {
	g, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.fail(name, err)
	return g
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	b := &instrumentBuilder{meter: meter}
	histogram := func(name, desc string, bounds ...float64) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(bounds...),
		)
		b.fail(name, err)
		return h
	}
	apiBounds := []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

	m := &Metrics{
		detailedLabels: detailedLabels,
		http: timed{
			count:    b.counter("http_requests_total", "Total number of HTTP requests", "{request}"),
			duration: histogram("http_request_duration_seconds", "HTTP request duration in seconds", 0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
		},
		gmail: timed{
			count:    b.counter("google_api_operations_total", "Total number of Gmail API operations", "{operation}"),
			duration: histogram("google_api_operation_duration_seconds", "Gmail API operation duration in seconds", apiBounds...),
		},
		completion: timed{
			count:    b.counter("completion_requests_total", "Total number of text-generation requests by purpose", "{request}"),
			duration: histogram("completion_duration_seconds", "Text-generation request duration in seconds", 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
		},
		tool: timed{
			count:    b.counter("mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}"),
			duration: histogram("mcp_tool_duration_seconds", "MCP tool execution duration in seconds", apiBounds...),
		},
		mutationTransitions: b.counter("mutation_transitions_total", "Total number of label mutation state transitions", "{transition}"),
		sessionEvents:       b.counter("session_events_total", "Total number of session events (login, logout, expired)", "{event}"),
		sessionActive:       b.gauge("session_active", "Whether a Gmail session is currently held", "{session}"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// RecordHTTPRequest records a request to the metrics or health endpoints.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.http.record(ctx, duration,
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
}

// RecordGoogleAPIOperation records one Gmail API call. operation is one of
// the Operation* constants and status is StatusSuccess or StatusError.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.gmail.record(ctx, duration,
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
}

// RecordCompletion records a text-generation request. The model label is
// only attached when detailed labels are enabled.
func (m *Metrics) RecordCompletion(ctx context.Context, purpose, model, status string, duration time.Duration) {
	if m == nil {
		return
	}
	kv := []attribute.KeyValue{
		attribute.String(attrPurpose, purpose),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && model != "" {
		kv = append(kv, attribute.String(attrModel, model))
	}
	m.completion.record(ctx, duration, kv...)
}

// RecordMutationTransition records a mutation entering state. kind is
// "single" or "bulk"; size is the number of messages touched.
func (m *Metrics) RecordMutationTransition(ctx context.Context, kind, state string, size int) {
	if m == nil || m.mutationTransitions == nil {
		return
	}
	kv := []attribute.KeyValue{
		attribute.String(attrKind, kind),
		attribute.String(attrState, state),
	}
	if m.detailedLabels {
		kv = append(kv, attribute.String(attrSize, CountBucket(size)))
	}
	m.mutationTransitions.Add(ctx, 1, metric.WithAttributes(kv...))
}

// RecordSessionEvent records a session lifecycle event and keeps the
// session_active gauge in step with it.
func (m *Metrics) RecordSessionEvent(ctx context.Context, event string) {
	if m == nil || m.sessionEvents == nil {
		return
	}
	m.sessionEvents.Add(ctx, 1, metric.WithAttributes(attribute.String(attrEvent, event)))

	if m.sessionActive == nil {
		return
	}
	switch event {
	case SessionEventLogin:
		m.sessionActive.Add(ctx, 1)
	case SessionEventLogout, SessionEventExpired:
		m.sessionActive.Add(ctx, -1)
	}
}

// RecordToolInvocation records an MCP tool call.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.tool.record(ctx, duration,
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
}
