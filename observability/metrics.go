package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fullstorydev/grpcweb/server"
)

const instrumentationName = "grpcweb"

// Metrics records request counts and durations for RPCs served through the
// transport. The zero value is not usable; construct with NewMetrics.
type Metrics struct {
	requestCounter    metric.Int64Counter
	durationHistogram metric.Float64Histogram
}

// MetricsOption configures Metrics at construction time.
type MetricsOption interface {
	apply(*metricsConfig)
}

type metricsConfig struct {
	meterProvider metric.MeterProvider
}

type metricsOptFunc func(*metricsConfig)

func (f metricsOptFunc) apply(c *metricsConfig) { f(c) }

// WithMeterProvider installs a specific MeterProvider. If not supplied,
// the global provider registered with otel.SetMeterProvider is used.
func WithMeterProvider(provider metric.MeterProvider) MetricsOption {
	return metricsOptFunc(func(c *metricsConfig) {
		c.meterProvider = provider
	})
}

// NewMetrics builds a Metrics recorder, registering its instruments against
// the configured (or global) MeterProvider.
func NewMetrics(opts ...MetricsOption) (*Metrics, error) {
	cfg := metricsConfig{meterProvider: otel.GetMeterProvider()}
	for _, o := range opts {
		o.apply(&cfg)
	}

	meter := cfg.meterProvider.Meter(instrumentationName)
	requestCounter, err := meter.Int64Counter("rpc.server.requests",
		metric.WithUnit("{request}"),
		metric.WithDescription("Number of gRPC-Web requests served"),
	)
	if err != nil {
		return nil, err
	}
	durationHistogram, err := meter.Float64Histogram("rpc.server.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of gRPC-Web requests"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{requestCounter: requestCounter, durationHistogram: durationHistogram}, nil
}

// RecordCall records one completed RPC's outcome and latency. status is the
// resolved gRPC status code name ("OK", "NotFound", ...), reported as an
// attribute rather than as separate instruments per code.
func (m *Metrics) RecordCall(ctx context.Context, fullMethod, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("rpc.system", "grpc_web"),
		attribute.String("rpc.method", fullMethod),
		attribute.String("rpc.grpc.status_code", status),
	)
	m.requestCounter.Add(ctx, 1, attrs)
	m.durationHistogram.Record(ctx, duration.Seconds(), attrs)
}

var _ server.CallRecorder = (*Metrics)(nil)
