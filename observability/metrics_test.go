package observability

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetricsRecordCall(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(WithMeterProvider(provider))
	if err != nil {
		t.Fatalf("NewMetrics error: %v", err)
	}

	m.RecordCall(context.Background(), "/test.Echo/Get", "OK", 5*time.Millisecond)

	var data metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &data); err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	var sawCounter, sawHistogram bool
	for _, sm := range data.ScopeMetrics {
		for _, metric := range sm.Metrics {
			switch metric.Name {
			case "rpc.server.requests":
				sawCounter = true
			case "rpc.server.duration":
				sawHistogram = true
			}
		}
	}
	if !sawCounter {
		t.Error("did not observe rpc.server.requests counter")
	}
	if !sawHistogram {
		t.Error("did not observe rpc.server.duration histogram")
	}
}
