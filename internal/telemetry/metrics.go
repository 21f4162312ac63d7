// Package telemetry provides the agent's OpenTelemetry metric instruments
// with a Prometheus exporter bridge, so the capture pipeline can be observed
// through the local /metrics endpoint.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// meterName is the instrumentation scope for all agent metrics.
const meterName = "github.com/satriahrh/arunika/device"

// Metrics holds the metric instruments for the capture pipeline. The
// underlying OTel types handle their own synchronisation, so one instance is
// shared by the producer and transport tasks.
type Metrics struct {
	// FramesEmitted counts frames handed to the transport.
	FramesEmitted metric.Int64Counter

	// FramesSuppressed counts blocks gated as silence.
	FramesSuppressed metric.Int64Counter

	// FramesDropped counts frames lost to transport send failures.
	FramesDropped metric.Int64Counter

	// ReadErrors counts transient audio-source read failures, including
	// timeouts.
	ReadErrors metric.Int64Counter

	// FrameRMS tracks the RMS amplitude distribution of emitted frames.
	FrameRMS metric.Float64Histogram

	// ConnectionUp tracks the transport connection state as an up-down
	// counter (1 on connect, -1 on disconnect).
	ConnectionUp metric.Int64UpDownCounter
}

// rmsBuckets covers the int16 amplitude range on a roughly logarithmic scale.
var rmsBuckets = []float64{10, 30, 100, 300, 1000, 3000, 10000, 32768}

// NewMetrics creates the instruments on the given provider. Tests pass a
// provider backed by a ManualReader to inspect recorded values.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesEmitted, err = m.Int64Counter("arunika.device.frames.emitted",
		metric.WithDescription("Audio frames handed to the transport."),
	); err != nil {
		return nil, err
	}
	if met.FramesSuppressed, err = m.Int64Counter("arunika.device.frames.suppressed",
		metric.WithDescription("Audio blocks suppressed by the silence gate."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("arunika.device.frames.dropped",
		metric.WithDescription("Audio frames dropped on transport send failure."),
	); err != nil {
		return nil, err
	}
	if met.ReadErrors, err = m.Int64Counter("arunika.device.source.read_errors",
		metric.WithDescription("Transient audio source read failures."),
	); err != nil {
		return nil, err
	}
	if met.FrameRMS, err = m.Float64Histogram("arunika.device.frame.rms",
		metric.WithDescription("RMS amplitude of emitted frames."),
		metric.WithExplicitBucketBoundaries(rmsBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ConnectionUp, err = m.Int64UpDownCounter("arunika.device.connection.up",
		metric.WithDescription("Transport connection state."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// InitProvider sets up the SDK meter provider with a Prometheus exporter and
// registers it globally. It returns the Metrics instance and a shutdown
// function to defer from main.
func InitProvider(ctx context.Context, serviceName string) (*Metrics, func(context.Context) error, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	promExp, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)
	otel.SetMeterProvider(mp)

	met, err := NewMetrics(mp)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}

	return met, mp.Shutdown, nil
}
