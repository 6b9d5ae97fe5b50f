package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter records pipeline metrics with OpenTelemetry and serves them in Prometheus format
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector // optional

	// OTel meters and instruments
	meter               metric.Meter
	requestCounter      metric.Int64Counter
	verificationCounter metric.Int64Counter
	outcomeCounter      metric.Int64Counter
	durationHistogram   metric.Float64Histogram
	deliveriesGauge     metric.Int64ObservableGauge
}

// NewOTelExporter creates the exporter. collector may be nil, in which case
// no ledger gauge is registered.
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Create Prometheus exporter
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"commit-webhooks",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.requestCounter, err = oe.meter.Int64Counter(
		"webhook.requests",
		metric.WithDescription("Webhook requests by provider and response code"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating request counter: %w", err)
	}

	oe.verificationCounter, err = oe.meter.Int64Counter(
		"webhook.verifications",
		metric.WithDescription("Signature verifications by strategy and result"),
		metric.WithUnit("{verifications}"),
	)
	if err != nil {
		return fmt.Errorf("creating verification counter: %w", err)
	}

	oe.outcomeCounter, err = oe.meter.Int64Counter(
		"webhook.outcomes",
		metric.WithDescription("Dispatched events by kind and outcome"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return fmt.Errorf("creating outcome counter: %w", err)
	}

	oe.durationHistogram, err = oe.meter.Float64Histogram(
		"webhook.processing.duration",
		metric.WithDescription("Time spent in the ingestion pipeline"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}

	if oe.collector == nil {
		return nil
	}

	// Tracked delivery ids per ledger state
	oe.deliveriesGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.deliveries.tracked",
		metric.WithDescription("Delivery ids held by the idempotency ledger"),
		metric.WithUnit("{deliveries}"),
		metric.WithInt64Callback(oe.observeDeliveries),
	)
	if err != nil {
		return fmt.Errorf("creating deliveries gauge: %w", err)
	}

	return nil
}

// observeDeliveries is a callback that reports ledger sizes
func (oe *OTelExporter) observeDeliveries(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.GetDeliveryCounts(ctx)
	if err != nil {
		return err
	}

	for state, count := range counts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("delivery.state", state),
		))
	}

	return nil
}

func (oe *OTelExporter) Request(ctx context.Context, provider, code string, status int) {
	oe.requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("code", code),
		attribute.String("status", strconv.Itoa(status)),
	))
}

func (oe *OTelExporter) Verification(ctx context.Context, provider, strategy string, verified bool) {
	result := "rejected"
	if verified {
		result = "verified"
	}
	oe.verificationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("strategy", strategy),
		attribute.String("result", result),
	))
}

func (oe *OTelExporter) Outcome(ctx context.Context, provider, kind, outcome string) {
	oe.outcomeCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func (oe *OTelExporter) Duration(ctx context.Context, provider string, d time.Duration) {
	oe.durationHistogram.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
