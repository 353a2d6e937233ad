package metrics

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export in Prometheus format
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector

	meter              metric.Meter
	rejectedCounter    metric.Int64ObservableCounter
	forwardedCounter   metric.Int64ObservableCounter
	failureCounter     metric.Int64ObservableCounter
	historySizeGauge   metric.Int64ObservableGauge
	activeClientsGauge metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter backed by its own Prometheus registry
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"webhook-gateway",
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

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.rejectedCounter, err = oe.meter.Int64ObservableCounter(
		"webhook.rejected",
		metric.WithDescription("Number of inbound requests rejected, by reason"),
		metric.WithUnit("{requests}"),
		metric.WithInt64Callback(oe.observeRejected),
	)
	if err != nil {
		return fmt.Errorf("creating rejected counter: %w", err)
	}

	oe.forwardedCounter, err = oe.meter.Int64ObservableCounter(
		"webhook.forwarded",
		metric.WithDescription("Number of relay attempts, by outcome"),
		metric.WithUnit("{requests}"),
		metric.WithInt64Callback(oe.observeForwarded),
	)
	if err != nil {
		return fmt.Errorf("creating forwarded counter: %w", err)
	}

	oe.failureCounter, err = oe.meter.Int64ObservableCounter(
		"webhook.forward.failures",
		metric.WithDescription("Number of failed relay attempts, by failure reason"),
		metric.WithUnit("{requests}"),
		metric.WithInt64Callback(oe.observeFailureReasons),
	)
	if err != nil {
		return fmt.Errorf("creating failure counter: %w", err)
	}

	oe.historySizeGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.history.size",
		metric.WithDescription("Number of records retained in history"),
		metric.WithUnit("{records}"),
		metric.WithInt64Callback(oe.observeHistorySize),
	)
	if err != nil {
		return fmt.Errorf("creating history size gauge: %w", err)
	}

	oe.activeClientsGauge, err = oe.meter.Int64ObservableGauge(
		"ratelimit.clients.active",
		metric.WithDescription("Number of client identities tracked by the rate limiter"),
		metric.WithUnit("{clients}"),
		metric.WithInt64Callback(oe.observeActiveClients),
	)
	if err != nil {
		return fmt.Errorf("creating active clients gauge: %w", err)
	}

	return nil
}

func (oe *OTelExporter) observeRejected(ctx context.Context, observer metric.Int64Observer) error {
	rejected, err := oe.collector.GetRejected(ctx)
	if err != nil {
		return err
	}
	for reason, count := range rejected {
		observer.Observe(count, metric.WithAttributes(attribute.String("reason", reason)))
	}
	return nil
}

func (oe *OTelExporter) observeForwarded(ctx context.Context, observer metric.Int64Observer) error {
	forwarded, err := oe.collector.GetForwarded(ctx)
	if err != nil {
		return err
	}
	for outcome, count := range forwarded {
		observer.Observe(count, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	return nil
}

func (oe *OTelExporter) observeFailureReasons(ctx context.Context, observer metric.Int64Observer) error {
	reasons, err := oe.collector.GetFailureReasons(ctx)
	if err != nil {
		return err
	}
	for reason, count := range reasons {
		observer.Observe(count, metric.WithAttributes(attribute.String("reason", reason)))
	}
	return nil
}

func (oe *OTelExporter) observeHistorySize(ctx context.Context, observer metric.Int64Observer) error {
	size, err := oe.collector.GetHistorySize(ctx)
	if err != nil {
		return err
	}
	observer.Observe(size)
	return nil
}

func (oe *OTelExporter) observeActiveClients(ctx context.Context, observer metric.Int64Observer) error {
	clients, err := oe.collector.GetActiveClients(ctx)
	if err != nil {
		return err
	}
	observer.Observe(clients)
	return nil
}

// ServeHTTP returns the handler serving Prometheus-formatted metrics
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
