package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"deardiary/internal/logging"
)

// MetricsCollector manages all metrics for the analysis pipeline.
//
// Every dependency failure the orchestrator absorbs (embedding, retrieval,
// persona lookup, provider dispatch, persistence, notification) is recorded
// here so operators can see degraded dependencies that the product
// deliberately hides from end users.
type MetricsCollector struct {
	meter metric.Meter

	analysisRequests  metric.Int64Counter
	absorbedFailures  metric.Int64Counter
	fallbackAnalyses  metric.Int64Counter
	providerLatency   metric.Float64Histogram
	retrievalFallback metric.Int64Counter

	prometheusServer *http.Server
	logger           logging.Logger
}

// MetricsConfig configures the metrics collector.
type MetricsConfig struct {
	Enabled        bool `yaml:"enabled"`
	PrometheusPort int  `yaml:"prometheus_port"`
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(config MetricsConfig) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{logger: logging.Nop()}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter("deardiary")

	analysisRequests, err := meter.Int64Counter(
		"deardiary.analysis.requests.total",
		metric.WithDescription("Total number of journal analysis submissions"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create analysis_requests counter: %w", err)
	}

	absorbedFailures, err := meter.Int64Counter(
		"deardiary.analysis.absorbed_failures.total",
		metric.WithDescription("Dependency failures absorbed by a pipeline fallback"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create absorbed_failures counter: %w", err)
	}

	fallbackAnalyses, err := meter.Int64Counter(
		"deardiary.analysis.fallback.total",
		metric.WithDescription("Analyses answered with the fixed fallback result"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create fallback counter: %w", err)
	}

	providerLatency, err := meter.Float64Histogram(
		"deardiary.llm.latency",
		metric.WithDescription("Language model provider call latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create provider latency histogram: %w", err)
	}

	retrievalFallback, err := meter.Int64Counter(
		"deardiary.retrieval.chronological_fallback.total",
		metric.WithDescription("Context retrievals that fell back to chronological order"),
		metric.WithUnit("{retrieval}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create retrieval fallback counter: %w", err)
	}

	collector := &MetricsCollector{
		meter:             meter,
		analysisRequests:  analysisRequests,
		absorbedFailures:  absorbedFailures,
		fallbackAnalyses:  fallbackAnalyses,
		providerLatency:   providerLatency,
		retrievalFallback: retrievalFallback,
		logger:            logging.NewComponentLogger("metrics"),
	}

	if config.PrometheusPort > 0 {
		collector.startPrometheusServer(config.PrometheusPort)
	}

	return collector, nil
}

func (m *MetricsCollector) startPrometheusServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promclient.Handler())

	m.prometheusServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := m.prometheusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("prometheus server failed: %v", err)
		}
	}()
}

// RecordAnalysisRequest counts one submission, labeled by final outcome.
func (m *MetricsCollector) RecordAnalysisRequest(ctx context.Context, provider string, fallback bool) {
	if m == nil || m.analysisRequests == nil {
		return
	}
	m.analysisRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.Bool("fallback", fallback),
		))
	if fallback {
		m.fallbackAnalyses.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
	}
}

// RecordAbsorbedFailure counts a dependency failure recovered by a fallback.
func (m *MetricsCollector) RecordAbsorbedFailure(ctx context.Context, step string) {
	if m == nil || m.absorbedFailures == nil {
		return
	}
	m.absorbedFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}

// RecordProviderLatency records one language-model round trip.
func (m *MetricsCollector) RecordProviderLatency(ctx context.Context, provider string, duration time.Duration) {
	if m == nil || m.providerLatency == nil {
		return
	}
	m.providerLatency.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordRetrievalFallback counts a chronological retrieval fallback.
func (m *MetricsCollector) RecordRetrievalFallback(ctx context.Context, reason string) {
	if m == nil || m.retrievalFallback == nil {
		return
	}
	m.retrievalFallback.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// Shutdown stops the Prometheus scrape server.
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m == nil || m.prometheusServer == nil {
		return nil
	}
	return m.prometheusServer.Shutdown(ctx)
}
