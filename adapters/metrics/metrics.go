// Package metrics provides Prometheus metrics collection for pageblocks.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pageblocks"

// Collector holds all Prometheus metrics for pageblocks.
// A nil *Collector is valid and records nothing.
type Collector struct {
	// Pipeline metrics
	SectionsTransformed *prometheus.CounterVec
	TransformDuration   *prometheus.HistogramVec

	// Registry metrics
	DiscoveryRuns     *prometheus.CounterVec
	DiscoveryFailures *prometheus.CounterVec
	DiscoveryDuration prometheus.Histogram
	RegisteredBlocks  prometheus.Gauge
	CacheOperations   *prometheus.CounterVec

	// Validation metrics
	Validations *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a new metrics collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		SectionsTransformed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sections_transformed_total",
				Help:      "Sections processed by the transformation pipeline",
			},
			[]string{"type", "outcome"},
		),
		TransformDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transform_duration_seconds",
				Help:      "Time spent in a block's transform function",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"type"},
		),
		DiscoveryRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_runs_total",
				Help:      "Block discovery runs by result source",
			},
			[]string{"source"},
		),
		DiscoveryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_failures_total",
				Help:      "Block definitions excluded during discovery",
			},
			[]string{"definition"},
		),
		DiscoveryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "discovery_duration_seconds",
				Help:      "Time spent scanning block definitions",
				Buckets:   []float64{.0001, .001, .01, .1, 1},
			},
		),
		RegisteredBlocks: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registered_blocks",
				Help:      "Number of block types known after the last discovery",
			},
		),
		CacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_cache_operations_total",
				Help:      "Discovery cache operations by result",
			},
			[]string{"op"},
		),
		Validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Block data validations by result code",
			},
			[]string{"result"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// Transform outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomePassthrough = "passthrough"
	OutcomeDropped     = "dropped"
	OutcomeSkipped     = "skipped"
)

// RecordSection counts one processed section.
func (c *Collector) RecordSection(blockType, outcome string) {
	if c == nil {
		return
	}
	if blockType == "" {
		blockType = "_none"
	}
	c.SectionsTransformed.WithLabelValues(blockType, outcome).Inc()
}

// ObserveTransform records the time a block's transform took.
func (c *Collector) ObserveTransform(blockType string, d time.Duration) {
	if c == nil {
		return
	}
	c.TransformDuration.WithLabelValues(blockType).Observe(d.Seconds())
}

// RecordDiscovery records a discovery run. source is "scan" or "cache".
func (c *Collector) RecordDiscovery(source string, d time.Duration, known int) {
	if c == nil {
		return
	}
	c.DiscoveryRuns.WithLabelValues(source).Inc()
	if source == "scan" {
		c.DiscoveryDuration.Observe(d.Seconds())
	}
	c.RegisteredBlocks.Set(float64(known))
}

// RecordDiscoveryFailure counts a definition excluded from discovery.
func (c *Collector) RecordDiscoveryFailure(definition string) {
	if c == nil {
		return
	}
	c.DiscoveryFailures.WithLabelValues(definition).Inc()
}

// RecordCache counts a discovery cache operation (hit, miss, write, forget, error).
func (c *Collector) RecordCache(op string) {
	if c == nil {
		return
	}
	c.CacheOperations.WithLabelValues(op).Inc()
}

// RecordValidation counts a validation by result code ("valid" on success).
func (c *Collector) RecordValidation(result string) {
	if c == nil {
		return
	}
	c.Validations.WithLabelValues(result).Inc()
}

// ObserveRequest records one HTTP request.
func (c *Collector) ObserveRequest(method, route, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.RequestsTotal.WithLabelValues(method, route, status).Inc()
	c.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordConfigReload records a reload attempt.
func (c *Collector) RecordConfigReload(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.SetToCurrentTime()
}
