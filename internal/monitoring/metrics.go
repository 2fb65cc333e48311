package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the scoring pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	detections       *prometheus.CounterVec
	detectorDuration *prometheus.HistogramVec
	detectorFailures *prometheus.CounterVec
	evaluations      *prometheus.CounterVec
	jobs             *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewMetrics creates the pipeline metrics and registers them on registry
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	for _, c := range m.collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.detections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tender_detections_total",
			Help: "Fraud detections emitted, by type and severity",
		},
		[]string{"type", "severity"},
	)
	m.detectorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tender_detector_duration_seconds",
			Help:    "Time spent in each fraud detector",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{"detector"},
	)
	m.detectorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tender_detector_failures_total",
			Help: "Detector runs that failed and contributed nothing",
		},
		[]string{"detector"},
	)
	m.evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tender_evaluations_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"outcome"},
	)
	m.jobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tender_jobs_total",
			Help: "Job state transitions",
		},
		[]string{"status"},
	)
	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tender_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "path", "status"},
	)
	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tender_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	m.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tender_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		},
		[]string{"result"},
	)

	m.collectors = []prometheus.Collector{
		m.detections, m.detectorDuration, m.detectorFailures, m.evaluations,
		m.jobs, m.httpRequests, m.httpDuration, m.cacheLookups,
	}
}

// Registry returns the registry the metrics were registered on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordDetection counts one emitted detection
func (m *Metrics) RecordDetection(detectionType, severity string) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(detectionType, severity).Inc()
}

// ObserveDetector records how long a detector ran
func (m *Metrics) ObserveDetector(detector string, d time.Duration) {
	if m == nil {
		return
	}
	m.detectorDuration.WithLabelValues(detector).Observe(d.Seconds())
}

// RecordDetectorFailure counts a detector that errored or panicked
func (m *Metrics) RecordDetectorFailure(detector string) {
	if m == nil {
		return
	}
	m.detectorFailures.WithLabelValues(detector).Inc()
}

// RecordEvaluation counts a pipeline run outcome (success, failure, cached)
func (m *Metrics) RecordEvaluation(outcome string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(outcome).Inc()
}

// RecordJob counts a job status transition
func (m *Metrics) RecordJob(status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(status).Inc()
}

// RecordCacheLookup counts a result cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records one served request
func (m *Metrics) RecordHTTPRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
