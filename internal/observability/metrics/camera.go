package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CameraMetrics records camera use case outcomes. It satisfies camera.Observer.
type CameraMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	partialFailures   *prometheus.CounterVec
}

// NewCameraMetrics creates and registers the camera collectors
func NewCameraMetrics(registry prometheus.Registerer) (*CameraMetrics, error) {
	m := &CameraMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camera_operations_total",
				Help: "Total number of camera use case invocations",
			},
			[]string{"operation", "outcome"}, // outcome: success, business_error, internal_error
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "camera_operation_duration_seconds",
				Help:    "Time taken by camera use cases",
				Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
			},
			[]string{"operation"},
		),
		partialFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camera_partial_failures_total",
				Help: "Operations that changed one backend and then failed on the other",
			},
			[]string{"operation"},
		),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CameraMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.operationsTotal, m.operationDuration, m.partialFailures}
}

// Describe implements the Collector interface
func (m *CameraMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *CameraMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordOperation counts one use case run and observes its duration.
func (m *CameraMetrics) RecordOperation(operation, outcome string, duration time.Duration) {
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPartialFailure counts an operation that left the backends out of step.
func (m *CameraMetrics) RecordPartialFailure(operation string) {
	m.partialFailures.WithLabelValues(operation).Inc()
}
