package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics records requests sent to the stream relays. It satisfies relay.Recorder.
type RelayMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRelayMetrics creates and registers the relay collectors
func NewRelayMetrics(registry prometheus.Registerer) (*RelayMetrics, error) {
	m := &RelayMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_requests_total",
				Help: "Total number of requests sent to stream relays",
			},
			[]string{"service", "method", "status_code"}, // status_code 0 means no response
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_request_duration_seconds",
				Help:    "Round trip time of stream relay requests",
				Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
			},
			[]string{"service"},
		),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *RelayMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
}

// Collect implements the Collector interface
func (m *RelayMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
}

// RecordRelayRequest records one relay round trip.
func (m *RelayMetrics) RecordRelayRequest(service, method string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(service, method, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(service).Observe(duration.Seconds())
}
