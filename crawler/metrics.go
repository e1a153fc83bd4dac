package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the harvest run.
type Metrics struct {
	Registry           *prometheus.Registry
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    prometheus.Histogram
	ItemsHarvested     prometheus.Counter
	PagesDiscovered    prometheus.Counter
	CheckpointsWritten prometheus.Counter
	RecordsDropped     prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_requests_total",
			Help: "Total HTTP requests issued by the harvester.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harvest_request_duration_seconds",
			Help:    "HTTP request latency for harvester requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	itemsHarvested := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_items_total",
			Help: "Total number of detail records extracted.",
		},
	)
	pagesDiscovered := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_pages_discovered_total",
			Help: "Total number of catalogue listing pages discovered.",
		},
	)
	checkpoints := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_checkpoints_total",
			Help: "Total number of checkpoint snapshots written.",
		},
	)
	dropped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvest_records_dropped_total",
			Help: "Total number of records dropped for missing identity fields.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_errors_total",
			Help: "Total number of transport errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, itemsHarvested, pagesDiscovered, checkpoints, dropped, errorsTotal)

	return &Metrics{
		Registry:           registry,
		RequestsTotal:      requests,
		RequestDuration:    requestDuration,
		ItemsHarvested:     itemsHarvested,
		PagesDiscovered:    pagesDiscovered,
		CheckpointsWritten: checkpoints,
		RecordsDropped:     dropped,
		ErrorsTotal:        errorsTotal,
	}
}

// IncRequest increments the requests total counter for a phase.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncItems increments the harvested items counter.
func (m *Metrics) IncItems() {
	if m == nil {
		return
	}
	m.ItemsHarvested.Inc()
}

// IncPages increments the discovered pages counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesDiscovered.Inc()
}

// IncCheckpoints increments the checkpoint counter.
func (m *Metrics) IncCheckpoints() {
	if m == nil {
		return
	}
	m.CheckpointsWritten.Inc()
}

// IncDropped increments the dropped records counter.
func (m *Metrics) IncDropped() {
	if m == nil {
		return
	}
	m.RecordsDropped.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
