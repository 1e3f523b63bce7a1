// Package metrics provides Prometheus metrics for InfParquet
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/infparquet/infparquet/pkg/metadata"
	"github.com/infparquet/infparquet/pkg/stats"
)

// Metrics holds all Prometheus metrics for InfParquet
type Metrics struct {
	// Generation metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	RowGroupsProcessed prometheus.Counter
	ColumnsExtracted   *prometheus.CounterVec

	// Archive metrics
	ArchiveWritesTotal      *prometheus.CounterVec
	ArtifactsWrittenTotal   prometheus.Counter
	ArchiveRawBytesTotal    prometheus.Counter
	ArchiveStoredBytesTotal prometheus.Counter
	ArchiveCompressionRatio prometheus.Gauge

	// Query metrics
	QueriesTotal          prometheus.Counter
	QueryRowGroupsPruned  prometheus.Counter
	QueryRowGroupsMatched prometheus.Counter

	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Server metrics
	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time
}

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Default returns the process-wide Metrics instance, creating it on first use.
// Collectors register against the default Prometheus registry exactly once.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	// Generation metrics
	m.GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infparquet_generations_total",
			Help: "Total number of metadata generation runs",
		},
		[]string{"status"},
	)

	m.GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "infparquet_generation_duration_seconds",
			Help:    "Duration of metadata generation runs in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	m.RowGroupsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "infparquet_row_groups_processed_total",
			Help: "Total number of row groups processed during generation",
		},
	)

	m.ColumnsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infparquet_columns_extracted_total",
			Help: "Total number of column statistics extracted",
		},
		[]string{"kind"},
	)

	// Archive metrics
	m.ArchiveWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infparquet_archive_writes_total",
			Help: "Total number of archive write runs",
		},
		[]string{"status"},
	)

	m.ArtifactsWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "infparquet_artifacts_written_total",
			Help: "Total number of column artifacts written",
		},
	)

	m.ArchiveRawBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "infparquet_archive_raw_bytes_total",
			Help: "Total uncompressed bytes written to archives",
		},
	)

	m.ArchiveStoredBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "infparquet_archive_stored_bytes_total",
			Help: "Total compressed bytes written to archives",
		},
	)

	m.ArchiveCompressionRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "infparquet_archive_compression_ratio",
			Help: "Raw to stored byte ratio of the most recent archive write",
		},
	)

	// Query metrics
	m.QueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "infparquet_queries_total",
			Help: "Total number of row group match queries evaluated",
		},
	)

	m.QueryRowGroupsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "infparquet_query_row_groups_pruned_total",
			Help: "Total number of row groups pruned by query evaluation",
		},
	)

	m.QueryRowGroupsMatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "infparquet_query_row_groups_matched_total",
			Help: "Total number of row groups matched by query evaluation",
		},
	)

	// HTTP request metrics
	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infparquet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "infparquet_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "infparquet_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Server metrics
	m.ServerUptimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "infparquet_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
	)

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime periodically updates the server uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request with its status
func (m *Metrics) RecordHTTPRequest(route string, method string, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordGeneration records a metadata generation run
func (m *Metrics) RecordGeneration(status string, rowGroups int, duration time.Duration) {
	m.GenerationsTotal.WithLabelValues(status).Inc()
	m.GenerationDuration.Observe(duration.Seconds())
	m.RowGroupsProcessed.Add(float64(rowGroups))
}

// RecordArchiveWrite records an archive write run and its byte accounting
func (m *Metrics) RecordArchiveWrite(status string, artifacts int, rawBytes int64, storedBytes int64) {
	m.ArchiveWritesTotal.WithLabelValues(status).Inc()
	if artifacts > 0 {
		m.ArtifactsWrittenTotal.Add(float64(artifacts))
	}
	m.ArchiveRawBytesTotal.Add(float64(rawBytes))
	m.ArchiveStoredBytesTotal.Add(float64(storedBytes))
	if storedBytes > 0 {
		m.ArchiveCompressionRatio.Set(float64(rawBytes) / float64(storedBytes))
	}
}

// RecordQuery records the outcome of one row group match query
func (m *Metrics) RecordQuery(matched int, pruned int) {
	m.QueriesTotal.Inc()
	m.QueryRowGroupsMatched.Add(float64(matched))
	m.QueryRowGroupsPruned.Add(float64(pruned))
}

// ObserveTree counts the extracted leaf statistics of a generated tree by kind
func (m *Metrics) ObserveTree(file *metadata.FileNode) {
	if file == nil {
		return
	}
	for _, rg := range file.RowGroups {
		for _, col := range rg.Columns {
			if col.Stats.Stats == nil {
				continue
			}
			m.ColumnsExtracted.WithLabelValues(stats.KindOf(col.Stats.Stats).String()).Inc()
		}
	}
}
