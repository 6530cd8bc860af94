// Package monitoring provides metrics collection for text rule scans.
package monitoring

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation names recorded by the scanner
const (
	OperationScan     = "scan"
	OperationScanFile = "scan_file"
)

// DefaultHistorySize is the number of operation records a collector keeps.
// Older records are dropped; GetSummary still accounts for them.
const DefaultHistorySize = 4096

// OperationMetrics represents metrics for a single scan operation.
type OperationMetrics struct {
	Duration     time.Duration `json:"duration"`
	BytesScanned int64         `json:"bytes_scanned"`
	IssuesFound  int           `json:"issues_found"`
	MemoryUsed   int64         `json:"memory_used"`
	Operation    string        `json:"operation"`
	Path         string        `json:"path,omitempty"`
	Failed       bool          `json:"failed"`
}

// MetricsCollector collects and stores metrics for scan operations and
// mirrors them into a Prometheus registry.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics // ring of the latest records
	next    int                // slot overwritten next once the ring is full
	history int
	totals  MetricsSummary
	enabled bool

	registry     *prometheus.Registry
	filesScanned prometheus.Counter
	issues       *prometheus.CounterVec
	fileErrors   prometheus.Counter
	scanDuration prometheus.Histogram
}

// NewMetricsCollector creates a new metrics collector keeping the last
// DefaultHistorySize records.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return NewMetricsCollectorWithHistory(enabled, DefaultHistorySize)
}

// NewMetricsCollectorWithHistory creates a collector keeping the last history
// records. A history below 1 keeps one.
func NewMetricsCollectorWithHistory(enabled bool, history int) *MetricsCollector {
	if history < 1 {
		history = 1
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &MetricsCollector{
		metrics:  make([]OperationMetrics, 0, min(history, 256)),
		history:  history,
		enabled:  enabled,
		registry: registry,
		filesScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "textrules_files_scanned_total",
			Help: "Number of files scanned.",
		}),
		issues: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "textrules_issues_total",
			Help: "Number of issues raised, by rule.",
		}, []string{"rule"}),
		fileErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "textrules_file_errors_total",
			Help: "Number of files that could not be scanned.",
		}),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "textrules_scan_duration_seconds",
			Help:    "Duration of whole scans.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	if mc == nil {
		return false
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// Registry returns the Prometheus registry the collector reports to.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// RecordOperation executes the given function and records its duration and memory use.
func (mc *MetricsCollector) RecordOperation(operation string, fn func() error) error {
	if !mc.IsEnabled() {
		return fn()
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	start := time.Now()
	err := fn()
	duration := time.Since(start)

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	// Bytes allocated while fn ran
	memoryUsed := int64(memAfter.TotalAlloc - memBefore.TotalAlloc) //nolint:gosec // Memory values are expected to be safe

	if operation == OperationScan {
		mc.scanDuration.Observe(duration.Seconds())
	}

	mc.append(OperationMetrics{
		Duration:   duration,
		MemoryUsed: memoryUsed,
		Operation:  operation,
		Failed:     err != nil,
	})

	return err
}

// RecordFile records the scan of one file and the issues its per-file checks raised.
func (mc *MetricsCollector) RecordFile(path string, bytes int64, issues int, duration time.Duration, failed bool) {
	if !mc.IsEnabled() {
		return
	}

	mc.filesScanned.Inc()
	if failed {
		mc.fileErrors.Inc()
	}

	mc.append(OperationMetrics{
		Duration:     duration,
		BytesScanned: bytes,
		IssuesFound:  issues,
		Operation:    OperationScanFile,
		Path:         path,
		Failed:       failed,
	})
}

// RecordIssues adds n issues raised by rule to the Prometheus counter.
func (mc *MetricsCollector) RecordIssues(rule string, n int) {
	if !mc.IsEnabled() || n <= 0 {
		return
	}
	mc.issues.WithLabelValues(rule).Add(float64(n))
}

func (mc *MetricsCollector) append(m OperationMetrics) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if len(mc.metrics) < mc.history {
		mc.metrics = append(mc.metrics, m)
	} else {
		mc.metrics[mc.next] = m
		mc.next = (mc.next + 1) % mc.history
	}

	t := &mc.totals
	if t.OperationCounts == nil {
		t.OperationCounts = make(map[string]int)
	}
	t.TotalOperations++
	t.TotalDuration += m.Duration
	t.TotalMemory += m.MemoryUsed
	t.TotalBytes += m.BytesScanned
	t.TotalIssues += m.IssuesFound
	t.OperationCounts[m.Operation]++
	if m.Operation == OperationScanFile {
		t.FilesScanned++
		if m.Failed {
			t.FileErrors++
		}
	}
}

// GetMetrics returns a copy of the retained records, oldest first.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]OperationMetrics, 0, len(mc.metrics))
	result = append(result, mc.metrics[mc.next:]...)
	return append(result, mc.metrics[:mc.next]...)
}

// Clear removes all collected metrics and resets the summary. Prometheus
// counters are cumulative and keep their values.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
	mc.next = 0
	mc.totals = MetricsSummary{}
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// GetSummary returns aggregate statistics over every record since the last
// Clear, including records no longer retained.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if mc.totals.TotalOperations == 0 {
		return MetricsSummary{}
	}

	summary := mc.totals
	summary.OperationCounts = make(map[string]int, len(mc.totals.OperationCounts))
	for op, n := range mc.totals.OperationCounts {
		summary.OperationCounts[op] = n
	}
	summary.AverageDuration = summary.TotalDuration / time.Duration(summary.TotalOperations)
	return summary
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalOperations int            `json:"total_operations"`
	TotalDuration   time.Duration  `json:"total_duration"`
	TotalMemory     int64          `json:"total_memory"`
	TotalBytes      int64          `json:"total_bytes"`
	TotalIssues     int            `json:"total_issues"`
	FilesScanned    int            `json:"files_scanned"`
	FileErrors      int            `json:"file_errors"`
	OperationCounts map[string]int `json:"operation_counts"`
	AverageDuration time.Duration  `json:"average_duration"`
}
