package monitoring

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Server provides HTTP endpoints for monitoring scans.
type Server struct {
	collector *MetricsCollector
	server    *http.Server

	mu         sync.RWMutex
	report     []byte
	reportedAt time.Time
}

// NewMonitoringServer creates a new monitoring server.
func NewMonitoringServer(collector *MetricsCollector, port int) *Server {
	mux := http.NewServeMux()

	server := &Server{
		collector: collector,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second, //nolint:mnd // Standard timeout value
		},
	}

	// Register endpoints
	mux.HandleFunc("/metrics", server.handleMetrics)
	mux.Handle("/prometheus", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/report", server.handleReport)
	mux.HandleFunc("/dashboard", server.handleDashboard)

	return server
}

// Handler returns the HTTP handler serving every endpoint.
func (ms *Server) Handler() http.Handler {
	return ms.server.Handler
}

// Start starts the monitoring server.
func (ms *Server) Start() error {
	return ms.server.ListenAndServe()
}

// Stop stops the monitoring server.
func (ms *Server) Stop() error {
	return ms.server.Close()
}

// Run serves until ctx is done, then shuts the server down gracefully.
func (ms *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- ms.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := ms.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// PublishReport stores v as the latest report served by /report.
func (ms *Server) PublishReport(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.report = data
	ms.reportedAt = time.Now()
	return nil
}

func (ms *Server) latestReport() ([]byte, time.Time) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.report, ms.reportedAt
}

// handleMetrics serves the metrics endpoint.
func (ms *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	metrics := ms.collector.GetMetrics()
	if err := json.NewEncoder(w).Encode(metrics); err != nil {
		http.Error(w, "Failed to encode metrics", http.StatusInternalServerError)
		return
	}
}

// handleHealth serves the health check endpoint.
func (ms *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"enabled":   ms.collector.IsEnabled(),
	}
	if _, at := ms.latestReport(); !at.IsZero() {
		response["last_scan"] = at.UTC().Format(time.RFC3339)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode health status", http.StatusInternalServerError)
		return
	}
}

// handleReport serves the latest published report.
func (ms *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, _ := ms.latestReport()
	if data == nil {
		http.Error(w, "No scan has completed yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		http.Error(w, "Failed to write report", http.StatusInternalServerError)
		return
	}
}

// handleDashboard serves a simple HTML dashboard.
func (ms *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html")

	if _, err := w.Write([]byte(generateDashboardHTML(ms.collector))); err != nil {
		http.Error(w, "Failed to write dashboard", http.StatusInternalServerError)
		return
	}
}

// generateDashboardHTML creates a simple HTML dashboard.
func generateDashboardHTML(collector *MetricsCollector) string {
	summary := collector.GetSummary()

	statusClass, statusText := "enabled", "Enabled"
	if !collector.IsEnabled() {
		statusClass, statusText = "disabled", "Disabled"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html>
<head>
    <title>Text Rules Monitoring</title>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .summary { background: #f8f9fa; padding: 15px; border-radius: 5px; }
        table { border-collapse: collapse; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        .enabled { color: #155724; }
        .disabled { color: #721c24; }
    </style>
</head>
<body>
    <h1>Text Rules Monitoring</h1>
    <div class="summary">
        <p><strong>Status:</strong> <span class="%s">%s</span></p>
        <p><strong>Files Scanned:</strong> %d (%d failed)</p>
        <p><strong>Bytes Scanned:</strong> %d</p>
        <p><strong>Issues Found:</strong> %d</p>
        <p><strong>Total Duration:</strong> %v</p>
    </div>
    <h2>Operations by Type</h2>
    <table>
        <tr><th>Operation</th><th>Count</th></tr>`,
		statusClass, statusText,
		summary.FilesScanned, summary.FileErrors,
		summary.TotalBytes,
		summary.TotalIssues,
		summary.TotalDuration,
	)

	operations := make([]string, 0, len(summary.OperationCounts))
	for op := range summary.OperationCounts {
		operations = append(operations, op)
	}
	sort.Strings(operations)
	for _, op := range operations {
		fmt.Fprintf(&b, "\n        <tr><td>%s</td><td>%d</td></tr>", html.EscapeString(op), summary.OperationCounts[op])
	}

	b.WriteString(`
    </table>
</body>
</html>`)

	return b.String()
}
