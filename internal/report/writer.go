package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

const (
	// DefaultBatchSize is the default row group size for Parquet output
	DefaultBatchSize = 1000
)

// Format names an output format
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// Formats lists every supported output format
var Formats = []Format{FormatText, FormatJSON, FormatCSV, FormatParquet}

// ParseFormat parses a format name, case insensitively
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

// Writer writes a report to a destination
type Writer interface {
	Write(r *Report) error
}

// NewWriter returns the writer for format
func NewWriter(format Format, w io.Writer) (Writer, error) {
	switch format {
	case FormatText:
		return NewTextWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w), nil
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatParquet:
		return NewParquetWriter(w, DefaultParquetOptions()), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// TextWriter writes one line per issue followed by a summary line
type TextWriter struct {
	writer io.Writer
}

// NewTextWriter creates a new text writer
func NewTextWriter(writer io.Writer) *TextWriter {
	return &TextWriter{writer: writer}
}

// Write writes the report as text
func (w *TextWriter) Write(r *Report) error {
	var b strings.Builder
	for _, issue := range r.Issues {
		b.WriteString(issue.String())
		b.WriteByte('\n')
	}
	for _, fe := range r.Errors {
		fmt.Fprintf(&b, "%s: error: %s\n", fe.Path, fe.Message)
	}
	fmt.Fprintf(&b, "%d issue(s) in %d file(s) scanned", len(r.Issues), r.Files)
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, ", %d file(s) failed", len(r.Errors))
	}
	b.WriteByte('\n')

	if _, err := io.WriteString(w.writer, b.String()); err != nil {
		return fmt.Errorf("writing text report: %w", err)
	}
	return nil
}

// JSONWriter writes the report as an indented JSON document
type JSONWriter struct {
	writer io.Writer
}

// NewJSONWriter creates a new JSON writer
func NewJSONWriter(writer io.Writer) *JSONWriter {
	return &JSONWriter{writer: writer}
}

// Write writes the report as JSON
func (w *JSONWriter) Write(r *Report) error {
	encoder := json.NewEncoder(w.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}

var csvHeader = []string{"rule", "path", "line", "severity", "message", "fingerprint"}

// CSVWriter writes one row per issue
type CSVWriter struct {
	writer io.Writer
}

// NewCSVWriter creates a new CSV writer
func NewCSVWriter(writer io.Writer) *CSVWriter {
	return &CSVWriter{writer: writer}
}

// Write writes the issues of the report as CSV
func (w *CSVWriter) Write(r *Report) error {
	csvWriter := csv.NewWriter(w.writer)

	if err := csvWriter.Write(csvHeader); err != nil {
		return fmt.Errorf("writing headers: %w", err)
	}

	for i, issue := range r.Issues {
		row := []string{
			issue.Rule.String(),
			issue.Path,
			strconv.Itoa(issue.Line),
			issue.Severity,
			issue.Message,
			issue.Fingerprint,
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
