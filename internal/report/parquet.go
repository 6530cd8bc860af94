package report

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/paveg/textrules/internal/rules"
)

// Column layout of issue tables
const (
	colRepository = iota
	colRule
	colPath
	colLine
	colSeverity
	colMessage
	colFingerprint
)

var issueSchema = arrow.NewSchema([]arrow.Field{
	{Name: "repository", Type: arrow.BinaryTypes.String},
	{Name: "rule", Type: arrow.BinaryTypes.String},
	{Name: "path", Type: arrow.BinaryTypes.String},
	{Name: "line", Type: arrow.PrimitiveTypes.Int64},
	{Name: "severity", Type: arrow.BinaryTypes.String},
	{Name: "message", Type: arrow.BinaryTypes.String},
	{Name: "fingerprint", Type: arrow.BinaryTypes.String},
}, nil)

// ParquetOptions contains configuration options for Parquet output
type ParquetOptions struct {
	// Compression type for Parquet files
	Compression string
	// BatchSize is the maximum number of rows per row group
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: "snappy",
		BatchSize:   DefaultBatchSize,
	}
}

// ParquetWriter writes the issues of a report as a Parquet file
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
}

// NewParquetWriter creates a new Parquet writer with the specified options
func NewParquetWriter(writer io.Writer, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{
		writer:  writer,
		options: options,
	}
}

// Write writes the issues of the report to Parquet format.
func (w *ParquetWriter) Write(r *Report) error {
	table := issuesToArrowTable(r.Issues, memory.NewGoAllocator())
	defer table.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compressionCodec(w.options.Compression)),
		parquet.WithBatchSize(int64(w.batchSize())),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.NewGoAllocator()))

	writer, err := pqarrow.NewFileWriter(table.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	if err := writer.WriteTable(table, int64(w.batchSize())); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	return nil
}

func (w *ParquetWriter) batchSize() int {
	if w.options.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return w.options.BatchSize
}

func compressionCodec(name string) compress.Compression {
	switch name {
	case "snappy":
		return compress.Codecs.Snappy
	case "gzip":
		return compress.Codecs.Gzip
	case "lz4":
		return compress.Codecs.Lz4Raw
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

// issuesToArrowTable converts issues to a single-chunk Arrow table.
func issuesToArrowTable(issues []rules.Issue, mem memory.Allocator) arrow.Table {
	builder := array.NewRecordBuilder(mem, issueSchema)
	defer builder.Release()

	repositories := builder.Field(colRepository).(*array.StringBuilder)
	ruleNames := builder.Field(colRule).(*array.StringBuilder)
	paths := builder.Field(colPath).(*array.StringBuilder)
	lines := builder.Field(colLine).(*array.Int64Builder)
	severities := builder.Field(colSeverity).(*array.StringBuilder)
	messages := builder.Field(colMessage).(*array.StringBuilder)
	fingerprints := builder.Field(colFingerprint).(*array.StringBuilder)

	for _, issue := range issues {
		repositories.Append(issue.Rule.Repository)
		ruleNames.Append(issue.Rule.Rule)
		paths.Append(issue.Path)
		lines.Append(int64(issue.Line))
		severities.Append(issue.Severity)
		messages.Append(issue.Message)
		fingerprints.Append(issue.Fingerprint)
	}

	record := builder.NewRecord()
	defer record.Release()

	return array.NewTableFromRecords(issueSchema, []arrow.Record{record})
}

// ReadParquet reads the issues written by ParquetWriter.
func ReadParquet(r io.Reader) ([]rules.Issue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	mem := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	return arrowTableToIssues(table)
}

// arrowTableToIssues converts a table with the issue schema back to issues.
func arrowTableToIssues(table arrow.Table) ([]rules.Issue, error) {
	schema := table.Schema()
	if schema.NumFields() != issueSchema.NumFields() {
		return nil, fmt.Errorf("unexpected parquet schema: %s", schema)
	}
	for i, want := range issueSchema.Fields() {
		got := schema.Field(i)
		if got.Name != want.Name || got.Type.ID() != want.Type.ID() {
			return nil, fmt.Errorf("unexpected parquet column %d: %s %s", i, got.Name, got.Type)
		}
	}

	issues := make([]rules.Issue, table.NumRows())
	for col := 0; col < int(table.NumCols()); col++ {
		row := 0
		for _, chunk := range table.Column(col).Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				setIssueField(&issues[row], col, chunk, i)
				row++
			}
		}
	}
	return issues, nil
}

func setIssueField(issue *rules.Issue, col int, arr arrow.Array, i int) {
	if col == colLine {
		issue.Line = int(arr.(*array.Int64).Value(i))
		return
	}

	value := arr.(*array.String).Value(i)
	switch col {
	case colRepository:
		issue.Rule.Repository = value
	case colRule:
		issue.Rule.Rule = value
	case colPath:
		issue.Path = value
	case colSeverity:
		issue.Severity = value
	case colMessage:
		issue.Message = value
	case colFingerprint:
		issue.Fingerprint = value
	}
}
