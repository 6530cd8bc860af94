package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
)

// LoadBaseline reads a report previously written by JSONWriter
func LoadBaseline(r io.Reader) (*Report, error) {
	var baseline Report
	if err := json.NewDecoder(r).Decode(&baseline); err != nil {
		return nil, fmt.Errorf("parsing baseline report: %w", err)
	}
	return &baseline, nil
}

// LoadBaselineFile reads a baseline from a JSON or Parquet report file.
// The format is chosen by file extension.
func LoadBaselineFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening baseline: %w", err)
	}
	defer f.Close()

	if strings.ToLower(filepath.Ext(path)) == ".parquet" {
		issues, err := ReadParquet(f)
		if err != nil {
			return nil, fmt.Errorf("parsing baseline report: %w", err)
		}
		return &Report{Issues: issues}, nil
	}
	return LoadBaseline(f)
}
