package main

import (
	"fmt"
	"io"
	"os"

	"github.com/paveg/textrules/internal/monitoring"
	"github.com/paveg/textrules/internal/report"
	"github.com/paveg/textrules/internal/scanner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type scanOptions struct {
	configPath   string
	projectKey   string
	format       string
	output       string
	baseline     string
	workers      int
	failOnIssues bool
}

func (a *app) newScanCmd() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan project trees and report rule violations",
		Example: `  textrules scan --config rules.yaml
  textrules scan --config rules.yaml --format json --output report.json src/
  textrules scan --config rules.yaml --baseline report.json --fail-on-issues`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Rule configuration file (.json, .yaml)")
	flags.StringVar(&opts.projectKey, "project-key", "", "Project key matched by do_not_fire_for_project_keys")
	flags.StringVarP(&opts.format, "format", "f", string(report.FormatText), "Output format: text, json, csv, parquet")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the report to this file (default: stdout)")
	flags.StringVar(&opts.baseline, "baseline", "", "Previous JSON or Parquet report; its issues are not reported again")
	flags.IntVar(&opts.workers, "workers", 0, "Number of files scanned in parallel (default: CPU count)")
	flags.BoolVar(&opts.failOnIssues, "fail-on-issues", false, "Exit with status 1 when issues are reported")

	return cmd
}

func (a *app) runScan(cmd *cobra.Command, opts *scanOptions, args []string) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.projectKey != "" {
		cfg.ProjectKey = opts.projectKey
	}
	if opts.workers > 0 {
		cfg.WorkerPoolSize = opts.workers
	}

	var collector *monitoring.MetricsCollector
	if cfg.MetricsCollection {
		collector = monitoring.NewMetricsCollector(true)
	}

	s, err := scanner.New(cfg, scanner.WithLogger(a.logger), scanner.WithMetrics(collector))
	if err != nil {
		return err
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}

	scans := make([]report.Scanned, 0, len(roots))
	for _, root := range roots {
		if !s.ShouldExecute(root) {
			a.logger.Info("no matching files", zap.String("root", root))
		}
		r, err := s.Scan(cmd.Context(), root)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", root, err)
		}
		scans = append(scans, report.Scanned{Root: root, Report: r})
	}
	result := report.Merge(scans...)

	if opts.baseline != "" {
		baseline, err := report.LoadBaselineFile(opts.baseline)
		if err != nil {
			return err
		}
		before := len(result.Issues)
		result = result.Without(baseline)
		a.logger.Debug("baseline applied", zap.Int("known", before-len(result.Issues)))
	}

	if collector != nil {
		summary := collector.GetSummary()
		a.logger.Info("scan metrics",
			zap.Int("files", summary.FilesScanned),
			zap.Int64("bytes", summary.TotalBytes),
			zap.Duration("average", summary.AverageDuration),
		)
	}

	if err := writeReport(cmd.OutOrStdout(), opts.output, format, result); err != nil {
		return err
	}

	if opts.failOnIssues && result.HasIssues() {
		return errIssuesFound
	}
	return nil
}

// writeReport writes r to path, or to stdout when path is empty
func writeReport(stdout io.Writer, path string, format report.Format, r *report.Report) (err error) {
	out := stdout
	if path != "" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return fmt.Errorf("creating output file: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
		}()
		out = f
	}

	w, err := report.NewWriter(format, out)
	if err != nil {
		return err
	}
	return w.Write(r)
}
