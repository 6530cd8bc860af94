package main

import (
	"context"
	"time"

	"github.com/paveg/textrules/internal/monitoring"
	"github.com/paveg/textrules/internal/report"
	"github.com/paveg/textrules/internal/scanner"
	"github.com/paveg/textrules/internal/watch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type watchOptions struct {
	configPath  string
	projectKey  string
	metricsPort int
	debounce    time.Duration
}

func (a *app) newWatchCmd() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Rescan a project tree whenever its files change",
		Long: `Scan a project tree, then scan it again every time a file below it
changes. Each report is printed as text. With --metrics-port the scan
metrics, the latest report and a small dashboard are served over HTTP.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return a.runWatch(cmd, opts, root)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Rule configuration file (.json, .yaml)")
	flags.StringVar(&opts.projectKey, "project-key", "", "Project key matched by do_not_fire_for_project_keys")
	flags.IntVar(&opts.metricsPort, "metrics-port", 0, "Serve metrics and the latest report on this port (0 disables)")
	flags.DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "Quiet period before a rescan")

	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, opts *watchOptions, root string) error {
	cfg, err := a.loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.projectKey != "" {
		cfg.ProjectKey = opts.projectKey
	}

	var collector *monitoring.MetricsCollector
	if cfg.MetricsCollection || opts.metricsPort > 0 {
		collector = monitoring.EnableGlobalMonitoring()
		defer monitoring.DisableGlobalMonitoring()
	}

	s, err := scanner.New(cfg, scanner.WithLogger(a.logger), scanner.WithMetrics(collector))
	if err != nil {
		return err
	}

	var server *monitoring.Server
	if opts.metricsPort > 0 {
		server = monitoring.NewMonitoringServer(collector, opts.metricsPort)
	}

	out := cmd.OutOrStdout()
	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		return watch.Run(ctx, root, func(ctx context.Context) (*report.Report, error) {
			return s.Scan(ctx, root)
		}, watch.Options{
			Debounce: opts.debounce,
			Filter:   func(path string) bool { return s.Accepts(root, path) },
			Logger:   a.logger,
			OnReport: func(r *report.Report) {
				if err := report.NewTextWriter(out).Write(r); err != nil {
					a.logger.Error("unable to print report", zap.Error(err))
				}
				if server != nil {
					if err := server.PublishReport(r); err != nil {
						a.logger.Error("unable to publish report", zap.Error(err))
					}
				}
			},
		})
	})

	if server != nil {
		a.logger.Info("serving metrics", zap.Int("port", opts.metricsPort))
		g.Go(func() error {
			return server.Run(ctx)
		})
	}

	return g.Wait()
}
