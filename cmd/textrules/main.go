// Command textrules applies regular expression rules to the text files of
// a project tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/paveg/textrules/internal/config"
	"github.com/paveg/textrules/internal/logging"
	"github.com/paveg/textrules/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errIssuesFound makes the process exit with status 1 without printing an error
var errIssuesFound = errors.New("issues found")

// app holds the state shared by every command
type app struct {
	verbose bool
	logFile string
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "textrules",
		Short: "Apply regular expression rules to the text files of a project",
		Long: `textrules scans a project tree and reports every place where a
configured regular expression rule matches.

Rules are read from a JSON or YAML configuration file. Five templates are
available, from single-line matches to rules that look across files; run
"textrules rules" to list them.`,
		Version:       version.Info().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logging.Options{Verbose: a.verbose, File: a.logFile})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Write logs to this file, rotated (default: stderr)")

	rootCmd.AddCommand(a.newScanCmd())
	rootCmd.AddCommand(a.newRulesCmd())
	rootCmd.AddCommand(a.newClassifyCmd())
	rootCmd.AddCommand(a.newWatchCmd())
	rootCmd.AddCommand(a.newVersionCmd())

	return rootCmd
}

// loadConfig reads the configuration file, if any, then applies the
// environment. Validation warnings are logged.
func (a *app) loadConfig(path string) (config.Config, error) {
	cfg := config.NewConfig()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg = cfg.MergeEnv()
	if cfg.VerboseLogging && !a.verbose {
		a.verbose = true
		logger, err := logging.New(logging.Options{Verbose: true, File: a.logFile})
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.logger = logger
	}

	validated, warnings, err := config.NewConfigValidator().Validate(cfg.WithDefaults())
	if err != nil {
		return config.Config{}, err
	}
	for _, warning := range warnings {
		a.logger.Info(warning)
	}
	return validated, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errIssuesFound) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
