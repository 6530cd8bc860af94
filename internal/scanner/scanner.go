// Package scanner walks a project tree and applies the configured rules
// to every matching file.
//
// Per-file checks and the collection phase of cross-file checks run on a
// worker pool. Once every file has been seen the cross-file checks decide
// which of their recorded matches become issues. A file that cannot be
// read is logged and reported, and the scan moves on.
package scanner

import (
	"context"
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/paveg/textrules/internal/antpath"
	"github.com/paveg/textrules/internal/config"
	"github.com/paveg/textrules/internal/errors"
	"github.com/paveg/textrules/internal/monitoring"
	"github.com/paveg/textrules/internal/parallel"
	"github.com/paveg/textrules/internal/report"
	"github.com/paveg/textrules/internal/rules"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Scanner applies a fixed rule set to project trees. It holds no per-scan
// state and may run several scans concurrently.
type Scanner struct {
	cfg        config.Config
	checks     []rules.Check
	crossFile  []rules.CrossFileCheck
	exclusions []*antpath.Pattern
	logger     *zap.Logger
	metrics    *monitoring.MetricsCollector
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector. The default is the global collector.
func WithMetrics(collector *monitoring.MetricsCollector) Option {
	return func(s *Scanner) {
		s.metrics = collector
	}
}

// WithChecks adds programmatic per-file checks to the configured ones
func WithChecks(checks ...rules.Check) Option {
	return func(s *Scanner) {
		s.checks = append(s.checks, checks...)
	}
}

// WithCrossFileChecks adds programmatic cross-file checks to the configured ones
func WithCrossFileChecks(checks ...rules.CrossFileCheck) Option {
	return func(s *Scanner) {
		s.crossFile = append(s.crossFile, checks...)
	}
}

// New builds a scanner from cfg. Every rule is compiled once here.
func New(cfg config.Config, opts ...Option) (*Scanner, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	checks, crossFile, err := rules.Build(cfg.Rules)
	if err != nil {
		return nil, err
	}

	exclusions, err := antpath.CompileAll(cfg.Exclusions)
	if err != nil {
		return nil, errors.NewValidationError("compile", "", "exclusions: "+err.Error())
	}

	s := &Scanner{
		cfg:        cfg,
		checks:     checks,
		crossFile:  crossFile,
		exclusions: exclusions,
		logger:     zap.NewNop(),
		metrics:    monitoring.GetGlobalCollector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the effective configuration
func (s *Scanner) Config() config.Config {
	return s.cfg
}

// candidate is a file selected for analysis
type candidate struct {
	file *rules.SourceFile
	size int64
}

// fileResult is the outcome of running every check on one file
type fileResult struct {
	duration time.Duration
	err      error
}

// Scan analyzes every matching file below root and returns the report.
// Issues are sorted by path, line and rule.
func (s *Scanner) Scan(ctx context.Context, root string) (*report.Report, error) {
	if len(s.checks) == 0 && len(s.crossFile) == 0 {
		return nil, errors.ErrNoRules
	}

	var result *report.Report
	err := s.metrics.RecordOperation(monitoring.OperationScan, func() error {
		var err error
		result, err = s.scan(ctx, root)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Scanner) scan(ctx context.Context, root string) (*report.Report, error) {
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewFileReadError(root, err)
	}

	candidates, err := s.collect(ctx, absRoot)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("scan started",
		zap.String("root", absRoot),
		zap.Int("files", len(candidates)),
		zap.Int("checks", len(s.checks)+len(s.crossFile)),
	)

	crossResults := rules.NewCrossFileResults()
	pool := parallel.NewWorkerPoolContext(ctx, s.cfg.WorkerPoolSize)
	defer pool.Close()

	results := parallel.ProcessIndexed(pool, candidates, func(_ int, c candidate) fileResult {
		return s.analyze(pool.Context(), c.file, crossResults)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, check := range s.crossFile {
		raised := check.RaiseIssues(crossResults)
		s.logger.Debug("cross-file rule evaluated",
			zap.Stringer("rule", check.Key()),
			zap.Int("files", len(raised)),
		)
	}

	out := &report.Report{
		ProjectKey: s.cfg.ProjectKey,
		Root:       absRoot,
		Files:      len(candidates),
	}
	for i, c := range candidates {
		issues := c.file.Issues()
		out.Issues = append(out.Issues, issues...)

		res := results[i]
		if res.err != nil {
			s.logFileError(c.file, res.err)
			out.Errors = append(out.Errors, report.FileError{Path: c.file.LogicalPath, Message: res.err.Error()})
		}
		s.metrics.RecordFile(c.file.LogicalPath, c.size, len(issues), res.duration, res.err != nil)
	}
	report.SortIssues(out.Issues)

	for _, rc := range out.Summary() {
		s.metrics.RecordIssues(rc.Rule, rc.Count)
	}

	out.Duration = time.Since(start)
	s.logger.Info("scan complete",
		zap.String("root", absRoot),
		zap.Int("files", out.Files),
		zap.Int("issues", len(out.Issues)),
		zap.Int("errors", len(out.Errors)),
		zap.Duration("duration", out.Duration),
	)
	return out, nil
}

// analyze runs every per-file check and every cross-file collection on file.
// Failures are combined so one broken check does not hide the others.
func (s *Scanner) analyze(ctx context.Context, file *rules.SourceFile, results *rules.CrossFileResults) fileResult {
	start := time.Now()
	var errs error

	for _, check := range s.checks {
		if err := check.Validate(ctx, file, s.cfg.ProjectKey); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	for _, check := range s.crossFile {
		if err := check.Collect(ctx, file, s.cfg.ProjectKey, results); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return fileResult{duration: time.Since(start), err: dedupe(errs)}
}

// dedupe drops repeated errors. The file content is cached, so every check
// reading it reports the same failure.
func dedupe(err error) error {
	all := multierr.Errors(err)
	if len(all) <= 1 {
		return err
	}
	seen := make(map[string]struct{}, len(all))
	var out error
	for _, e := range all {
		if _, ok := seen[e.Error()]; ok {
			continue
		}
		seen[e.Error()] = struct{}{}
		out = multierr.Append(out, e)
	}
	return out
}

func (s *Scanner) logFileError(file *rules.SourceFile, err error) {
	fields := []zap.Field{zap.String("path", file.LogicalPath), zap.Error(err)}
	if stderrors.Is(err, errors.ErrFileTooLarge) {
		s.logger.Warn("file skipped by whole-file rules", append(fields, zap.Int("max_characters", s.cfg.MaxCharactersScanned))...)
		return
	}
	s.logger.Error("unable to analyze file", fields...)
}

// collect walks root and returns the files to analyze, sorted by logical path
func (s *Scanner) collect(ctx context.Context, root string) ([]candidate, error) {
	var out []candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			s.logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		logical, ok := s.include(root, path)
		if !ok {
			return nil
		}

		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}

		file := rules.NewSourceFile(path, logical)
		file.MaxChars = s.cfg.MaxCharactersScanned
		out = append(out, candidate{file: file, size: size})
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.NewFileReadError(root, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].file.LogicalPath < out[j].file.LogicalPath })
	return out, nil
}

// include returns the logical path of path when the file is analyzed
func (s *Scanner) include(root, path string) (string, bool) {
	if !s.hasSuffix(path) {
		return "", false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	logical := filepath.ToSlash(rel)
	if antpath.MatchAny(s.exclusions, logical) {
		return "", false
	}
	return logical, true
}

func (s *Scanner) hasSuffix(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range s.cfg.FileSuffixes {
		if strings.HasSuffix(name, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// Accepts reports whether path, below root, would be analyzed
func (s *Scanner) Accepts(root, path string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	_, ok := s.include(absRoot, absPath)
	return ok
}

// ShouldExecute reports whether root holds at least one file to analyze
func (s *Scanner) ShouldExecute(root string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}

	found := false
	_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := s.include(absRoot, path); ok {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}
