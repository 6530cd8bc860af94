// Package textrules applies regular expression rules to the text files of
// a project tree. This package is the public API of the module; the CLI in
// cmd/textrules is built on it.
package textrules

import (
	"context"

	"github.com/paveg/textrules/internal/config"
	"github.com/paveg/textrules/internal/report"
	"github.com/paveg/textrules/internal/rules"
	"github.com/paveg/textrules/internal/scanner"
	"github.com/paveg/textrules/internal/sortkind"
	"go.uber.org/zap"
)

// Config is the scan configuration
type Config = config.Config

// RuleConfig configures one rule
type RuleConfig = config.RuleConfig

// RuleType selects the template a rule is built from
type RuleType = config.RuleType

// Rule templates
const (
	RuleSimple                       = config.RuleSimple
	RuleMultiline                    = config.RuleMultiline
	RuleRequiredStringNotPresent     = config.RuleRequiredStringNotPresent
	RuleDisallowedIfMatchInOtherFile = config.RuleDisallowedIfMatchInOtherFile
	RuleBothMustExist                = config.RuleBothMustExist
)

// Report is the outcome of a scan
type Report = report.Report

// Issue is one rule violation at a file and line
type Issue = rules.Issue

// Definition describes a rule template and its parameters
type Definition = rules.Definition

// Kind is the sort kind chosen for a value
type Kind = sortkind.Kind

// Sort kinds
const (
	KindNone     = sortkind.KindNone
	KindDateTime = sortkind.KindDateTime
	KindCurrency = sortkind.KindCurrency
	KindNumeric  = sortkind.KindNumeric
)

// NewConfig returns a configuration with default values and no rules.
func NewConfig() Config {
	return config.NewConfig()
}

// LoadConfig reads a JSON or YAML configuration file, then applies the
// TEXTRULES_* environment variables.
func LoadConfig(path string) (Config, error) {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return Config{}, err
	}
	return cfg.MergeEnv(), nil
}

// Option configures a scan
type Option = scanner.Option

// WithLogger sets the logger used during a scan. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return scanner.WithLogger(logger)
}

// Scan applies the rules of cfg to every matching file below root.
// Metrics go to the global collector when monitoring is enabled.
func Scan(ctx context.Context, cfg Config, root string, opts ...Option) (*Report, error) {
	s, err := scanner.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx, root)
}

// Definitions lists the rule templates
func Definitions() []Definition {
	return rules.Definitions()
}

// Classify returns the sort kind of value
func Classify(value string) Kind {
	return sortkind.Classify(value)
}

// ClassifyFrom classifies value, returning current when no kind matches.
func ClassifyFrom(value string, current Kind) Kind {
	return sortkind.ClassifyFrom(value, current)
}

// ClassifyBytes classifies raw bytes, ignoring those that are not valid UTF-8.
func ClassifyBytes(b []byte) Kind {
	return sortkind.ClassifyBytes(b)
}

// Matches returns every kind whose pattern matches value, in check order.
func Matches(value string) []Kind {
	return sortkind.Matches(value)
}

// ParseKind accepts a kind name or a sort function name.
func ParseKind(s string) (Kind, error) {
	return sortkind.ParseKind(s)
}
