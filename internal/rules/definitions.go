package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/paveg/textrules/internal/antpath"
	"github.com/paveg/textrules/internal/config"
	"github.com/paveg/textrules/internal/errors"
)

// Param describes one configurable parameter of a rule template
type Param struct {
	Key         string `json:"key"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// Definition describes a rule template
type Definition struct {
	Type        config.RuleType `json:"type"`
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Severity    string          `json:"severity"`
	Params      []Param         `json:"params"`
}

const (
	defaultExpression  = "^some single-line.*regex search string$"
	defaultFilePattern = "**/*.properties"
	patternHelp        = "Ant style path expression. Use '**/*' to include every file. Blank means every file."
	projectKeysHelp    = "Regular expression; the rule is silent for projects whose key it matches."
	lineModeHelp       = "Apply expressions to one line at a time. Set to false when an expression must see several lines."
)

var commonParams = []Param{
	{Key: "message"},
	{Key: "do_not_fire_for_project_keys", Description: projectKeysHelp},
}

// Definitions returns the rule templates
func Definitions() []Definition {
	defs := []Definition{
		{
			Type:        config.RuleSimple,
			Key:         "SimpleRegexMatchCheck",
			Name:        "Simple Regex Match",
			Description: "Simple regular expression matcher applied to one line of text at a time.",
			Params: []Param{
				{Key: "expression", Default: defaultExpression, Description: "Do not try to match newlines; use the multiline template for that."},
				{Key: "file_pattern", Default: defaultFilePattern, Description: patternHelp},
			},
		},
		{
			Type:        config.RuleMultiline,
			Key:         "MultilineTextMatchCheck",
			Name:        "Multiline Regex Check",
			Description: fmt.Sprintf("Regular expression matcher where '.' matches newlines. Scans only files holding at most %d characters.", config.DefaultMaxCharactersScanned),
			Params: []Param{
				{Key: "expression", Default: "^some.*regex search string\\. dot matches all$"},
				{Key: "file_pattern", Default: defaultFilePattern, Description: patternHelp},
			},
		},
		{
			Type:        config.RuleRequiredStringNotPresent,
			Key:         "RequiredStringNotPresentRegexMatchCheck",
			Name:        "Required String not Present",
			Description: "Raises an issue when a file matches the trigger expression but not the must-exist expression. '.' matches newlines.",
			Params: []Param{
				{Key: "trigger_expression", Default: defaultExpression},
				{Key: "must_exist_expression", Default: defaultExpression},
				{Key: "file_pattern", Default: defaultFilePattern, Description: patternHelp},
			},
		},
		{
			Type:        config.RuleDisallowedIfMatchInOtherFile,
			Key:         "StringDisallowedIfMatchInAnotherFileCheck",
			Name:        "String disallowed if a match was found in another file",
			Description: "When the trigger expression matches in one file, every match of the disallow expression in the project is an issue.",
			Params: []Param{
				{Key: "trigger_expression", Default: defaultExpression},
				{Key: "trigger_file_pattern", Default: defaultFilePattern, Description: patternHelp},
				{Key: "disallow_expression", Default: defaultExpression},
				{Key: "disallow_file_pattern", Default: defaultFilePattern, Description: patternHelp},
				{Key: "apply_expression_to_one_line_of_text_at_a_time", Default: "true", Description: lineModeHelp},
			},
		},
		{
			Type:        config.RuleBothMustExist,
			Key:         "MultiFileIfOneStringExistsThenBothMustExistCheck",
			Name:        "If a string is present then another string must also be present (cross-file)",
			Description: "When the trigger expression matches and the must-also-exist expression matches nowhere in the project, every trigger match is an issue.",
			Params: []Param{
				{Key: "trigger_expression", Default: defaultExpression},
				{Key: "trigger_file_pattern", Default: defaultFilePattern, Description: patternHelp},
				{Key: "must_also_exist_expression", Default: defaultExpression},
				{Key: "must_also_exist_file_pattern", Default: defaultFilePattern, Description: patternHelp},
				{Key: "apply_expression_to_one_line_of_text_at_a_time", Default: "true", Description: lineModeHelp},
			},
		},
	}

	for i := range defs {
		defs[i].Severity = config.DefaultSeverity
		defs[i].Params = append(defs[i].Params, commonParams...)
	}
	return defs
}

// Rule is either a Check or a CrossFileCheck
type Rule interface {
	Key() RuleKey
}

// New builds the check described by cfg, compiling every expression once
func New(cfg config.RuleConfig) (Rule, error) {
	cfg = cfg.WithDefaults()
	c := &compiler{key: cfg.Key}

	b := base{
		key:          ParseRuleKey(cfg.Key),
		message:      cfg.Message,
		severity:     cfg.Severity,
		skipProjects: c.regex("do_not_fire_for_project_keys", cfg.DoNotFireForProjectKeys, ""),
	}

	var rule Rule
	switch cfg.Type {
	case config.RuleSimple:
		rule = &SimpleCheck{
			base:       b,
			expression: c.regex("expression", cfg.Expression, ""),
			pattern:    c.pattern("file_pattern", cfg.FilePattern),
		}
	case config.RuleMultiline:
		rule = &MultilineCheck{
			base:       b,
			expression: c.regex("expression", cfg.Expression, "(?s)"),
			pattern:    c.pattern("file_pattern", cfg.FilePattern),
		}
	case config.RuleRequiredStringNotPresent:
		rule = &RequiredStringCheck{
			base:      b,
			trigger:   c.regex("trigger_expression", cfg.TriggerExpression, "(?s)"),
			mustExist: c.regex("must_exist_expression", cfg.MustExistExpression, "(?s)"),
			pattern:   c.pattern("file_pattern", cfg.FilePattern),
		}
	case config.RuleDisallowedIfMatchInOtherFile:
		rule = &DisallowedCheck{crossFileBase{
			base:     b,
			lineMode: cfg.LineMode(),
			parts: []crossFilePart{
				c.part(TriggerPattern, "trigger", cfg.TriggerExpression, cfg.TriggerFilePattern),
				c.part(DisallowPattern, "disallow", cfg.DisallowExpression, cfg.DisallowFilePattern),
			},
		}}
	case config.RuleBothMustExist:
		rule = &BothMustExistCheck{crossFileBase{
			base:     b,
			lineMode: cfg.LineMode(),
			parts: []crossFilePart{
				c.part(TriggerPattern, "trigger", cfg.TriggerExpression, cfg.TriggerFilePattern),
				c.part(MustAlsoExistPattern, "must_also_exist", cfg.MustAlsoExistExpression, cfg.MustAlsoExistFilePattern),
			},
		}}
	default:
		return nil, errors.NewInvalidRuleError(cfg.Key, fmt.Sprintf("unknown rule type %q", cfg.Type))
	}

	if c.err != nil {
		return nil, c.err
	}
	return rule, nil
}

// compiler keeps the first compile error so New can build a rule in one pass
type compiler struct {
	key string
	err error
}

func (c *compiler) regex(field, expr, flags string) *regexp.Regexp {
	if c.err != nil || strings.TrimSpace(expr) == "" {
		return nil
	}
	re, err := regexp.Compile(flags + expr)
	if err != nil {
		c.err = errors.NewInvalidExpressionError(c.key, field, err)
		return nil
	}
	return re
}

func (c *compiler) pattern(field, raw string) *antpath.Pattern {
	if c.err != nil {
		return nil
	}
	p, err := antpath.Compile(raw)
	if err != nil {
		c.err = errors.NewValidationError("compile", c.key, fmt.Sprintf("%s: %v", field, err))
		return nil
	}
	return p
}

func (c *compiler) part(part Part, name, expr, pattern string) crossFilePart {
	return crossFilePart{
		part:       part,
		expression: c.regex(name+"_expression", expr, ""),
		pattern:    c.pattern(name+"_file_pattern", pattern),
	}
}

// Build compiles every configured rule and splits them by kind
func Build(cfgs []config.RuleConfig) ([]Check, []CrossFileCheck, error) {
	var (
		checks []Check
		cross  []CrossFileCheck
	)
	for _, cfg := range cfgs {
		rule, err := New(cfg)
		if err != nil {
			return nil, nil, err
		}
		switch r := rule.(type) {
		case CrossFileCheck:
			cross = append(cross, r)
		case Check:
			checks = append(checks, r)
		}
	}
	return checks, cross, nil
}
