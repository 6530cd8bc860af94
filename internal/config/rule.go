package config

import (
	"fmt"
	"strings"

	"github.com/paveg/textrules/internal/validation"
	"go.uber.org/multierr"
)

// RuleType names one of the check templates a rule is built from
type RuleType string

// Rule templates
const (
	RuleSimple                       RuleType = "simple"
	RuleMultiline                    RuleType = "multiline"
	RuleRequiredStringNotPresent     RuleType = "required_string_not_present"
	RuleDisallowedIfMatchInOtherFile RuleType = "string_disallowed_if_match_in_another_file"
	RuleBothMustExist                RuleType = "multi_file_if_one_exists_then_both_must_exist"
)

// RuleTypes lists every template in display order
var RuleTypes = []RuleType{
	RuleSimple,
	RuleMultiline,
	RuleRequiredStringNotPresent,
	RuleDisallowedIfMatchInOtherFile,
	RuleBothMustExist,
}

// Template keys used by existing rule repositories
var ruleTypeAliases = map[string]RuleType{
	"simpleregexmatchcheck":                            RuleSimple,
	"simpletextmatch":                                  RuleSimple,
	"multilinetextmatchcheck":                          RuleMultiline,
	"multilinetextmatch":                               RuleMultiline,
	"requiredstringnotpresentregexmatchcheck":          RuleRequiredStringNotPresent,
	"requiredstringnotpresent":                         RuleRequiredStringNotPresent,
	"stringdisallowedifmatchinanotherfilecheck":        RuleDisallowedIfMatchInOtherFile,
	"stringdisallowedifmatchinanotherfile":             RuleDisallowedIfMatchInOtherFile,
	"multifileifonestringexiststhenbothmustexistcheck": RuleBothMustExist,
	"multifileifonestringexiststhenbothmustexist":      RuleBothMustExist,
}

// ParseRuleType resolves a template name or one of its aliases
func ParseRuleType(s string) (RuleType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range RuleTypes {
		if string(t) == name {
			return t, nil
		}
	}
	if t, ok := ruleTypeAliases[strings.ReplaceAll(name, "_", "")]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown rule type %q", s)
}

// Severities accepted for a rule, lowest first
var Severities = []string{"INFO", "MINOR", "MAJOR", "CRITICAL", "BLOCKER"}

// DefaultSeverity is used when a rule does not set one
const DefaultSeverity = "MAJOR"

// DefaultMessage is reported when a rule does not set one
const DefaultMessage = "The regular expression matches this file"

// RuleConfig is one configured rule instance
type RuleConfig struct {
	Key      string   `json:"key" yaml:"key"`
	Type     RuleType `json:"type" yaml:"type"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
	Severity string   `json:"severity,omitempty" yaml:"severity,omitempty"`

	// simple and multiline
	Expression  string `json:"expression,omitempty" yaml:"expression,omitempty"`
	FilePattern string `json:"file_pattern,omitempty" yaml:"file_pattern,omitempty"`

	// required_string_not_present and the cross-file templates
	TriggerExpression   string `json:"trigger_expression,omitempty" yaml:"trigger_expression,omitempty"`
	TriggerFilePattern  string `json:"trigger_file_pattern,omitempty" yaml:"trigger_file_pattern,omitempty"`
	MustExistExpression string `json:"must_exist_expression,omitempty" yaml:"must_exist_expression,omitempty"`

	DisallowExpression  string `json:"disallow_expression,omitempty" yaml:"disallow_expression,omitempty"`
	DisallowFilePattern string `json:"disallow_file_pattern,omitempty" yaml:"disallow_file_pattern,omitempty"`

	MustAlsoExistExpression  string `json:"must_also_exist_expression,omitempty" yaml:"must_also_exist_expression,omitempty"`
	MustAlsoExistFilePattern string `json:"must_also_exist_file_pattern,omitempty" yaml:"must_also_exist_file_pattern,omitempty"`

	// nil means true
	OneLineAtATime *bool `json:"apply_expression_to_one_line_of_text_at_a_time,omitempty" yaml:"apply_expression_to_one_line_of_text_at_a_time,omitempty"`

	DoNotFireForProjectKeys string `json:"do_not_fire_for_project_keys,omitempty" yaml:"do_not_fire_for_project_keys,omitempty"`
}

// LineMode reports whether cross-file expressions are applied per line
func (r RuleConfig) LineMode() bool {
	return r.OneLineAtATime == nil || *r.OneLineAtATime
}

// WithDefaults fills in the message, severity and canonical type name
func (r RuleConfig) WithDefaults() RuleConfig {
	if t, err := ParseRuleType(string(r.Type)); err == nil {
		r.Type = t
	}
	r.Severity = strings.ToUpper(strings.TrimSpace(r.Severity))
	if r.Severity == "" {
		r.Severity = DefaultSeverity
	}
	if strings.TrimSpace(r.Message) == "" {
		r.Message = DefaultMessage
	}
	return r
}

// RequiredFields returns the expression parameters a template cannot run without
func (t RuleType) RequiredFields() []string {
	switch t {
	case RuleSimple, RuleMultiline:
		return []string{"expression"}
	case RuleRequiredStringNotPresent:
		return []string{"trigger_expression", "must_exist_expression"}
	case RuleDisallowedIfMatchInOtherFile:
		return []string{"trigger_expression", "disallow_expression"}
	case RuleBothMustExist:
		return []string{"trigger_expression", "must_also_exist_expression"}
	default:
		return nil
	}
}

// Field returns the value of a parameter by its configuration name
func (r RuleConfig) Field(name string) string {
	switch name {
	case "expression":
		return r.Expression
	case "file_pattern":
		return r.FilePattern
	case "trigger_expression":
		return r.TriggerExpression
	case "trigger_file_pattern":
		return r.TriggerFilePattern
	case "must_exist_expression":
		return r.MustExistExpression
	case "disallow_expression":
		return r.DisallowExpression
	case "disallow_file_pattern":
		return r.DisallowFilePattern
	case "must_also_exist_expression":
		return r.MustAlsoExistExpression
	case "must_also_exist_file_pattern":
		return r.MustAlsoExistFilePattern
	case "do_not_fire_for_project_keys":
		return r.DoNotFireForProjectKeys
	default:
		return ""
	}
}

var (
	expressionFields = []string{
		"expression", "trigger_expression", "must_exist_expression",
		"disallow_expression", "must_also_exist_expression", "do_not_fire_for_project_keys",
	}
	patternFields = []string{
		"file_pattern", "trigger_file_pattern", "disallow_file_pattern", "must_also_exist_file_pattern",
	}
)

// Validate checks the rule and returns every problem found
func (r *RuleConfig) Validate() error {
	key := r.Key
	err := validation.ValidateRequired(key, "key", "config", "")

	t, typeErr := ParseRuleType(string(r.Type))
	if typeErr != nil {
		return multierr.Append(err, validation.NewOneOfValidator(string(r.Type), ruleTypeNames(), "type", "config", key).Validate())
	}

	for _, field := range t.RequiredFields() {
		err = multierr.Append(err, validation.ValidateRequired(r.Field(field), field, "config", key))
	}
	for _, field := range expressionFields {
		err = multierr.Append(err, validation.ValidateRegex(r.Field(field), field, "config", key))
	}
	for _, field := range patternFields {
		err = multierr.Append(err, validation.ValidatePattern(r.Field(field), field, "config", key))
	}

	if sev := strings.ToUpper(strings.TrimSpace(r.Severity)); sev != "" {
		err = multierr.Append(err, validation.NewOneOfValidator(sev, Severities, "severity", "config", key).Validate())
	}

	return err
}

func ruleTypeNames() []string {
	names := make([]string, len(RuleTypes))
	for i, t := range RuleTypes {
		names[i] = string(t)
	}
	return names
}
