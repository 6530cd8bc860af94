// Package rules implements the regular expression checks applied to text
// files and the bookkeeping shared by checks that look across files.
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/paveg/textrules/internal/config"
)

// RuleKey identifies a rule inside a repository
type RuleKey struct {
	Repository string
	Rule       string
}

// NewRuleKey returns the key of rule in the default repository
func NewRuleKey(rule string) RuleKey {
	return RuleKey{Repository: config.DefaultRepository, Rule: rule}
}

// ParseRuleKey parses "repo:rule". A key without repository uses the default one.
func ParseRuleKey(s string) RuleKey {
	if repo, rule, ok := strings.Cut(s, ":"); ok {
		return RuleKey{Repository: repo, Rule: rule}
	}
	return NewRuleKey(s)
}

func (k RuleKey) String() string {
	return k.Repository + ":" + k.Rule
}

// MarshalText encodes the key as "repo:rule"
func (k RuleKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a key written by MarshalText
func (k *RuleKey) UnmarshalText(text []byte) error {
	*k = ParseRuleKey(string(text))
	return nil
}

// Issue is one rule violation at a line of a file
type Issue struct {
	Rule        RuleKey `json:"rule"`
	Path        string  `json:"path"`
	Line        int     `json:"line"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"`
	Fingerprint string  `json:"fingerprint"`
}

// NewIssue builds an issue and computes its fingerprint
func NewIssue(rule RuleKey, path string, line int, message, severity string) Issue {
	return Issue{
		Rule:        rule,
		Path:        path,
		Line:        line,
		Message:     message,
		Severity:    severity,
		Fingerprint: Fingerprint(rule, path, line, message),
	}
}

// Fingerprint returns a stable hash identifying an issue across scans
func Fingerprint(rule RuleKey, path string, line int, message string) string {
	d := xxhash.New()
	for _, part := range []string{rule.String(), path, strconv.Itoa(line), message} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

func (i Issue) String() string {
	return fmt.Sprintf("%s:%d: [%s] %s", i.Path, i.Line, i.Rule, i.Message)
}

// Part tells which expression of a cross-file rule produced a match
type Part int

const (
	TriggerPattern Part = iota
	DisallowPattern
	MustAlsoExistPattern
)

func (p Part) String() string {
	switch p {
	case TriggerPattern:
		return "TriggerPattern"
	case DisallowPattern:
		return "DisallowPattern"
	case MustAlsoExistPattern:
		return "MustAlsoExistPattern"
	default:
		return fmt.Sprintf("Part(%d)", int(p))
	}
}

// PrelimIssue is a match recorded during collection. Whether it becomes a
// real issue is decided once every file has been seen.
type PrelimIssue struct {
	Part  Part
	Issue Issue
}
