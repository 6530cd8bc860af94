// Package report holds the result of a scan and writes it in the
// supported output formats.
//
// A Report can be written as plain text, JSON, CSV or Parquet. A previous
// JSON or Parquet report can serve as a baseline: Report.Without drops
// every issue whose fingerprint the baseline already knows.
package report

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/paveg/textrules/internal/rules"
)

// FileError records a file that could not be scanned
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Report is the outcome of one scan
type Report struct {
	ProjectKey string        `json:"project_key,omitempty"`
	Root       string        `json:"root"`
	Files      int           `json:"files"`
	Issues     []rules.Issue `json:"issues"`
	Errors     []FileError   `json:"errors,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// RuleCount is the number of issues raised by one rule
type RuleCount struct {
	Rule  string `json:"rule"`
	Count int    `json:"count"`
}

// SortIssues orders issues by path, line and rule
func SortIssues(issues []rules.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule.String() < b.Rule.String()
	})
}

// HasIssues reports whether the report holds at least one issue
func (r *Report) HasIssues() bool {
	return r != nil && len(r.Issues) > 0
}

// Summary counts issues per rule, sorted by rule key
func (r *Report) Summary() []RuleCount {
	counts := make(map[string]int)
	for _, issue := range r.Issues {
		counts[issue.Rule.String()]++
	}

	out := make([]RuleCount, 0, len(counts))
	for rule, n := range counts {
		out = append(out, RuleCount{Rule: rule, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rule < out[j].Rule })
	return out
}

// Fingerprints returns the set of issue fingerprints in the report.
// Issues loaded without a fingerprint get one computed.
func (r *Report) Fingerprints() map[string]struct{} {
	set := make(map[string]struct{}, len(r.Issues))
	for _, issue := range r.Issues {
		set[fingerprintOf(issue)] = struct{}{}
	}
	return set
}

// Without returns a copy of r without the issues already present in baseline.
// A nil baseline returns r unchanged.
func (r *Report) Without(baseline *Report) *Report {
	if baseline == nil {
		return r
	}
	known := baseline.Fingerprints()

	out := *r
	out.Issues = make([]rules.Issue, 0, len(r.Issues))
	for _, issue := range r.Issues {
		if _, ok := known[fingerprintOf(issue)]; ok {
			continue
		}
		out.Issues = append(out.Issues, issue)
	}
	return &out
}

func fingerprintOf(issue rules.Issue) string {
	if issue.Fingerprint != "" {
		return issue.Fingerprint
	}
	return rules.Fingerprint(issue.Rule, issue.Path, issue.Line, issue.Message)
}

// Scanned pairs a report with the root it was requested for, as given
// by the caller.
type Scanned struct {
	Root   string
	Report *Report
}

// Merge combines the reports of several roots. With more than one report,
// issue and error paths are prefixed with the requested root, cleaned and
// slash-separated, so they stay distinct. Fingerprints are recomputed from
// the prefixed paths; a relative root keeps them independent of the
// directory the scan ran in.
func Merge(scans ...Scanned) *Report {
	if len(scans) == 1 {
		return scans[0].Report
	}

	out := &Report{}
	roots := make([]string, 0, len(scans))
	for _, sc := range scans {
		r := sc.Report
		if out.ProjectKey == "" {
			out.ProjectKey = r.ProjectKey
		}
		roots = append(roots, r.Root)
		out.Files += r.Files
		out.Duration += r.Duration

		prefix := path.Clean(filepath.ToSlash(sc.Root))
		for _, issue := range r.Issues {
			out.Issues = append(out.Issues, rules.NewIssue(issue.Rule, path.Join(prefix, issue.Path), issue.Line, issue.Message, issue.Severity))
		}
		for _, fe := range r.Errors {
			out.Errors = append(out.Errors, FileError{Path: path.Join(prefix, fe.Path), Message: fe.Message})
		}
	}
	out.Root = strings.Join(roots, string(filepath.ListSeparator))
	SortIssues(out.Issues)
	return out
}
