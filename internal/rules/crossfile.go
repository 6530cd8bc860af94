package rules

import (
	"sort"
	"sync"
)

// CrossFileResults holds the prelim issues recorded by every cross-file
// check of one scan, grouped by file. Safe for concurrent use.
type CrossFileResults struct {
	mu     sync.Mutex
	files  map[string]*SourceFile
	prelim map[string][]PrelimIssue
}

// NewCrossFileResults returns an empty result set
func NewCrossFileResults() *CrossFileResults {
	return &CrossFileResults{
		files:  make(map[string]*SourceFile),
		prelim: make(map[string][]PrelimIssue),
	}
}

// Record stores a prelim issue found in file
func (r *CrossFileResults) Record(file *SourceFile, p PrelimIssue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[file.LogicalPath]; !ok {
		r.files[file.LogicalPath] = file
	}
	r.prelim[file.LogicalPath] = append(r.prelim[file.LogicalPath], p)
}

// Files returns the files holding at least one prelim issue, sorted by logical path
func (r *CrossFileResults) Files() []*SourceFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*SourceFile, 0, len(r.files))
	for _, f := range r.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogicalPath < out[j].LogicalPath })
	return out
}

// ForFile returns a copy of the prelim issues recorded for a logical path
func (r *CrossFileResults) ForFile(logicalPath string) []PrelimIssue {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PrelimIssue, len(r.prelim[logicalPath]))
	copy(out, r.prelim[logicalPath])
	return out
}

// Len returns the number of files holding prelim issues
func (r *CrossFileResults) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prelim)
}

// has reports whether any file holds a prelim issue of rule for part
func (r *CrossFileResults) has(rule RuleKey, part Part) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, prelims := range r.prelim {
		for _, p := range prelims {
			if p.Part == part && p.Issue.Rule == rule {
				return true
			}
		}
	}
	return false
}

// promote turns every prelim issue of rule for part into an issue of its
// file and returns the files that received one.
func (r *CrossFileResults) promote(rule RuleKey, part Part) []*SourceFile {
	var raised []*SourceFile
	for _, file := range r.Files() {
		added := false
		for _, p := range r.ForFile(file.LogicalPath) {
			if p.Part == part && p.Issue.Rule == rule {
				file.AddIssue(p.Issue)
				added = true
			}
		}
		if added {
			raised = append(raised, file)
		}
	}
	return raised
}
